package prometheus

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sajib9090/restaurant-management-backend/pkg/config"
)

var (
	// Identity metrics
	UserRegistrationCounter  prometheus.Counter
	BrandRegistrationCounter prometheus.Counter
	LoginCounter             *prometheus.CounterVec
	TokensRefreshedCounter   prometheus.Counter
	EmailVerificationCounter *prometheus.CounterVec
	AuthErrorCounter         *prometheus.CounterVec

	// Authorization metrics
	SubscriptionDenialCounter prometheus.Counter
	RevokedAccessCounter      prometheus.Counter

	// Resource metrics
	ResourceOpCounter *prometheus.CounterVec

	// Database operation metrics
	DBOperationHistogram *prometheus.HistogramVec

	// Request metrics
	RequestDurationHistogram *prometheus.HistogramVec
	APIRequestCounter        *prometheus.CounterVec
	APIErrorCounter          *prometheus.CounterVec

	// Namespace prefix for metrics
	namespace string
)

// InitMetrics initializes all Prometheus metrics
func InitMetrics(cfg *config.Config) {
	namespace = cfg.Metrics.Prefix

	// Identity metrics
	UserRegistrationCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_registration_total",
		Help:      "Total number of user registrations",
	})

	BrandRegistrationCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "brand_registration_total",
		Help:      "Total number of brand registrations",
	})

	LoginCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_total",
			Help:      "Total number of login attempts",
		},
		[]string{"result"},
	)

	TokensRefreshedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_refreshed_total",
		Help:      "Total number of access tokens minted from refresh tokens",
	})

	EmailVerificationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_verification_total",
			Help:      "Total number of e-mail verification attempts",
		},
		[]string{"result"},
	)

	AuthErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_errors_total",
			Help:      "Total number of authentication and authorization failures",
		},
		[]string{"reason"},
	)

	// Authorization metrics
	SubscriptionDenialCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscription_denials_total",
		Help:      "Total number of requests denied for an inactive subscription",
	})

	RevokedAccessCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revoked_access_total",
		Help:      "Total number of requests denied for a revoked user",
	})

	// Resource metrics
	ResourceOpCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_operations_total",
			Help:      "Total number of resource operations",
		},
		[]string{"entity", "operation"},
	)

	// Database operation metrics
	DBOperationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_operation_duration_seconds",
			Help:      "Duration of database operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Request metrics
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path"},
	)

	APIErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors",
		},
		[]string{"method", "path", "status"},
	)
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Track API request count
			APIRequestCounter.With(prometheus.Labels{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Inc()

			// Process the request
			err := next(c)

			// Track request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			RequestDurationHistogram.With(prometheus.Labels{
				"method": c.Request().Method,
				"path":   c.Path(),
				"status": status,
			}).Observe(duration)

			// Track errors
			if c.Response().Status >= 400 {
				APIErrorCounter.With(prometheus.Labels{
					"method": c.Request().Method,
					"path":   c.Path(),
					"status": status,
				}).Inc()
			}

			return err
		}
	}
}

// HandlerFunc returns a HTTP handler for metrics endpoint
func HandlerFunc() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// TrackDBOperation returns a function that tracks database operation duration
func TrackDBOperation(operation string) func(time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationHistogram.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// RecordLogin increments the login counter with the given result
func RecordLogin(result string) {
	LoginCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordAuthError increments the auth error counter with the given reason
func RecordAuthError(reason string) {
	AuthErrorCounter.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordResourceOp increments the resource operation counter
func RecordResourceOp(entity, operation string) {
	ResourceOpCounter.With(prometheus.Labels{
		"entity":    entity,
		"operation": operation,
	}).Inc()
}
