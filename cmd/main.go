package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/internal/handler"
	"github.com/sajib9090/restaurant-management-backend/internal/middleware"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/pkg/assets"
	"github.com/sajib9090/restaurant-management-backend/pkg/config"
	"github.com/sajib9090/restaurant-management-backend/pkg/database"
	"github.com/sajib9090/restaurant-management-backend/pkg/jwtutil"
	"github.com/sajib9090/restaurant-management-backend/pkg/logger"
	"github.com/sajib9090/restaurant-management-backend/pkg/mailer"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("restaurant-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	err = logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting restaurant service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	err = database.MigrateModels(
		&model.User{},
		&model.Brand{},
		&model.Table{},
		&model.Category{},
		&model.MenuItem{},
		&model.Member{},
		&model.Staff{},
		&model.Supplier{},
		&model.Plan{},
		&model.PlanPurchase{},
		&model.SoldInvoice{},
		&model.RemovedUser{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT utility
	jwtutil.Initialize(&jwtutil.JWTConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		VerifySecret:  cfg.JWT.VerifySecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		VerifyTTL:     cfg.JWT.VerifyTTL,
	})
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire handler collaborators
	var mail mailer.Mailer
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(&cfg.SMTP)
	} else {
		mail = mailer.NewLogMailer(log)
	}
	var store assets.Store
	if cfg.Assets.BaseURL != "" {
		store = assets.NewHTTPStore(&cfg.Assets)
	} else {
		store = assets.Disabled{}
	}
	handler.Init(cfg, authz.NewAuthorizer(database.GetDB()), mail, store)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())
	e.Use(echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(
			echomiddleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(float64(cfg.RateLimit.PerMinute) / 60.0),
				Burst: cfg.RateLimit.PerMinute,
			},
		),
	}))

	// Public routes
	e.GET("/", handler.HealthCheck)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	api := e.Group("/api/v2")

	users := api.Group("/users")
	users.POST("/register", handler.Register)
	users.GET("/verify-email", handler.VerifyEmail)
	users.POST("/login", handler.Login)
	users.POST("/refresh-token", handler.RefreshToken)
	users.POST("/logout", handler.Logout)

	// Plans are browsable without an account
	api.GET("/plans", handler.GetPlans)
	api.GET("/plans/:id", handler.GetPlan)

	// Authenticated routes
	authed := api.Group("", middleware.Authenticate)

	authed.GET("/users", handler.GetUsers)
	authed.POST("/users", handler.CreateUser)
	authed.GET("/users/current-user", handler.GetCurrentUser)
	authed.GET("/users/:id", handler.GetUser)
	authed.PATCH("/users/update", handler.UpdateCurrentUser)
	authed.PATCH("/users/change-password", handler.ChangePassword)
	authed.PATCH("/users/avatar", handler.UpdateAvatar)
	authed.PATCH("/users/:id/credentials", handler.UpdateUserCredentials)
	authed.DELETE("/users", handler.DeleteUsers)

	authed.GET("/brands", handler.GetBrands)
	authed.GET("/brands/current", handler.GetCurrentBrand)
	authed.PATCH("/brands/info", handler.UpdateBrandInfo)
	authed.PATCH("/brands/logo", handler.UpdateBrandLogo)

	authed.POST("/plans/purchase", handler.PurchasePlan)

	// Tenant resources sit behind the subscription gate
	gated := authed.Group("", middleware.SubscriptionGate())

	gated.POST("/tables", handler.CreateTable)
	gated.GET("/tables", handler.GetTables)
	gated.PATCH("/tables/:id", handler.UpdateTable)
	gated.DELETE("/tables", handler.DeleteTables)

	gated.POST("/categories", handler.CreateCategory)
	gated.GET("/categories", handler.GetCategories)
	gated.PATCH("/categories/:id", handler.UpdateCategory)
	gated.DELETE("/categories", handler.DeleteCategories)

	gated.POST("/menu-items", handler.CreateMenuItem)
	gated.GET("/menu-items", handler.GetMenuItems)
	gated.PATCH("/menu-items/:id", handler.UpdateMenuItem)
	gated.DELETE("/menu-items", handler.DeleteMenuItems)

	gated.POST("/members", handler.CreateMember)
	gated.GET("/members", handler.GetMembers)
	gated.GET("/members/mobile/:mobile", handler.GetMemberByMobile)
	gated.PATCH("/members/:id", handler.UpdateMember)
	gated.DELETE("/members", handler.DeleteMembers)

	gated.POST("/staffs", handler.CreateStaff)
	gated.GET("/staffs", handler.GetStaffs)
	gated.GET("/staffs/:id/sell-record", handler.GetStaffSellRecord)
	gated.PATCH("/staffs/:id", handler.UpdateStaff)
	gated.DELETE("/staffs", handler.DeleteStaffs)

	gated.POST("/suppliers", handler.CreateSupplier)
	gated.GET("/suppliers", handler.GetSuppliers)
	gated.PATCH("/suppliers/:id", handler.UpdateSupplier)
	gated.DELETE("/suppliers", handler.DeleteSuppliers)

	gated.POST("/sold-invoices", handler.AddSoldInvoice)
	gated.GET("/sold-invoices", handler.GetSoldInvoices)
	gated.GET("/sold-invoices/:id", handler.GetSoldInvoice)

	// Start the server
	log.Info("Server listening", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
