package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/pkg/database"
	"github.com/sajib9090/restaurant-management-backend/pkg/logger"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

// SubscriptionGate blocks tenant operations when the brand's plan has
// lapsed or was never selected. Expiry is detected lazily at request
// time: the first request past end_time persists the status flip, and
// the conditional update keeps the flip idempotent under concurrent
// requests. super_admin bypasses the gate.
func SubscriptionGate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromEcho(c)
			if p == nil {
				return apperr.Unauthenticated("Authentication required")
			}
			if p.Role == authz.RoleSuperAdmin {
				return next(c)
			}

			db := database.GetDB()
			ctx := c.Request().Context()

			var brand model.Brand
			err := db.WithContext(ctx).Where("brand_id = ?", p.BrandID).First(&brand).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return apperr.NotFound("Brand not found")
				}
				return apperr.Internal(err)
			}

			sub := brand.SubscriptionInfo
			if sub.EndTime != nil && sub.EndTime.Before(time.Now()) {
				if sub.Status {
					res := db.WithContext(ctx).
						Model(&model.Brand{}).
						Where("brand_id = ? AND sub_status = ?", p.BrandID, true).
						Update("sub_status", false)
					if res.Error != nil {
						return apperr.Internal(res.Error)
					}
					if res.RowsAffected > 0 {
						logger.FromEcho(c).Info("Subscription expired",
							zap.String("brand_id", p.BrandID),
						)
					}
				}
				prometheus.SubscriptionDenialCounter.Inc()
				return apperr.SubscriptionRequired("Subscription expired, please renew your plan")
			}

			if !sub.Status {
				prometheus.SubscriptionDenialCounter.Inc()
				return apperr.SubscriptionRequired("No active subscription plan, please purchase a plan")
			}

			return next(c)
		}
	}
}
