package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/pkg/jwtutil"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

const principalKey = "principal"

// Authenticate extracts the Bearer token from the Authorization
// header, verifies it, and stores the principal in the request
// context. Missing or invalid tokens yield 401.
func Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			prometheus.RecordAuthError("missing_token")
			return apperr.Unauthenticated("Authentication required")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			prometheus.RecordAuthError("malformed_header")
			return apperr.Unauthenticated("Invalid authorization header")
		}

		claims, err := jwtutil.ValidateAccessToken(parts[1])
		if err != nil {
			if jwtutil.IsExpired(err) {
				prometheus.RecordAuthError("expired_token")
				return apperr.Unauthenticated("Access token expired")
			}
			prometheus.RecordAuthError("invalid_token")
			return apperr.Unauthenticated("Invalid access token")
		}

		role, err := authz.ParseRole(claims.Role)
		if err != nil {
			prometheus.RecordAuthError("unknown_role")
			return apperr.Unauthenticated("Invalid access token")
		}

		c.Set(principalKey, &authz.Principal{
			UserID:  claims.UserID,
			BrandID: claims.BrandID,
			Role:    role,
		})
		return next(c)
	}
}

// PrincipalFromEcho returns the principal stored by Authenticate, or
// nil when the request is unauthenticated.
func PrincipalFromEcho(c echo.Context) *authz.Principal {
	p, ok := c.Get(principalKey).(*authz.Principal)
	if !ok {
		return nil
	}
	return p
}

// SetPrincipal stores a principal in the request context. Exposed for
// tests.
func SetPrincipal(c echo.Context, p *authz.Principal) {
	c.Set(principalKey, p)
}
