package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/pkg/database"
	"github.com/sajib9090/restaurant-management-backend/pkg/jwtutil"
	"github.com/sajib9090/restaurant-management-backend/pkg/logger"
	"github.com/sajib9090/restaurant-management-backend/pkg/mailer"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

const refreshCookieName = "refresh_token"

// sendVerificationEmail issues a verification token and mails the
// confirmation link. Failures are logged, never propagated: the
// triggering action must not roll back over a mail outage.
func sendVerificationEmail(c echo.Context, user *model.User) {
	log := logger.FromEcho(c)

	token, err := jwtutil.GenerateVerifyToken(user.UserID)
	if err != nil {
		log.Error("Failed to generate verification token", zap.Error(err))
		return
	}

	link := fmt.Sprintf("%s/api/v2/users/verify-email?token=%s", cfg.URLs.ClientURL, token)
	err = mail.Send(mailer.Email{
		To:      user.Email,
		Subject: "Verify your email address",
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>Please confirm your email address within 5 minutes:</p><p><a href="%s">Verify email</a></p>`,
			user.Name, link,
		),
	})
	if err != nil {
		log.Error("Failed to send verification email", zap.Error(err))
		return
	}
	log.Info("Verification email sent", zap.String("user_id", user.UserID))
}

// Register creates a brand and its chairman user in one transaction
// and sends a single verification email.
func Register(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var req struct {
		Name      string `json:"name"`
		BrandName string `json:"brand_name"`
		Email     string `json:"email"`
		Mobile    string `json:"mobile"`
		Password  string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Name", req.Name, 3, 30)
	if err != nil {
		return err
	}
	name = normalizeName(name)
	brandName, err := validateName("Brand name", req.BrandName, 2, 100)
	if err != nil {
		return err
	}
	brandName = normalizeName(brandName)
	email, err := validateEmail(req.Email)
	if err != nil {
		return err
	}
	mobile, err := validateMobile(req.Mobile)
	if err != nil {
		return err
	}
	password, err := validatePassword(req.Password)
	if err != nil {
		return err
	}

	username := strings.ToLower(strings.Split(email, "@")[0])

	db := database.GetDB()
	var dup int64
	err = db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR username = ? OR mobile = ?", email, username, mobile).
		Count(&dup).Error
	if err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("User already exists with this email, username or mobile")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal(err)
	}

	var user model.User
	defer prometheus.TrackDBOperation("register")(time.Now())

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var brandCount int64
		if err := tx.Model(&model.Brand{}).Count(&brandCount).Error; err != nil {
			return err
		}
		brand := model.Brand{
			BrandID: model.NewUserID(brandCount),
			Name:    brandName,
		}
		if err := tx.Create(&brand).Error; err != nil {
			return err
		}

		var userCount int64
		if err := tx.Model(&model.User{}).Count(&userCount).Error; err != nil {
			return err
		}
		user = model.User{
			UserID:          model.NewUserID(userCount),
			Name:            name,
			BrandID:         brand.BrandID,
			Email:           email,
			Username:        username,
			Mobile:          mobile,
			Password:        string(hash),
			PasswordHistory: []string{string(hash)},
			Role:            string(authz.RoleChairman),
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		log.Error("Registration failed", zap.Error(err))
		return apperr.Internal(err)
	}

	sendVerificationEmail(c, &user)

	prometheus.UserRegistrationCounter.Inc()
	prometheus.BrandRegistrationCounter.Inc()
	return created(c, "Registration successful, please verify your email", echo.Map{
		"user_id":  user.UserID,
		"brand_id": user.BrandID,
		"email":    user.Email,
		"username": user.Username,
	})
}

// VerifyEmail confirms a user's email address from the mailed link.
// Expired tokens redirect to the distinct expired-credentials page so
// the frontend can offer a re-send.
func VerifyEmail(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	token := c.QueryParam("token")
	if token == "" {
		return apperr.BadRequest("Verification token is required")
	}

	userID, err := jwtutil.ValidateVerifyToken(token)
	if err != nil {
		if jwtutil.IsExpired(err) {
			prometheus.EmailVerificationCounter.With(map[string]string{"result": "expired"}).Inc()
			return c.Redirect(http.StatusFound, cfg.URLs.FrontendURL+"/expired-credentials")
		}
		prometheus.EmailVerificationCounter.With(map[string]string{"result": "invalid"}).Inc()
		return apperr.BadRequest("Invalid verification token")
	}

	db := database.GetDB()
	var user model.User
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return apperr.NotFound("User not found")
	}

	if !user.EmailVerified {
		err = db.WithContext(ctx).Model(&user).Update("email_verified", true).Error
		if err != nil {
			log.Error("Failed to mark email verified", zap.Error(err))
			return apperr.Internal(err)
		}
	}

	prometheus.EmailVerificationCounter.With(map[string]string{"result": "verified"}).Inc()
	return c.Redirect(http.StatusFound, cfg.URLs.FrontendURL+"/login")
}

// Login authenticates by username, email or mobile and issues the
// token pair. Unverified accounts get a fresh verification email and a
// failed login.
func Login(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var req struct {
		Identifier string `json:"username"`
		Password   string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	identifier := strings.ToLower(strings.TrimSpace(req.Identifier))
	if identifier == "" || req.Password == "" {
		return apperr.BadRequest("Username and password are required")
	}

	db := database.GetDB()
	var user model.User
	err := db.WithContext(ctx).
		Where("username = ? OR email = ? OR mobile = ?", identifier, identifier, identifier).
		First(&user).Error
	if err != nil {
		prometheus.RecordLogin("failed")
		prometheus.RecordAuthError("user_not_found")
		return apperr.Unauthenticated("Invalid credentials")
	}

	if user.BannedUser {
		prometheus.RecordLogin("banned")
		return apperr.Forbidden("Your account has been banned")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		prometheus.RecordLogin("failed")
		prometheus.RecordAuthError("invalid_password")
		return apperr.Unauthenticated("Invalid credentials")
	}

	if !user.EmailVerified {
		sendVerificationEmail(c, &user)
		prometheus.RecordLogin("unverified")
		return apperr.Unauthenticated("Email not verified, a new verification email has been sent")
	}

	accessToken, err := jwtutil.GenerateAccessToken(user.UserID, user.BrandID, user.Role)
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		return apperr.Internal(err)
	}
	refreshToken, err := jwtutil.GenerateRefreshToken(user.UserID, user.BrandID, user.Role)
	if err != nil {
		log.Error("Failed to generate refresh token", zap.Error(err))
		return apperr.Internal(err)
	}

	setRefreshCookie(c, refreshToken)

	prometheus.RecordLogin("success")
	return ok(c, "Login successful", echo.Map{
		"user":         user,
		"access_token": accessToken,
	})
}

// RefreshToken exchanges a valid refresh cookie for a new access
// token. The refresh token is not rotated.
func RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		prometheus.RecordAuthError("missing_refresh_token")
		return apperr.Unauthenticated("Refresh token is required")
	}

	claims, err := jwtutil.ValidateRefreshToken(cookie.Value)
	if err != nil {
		if jwtutil.IsExpired(err) {
			prometheus.RecordAuthError("expired_refresh_token")
			return apperr.Unauthenticated("Refresh token expired, please log in again")
		}
		prometheus.RecordAuthError("invalid_refresh_token")
		return apperr.Unauthenticated("Invalid refresh token")
	}

	db := database.GetDB()
	var user model.User
	if err := db.WithContext(ctx).Where("user_id = ?", claims.UserID).First(&user).Error; err != nil {
		return apperr.Unauthenticated("Invalid refresh token")
	}
	if user.BannedUser {
		return apperr.Forbidden("Your account has been banned")
	}

	revoked, err := authorizer.IsRevoked(ctx, user.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	if revoked {
		prometheus.RevokedAccessCounter.Inc()
		return apperr.Forbidden("Access revoked")
	}

	accessToken, err := jwtutil.GenerateAccessToken(user.UserID, user.BrandID, user.Role)
	if err != nil {
		return apperr.Internal(err)
	}

	prometheus.TokensRefreshedCounter.Inc()
	return ok(c, "Token refreshed successfully", echo.Map{
		"access_token": accessToken,
	})
}

// Logout clears the refresh cookie.
func Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	return ok(c, "Logout successful", nil)
}

func setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(jwtutil.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
