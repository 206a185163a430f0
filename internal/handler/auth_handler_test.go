package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/pkg/database"
	"github.com/sajib9090/restaurant-management-backend/pkg/jwtutil"
)

func registerBody() map[string]string {
	return map[string]string{
		"name":       "Sajib Hossain",
		"brand_name": "Kacchi House",
		"email":      "Sajib@Example.COM",
		"mobile":     "01712345678",
		"password":   "secret1234",
	}
}

func TestRegisterCreatesBrandAndChairmanAtomically(t *testing.T) {
	mail := setup(t)
	db := database.GetDB()

	c, rec := request(http.MethodPost, "/api/v2/users/register", registerBody(), nil)
	if err := Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var users, brands int64
	if err := db.Model(&model.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if err := db.Model(&model.Brand{}).Count(&brands).Error; err != nil {
		t.Fatalf("count brands: %v", err)
	}
	if users != 1 || brands != 1 {
		t.Fatalf("expected exactly one user and one brand, got %d/%d", users, brands)
	}

	var user model.User
	if err := db.First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Role != string(authz.RoleChairman) {
		t.Fatalf("expected chairman role, got %q", user.Role)
	}
	if user.Email != "sajib@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.Username != "sajib" {
		t.Fatalf("expected username from email local part, got %q", user.Username)
	}
	if user.BrandID == "" {
		t.Fatal("expected user bound to the new brand")
	}
	if user.EmailVerified {
		t.Fatal("expected unverified email at registration")
	}
	if len(user.PasswordHistory) != 1 {
		t.Fatalf("expected password history seeded, got %d entries", len(user.PasswordHistory))
	}

	if mail.count() != 1 {
		t.Fatalf("expected exactly one verification email, got %d", mail.count())
	}
	if !strings.Contains(mail.sent[0].HTML, "verify-email?token=") {
		t.Fatal("expected verification link in email")
	}
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	setup(t)

	c, _ := request(http.MethodPost, "/api/v2/users/register", registerBody(), nil)
	if err := Register(c); err != nil {
		t.Fatalf("first register: %v", err)
	}

	body := registerBody()
	body["mobile"] = "01899999999" // email still collides
	c, _ = request(http.MethodPost, "/api/v2/users/register", body, nil)
	err := Register(c)
	if err == nil || apperr.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestLoginByAnyIdentifierAndUnverifiedResend(t *testing.T) {
	mail := setup(t)
	db := database.GetDB()

	c, _ := request(http.MethodPost, "/api/v2/users/register", registerBody(), nil)
	if err := Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if mail.count() != 1 {
		t.Fatalf("expected 1 email after registration, got %d", mail.count())
	}

	// Unverified login fails and re-sends the verification email.
	c, _ = request(http.MethodPost, "/api/v2/users/login",
		map[string]string{"username": "sajib", "password": "secret1234"}, nil)
	err := Login(c)
	if err == nil || apperr.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unverified login, got %v", err)
	}
	if mail.count() != 2 {
		t.Fatalf("expected re-sent verification email, got %d total", mail.count())
	}

	if err := db.Model(&model.User{}).Where("username = ?", "sajib").
		Update("email_verified", true).Error; err != nil {
		t.Fatalf("verify user: %v", err)
	}

	// Each identifier form works, normalized.
	for _, identifier := range []string{"sajib", "  SAJIB@example.com ", "01712345678"} {
		c, rec := request(http.MethodPost, "/api/v2/users/login",
			map[string]string{"username": identifier, "password": "secret1234"}, nil)
		if err := Login(c); err != nil {
			t.Fatalf("login with %q: %v", identifier, err)
		}
		body := decodeBody(t, rec)
		data := body["data"].(map[string]interface{})
		if token, _ := data["access_token"].(string); token == "" {
			t.Fatalf("expected access token for %q", identifier)
		}

		cookies := rec.Result().Cookies()
		var found bool
		for _, cookie := range cookies {
			if cookie.Name == "refresh_token" {
				found = true
				if !cookie.HttpOnly || !cookie.Secure {
					t.Fatal("refresh cookie must be http-only and secure")
				}
				if cookie.SameSite != http.SameSiteStrictMode {
					t.Fatal("refresh cookie must be same-site strict")
				}
			}
		}
		if !found {
			t.Fatalf("expected refresh cookie for %q", identifier)
		}
	}

	// Wrong password is rejected.
	c, _ = request(http.MethodPost, "/api/v2/users/login",
		map[string]string{"username": "sajib", "password": "wrongpass1"}, nil)
	err = Login(c)
	if err == nil || apperr.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %v", err)
	}
}

func TestBannedUserCannotLogin(t *testing.T) {
	setup(t)
	db := database.GetDB()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1234"), bcrypt.DefaultCost)
	user := model.User{
		UserID: "u1", Name: "x", BrandID: "brand-a",
		Email: "banned@example.com", Username: "banned", Mobile: "01700000000",
		Password: string(hash), Role: string(authz.RoleRegular),
		BannedUser: true, EmailVerified: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	c, _ := request(http.MethodPost, "/api/v2/users/login",
		map[string]string{"username": "banned", "password": "secret1234"}, nil)
	err := Login(c)
	if err == nil || apperr.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for banned user, got %v", err)
	}
}

func TestRefreshIssuesAccessTokenWithoutRotation(t *testing.T) {
	setup(t)
	db := database.GetDB()

	user := model.User{
		UserID: "u1", Name: "x", BrandID: "brand-a",
		Email: "a@example.com", Username: "a", Mobile: "01700000001",
		Role: string(authz.RoleAdmin), EmailVerified: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	refresh, err := jwtutil.GenerateRefreshToken(user.UserID, user.BrandID, user.Role)
	if err != nil {
		t.Fatalf("mint refresh: %v", err)
	}

	c, rec := request(http.MethodPost, "/api/v2/users/refresh-token", nil, nil)
	c.Request().AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh})
	if err := RefreshToken(c); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	token := data["access_token"].(string)
	claims, err := jwtutil.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate new access token: %v", err)
	}
	if claims.UserID != "u1" || claims.BrandID != "brand-a" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// No Set-Cookie: the refresh token is not rotated.
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "refresh_token" {
			t.Fatal("refresh token must not be rotated")
		}
	}

	// A revoked user cannot refresh.
	if err := db.Create(&model.RemovedUser{UserID: "u1", BrandID: "brand-a"}).Error; err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	c, _ = request(http.MethodPost, "/api/v2/users/refresh-token", nil, nil)
	c.Request().AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh})
	err = RefreshToken(c)
	if err == nil || apperr.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for revoked user, got %v", err)
	}
}

func TestVerifyEmailRedirects(t *testing.T) {
	setup(t)
	db := database.GetDB()

	user := model.User{
		UserID: "u1", Name: "x", BrandID: "brand-a",
		Email: "v@example.com", Username: "v", Mobile: "01700000002",
		Role: string(authz.RoleChairman),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	token, err := jwtutil.GenerateVerifyToken("u1")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	c, rec := request(http.MethodGet, "/api/v2/users/verify-email?token="+token, nil, nil)
	if err := VerifyEmail(c); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "http://app.test/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}

	var verified model.User
	if err := db.Where("user_id = ?", "u1").First(&verified).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !verified.EmailVerified {
		t.Fatal("expected email_verified after redirect")
	}

	// Expired tokens land on the distinct expired-credentials page.
	jwtutil.Initialize(&jwtutil.JWTConfig{
		AccessSecret: "test-access", RefreshSecret: "test-refresh", VerifySecret: "test-verify",
		AccessTTL: 10 * time.Minute, RefreshTTL: 7 * 24 * time.Hour, VerifyTTL: -time.Minute,
	})
	expired, err := jwtutil.GenerateVerifyToken("u1")
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}

	c, rec = request(http.MethodGet, "/api/v2/users/verify-email?token="+expired, nil, nil)
	if err := VerifyEmail(c); err != nil {
		t.Fatalf("verify expired: %v", err)
	}
	if loc := rec.Header().Get("Location"); loc != "http://app.test/expired-credentials" {
		t.Fatalf("expected expired-credentials redirect, got %q", loc)
	}
}

func TestGetUserScopedToBrand(t *testing.T) {
	setup(t)
	db := database.GetDB()

	users := []model.User{
		{UserID: "u-a", Name: "alpha", BrandID: "brand-a",
			Email: "a1@example.com", Username: "a1", Mobile: "01700000010",
			Role: string(authz.RoleRegular)},
		{UserID: "u-b", Name: "beta", BrandID: "brand-b",
			Email: "b1@example.com", Username: "b1", Mobile: "01700000011",
			Role: string(authz.RoleRegular)},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	admin := principal("admin-a", "brand-a", authz.RoleAdmin)

	c, rec := request(http.MethodGet, "/api/v2/users/u-a", nil, admin)
	c.SetParamNames("id")
	c.SetParamValues("u-a")
	if err := GetUser(c); err != nil {
		t.Fatalf("get user: %v", err)
	}
	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	if data["user_id"] != "u-a" {
		t.Fatalf("expected u-a, got %v", data["user_id"])
	}

	// Another brand's user is invisible, not forbidden.
	c, _ = request(http.MethodGet, "/api/v2/users/u-b", nil, admin)
	c.SetParamNames("id")
	c.SetParamValues("u-b")
	err := GetUser(c)
	if err == nil || apperr.Status(err) != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-brand lookup, got %v", err)
	}

	// Regular users cannot inspect other accounts.
	regular := principal("reg-a", "brand-a", authz.RoleRegular)
	c, _ = request(http.MethodGet, "/api/v2/users/u-a", nil, regular)
	c.SetParamNames("id")
	c.SetParamValues("u-a")
	err = GetUser(c)
	if err == nil || apperr.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for regular role, got %v", err)
	}
}

func TestChangePasswordHistory(t *testing.T) {
	setup(t)
	db := database.GetDB()

	hash, _ := bcrypt.GenerateFromPassword([]byte("original12"), bcrypt.DefaultCost)
	user := model.User{
		UserID: "u1", Name: "x", BrandID: "brand-a",
		Email: "p@example.com", Username: "p", Mobile: "01700000003",
		Password: string(hash), PasswordHistory: []string{string(hash)},
		Role: string(authz.RoleRegular), EmailVerified: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	p := principal("u1", "brand-a", authz.RoleRegular)

	change := func(old, new string) error {
		c, _ := request(http.MethodPatch, "/api/v2/users/change-password",
			map[string]string{"old_password": old, "new_password": new}, p)
		return ChangePassword(c)
	}

	// Wrong old password.
	if err := change("nope", "different1"); err == nil || apperr.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong old password, got %v", err)
	}

	if err := change("original12", "second9pass"); err != nil {
		t.Fatalf("first change: %v", err)
	}
	if err := change("second9pass", "third8pass"); err != nil {
		t.Fatalf("second change: %v", err)
	}

	// Reusing any of the last three hashes is rejected.
	if err := change("third8pass", "original12"); err == nil || apperr.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected reuse rejection, got %v", err)
	}

	var reloaded model.User
	if err := db.Where("user_id = ?", "u1").First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.PasswordHistory) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(reloaded.PasswordHistory))
	}
}
