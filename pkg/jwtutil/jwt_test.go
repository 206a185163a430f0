package jwtutil

import (
	"testing"
	"time"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		VerifySecret:  "verify-secret",
		AccessTTL:     10 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		VerifyTTL:     5 * time.Minute,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	util := NewJWTUtil(testConfig())

	token, err := util.GenerateAccessToken("u1", "b1", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := util.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.BrandID != "b1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	util := NewJWTUtil(testConfig())

	access, err := util.GenerateAccessToken("u1", "b1", "admin")
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	refresh, err := util.GenerateRefreshToken("u1", "b1", "admin")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	if _, err := util.ValidateRefreshToken(access); err == nil {
		t.Fatal("access token must not validate as refresh token")
	}
	if _, err := util.ValidateAccessToken(refresh); err == nil {
		t.Fatal("refresh token must not validate as access token")
	}

	other := NewJWTUtil(&JWTConfig{AccessSecret: "different", AccessTTL: time.Minute})
	if _, err := other.ValidateAccessToken(access); err == nil {
		t.Fatal("token must not validate under a different secret")
	}
}

func TestExpiredTokenDetected(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = -time.Minute
	util := NewJWTUtil(cfg)

	token, err := util.GenerateAccessToken("u1", "b1", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = util.ValidateAccessToken(token)
	if err == nil {
		t.Fatal("expected expiry error")
	}
	if !IsExpired(err) {
		t.Fatalf("expected IsExpired, got %v", err)
	}

	// A bad signature is not reported as expiry.
	other := NewJWTUtil(&JWTConfig{AccessSecret: "different", AccessTTL: time.Minute})
	good, err := other.GenerateAccessToken("u1", "b1", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, err = util.ValidateAccessToken(good)
	if err == nil || IsExpired(err) {
		t.Fatalf("expected non-expiry validation error, got %v", err)
	}
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	util := NewJWTUtil(testConfig())

	token, err := util.GenerateVerifyToken("u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	userID, err := util.ValidateVerifyToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected u1, got %q", userID)
	}
}

func TestPackageLevelRequiresInitialize(t *testing.T) {
	defaultUtil = nil
	if _, err := GenerateAccessToken("u1", "b1", "admin"); err == nil {
		t.Fatal("expected error before Initialize")
	}
	if RefreshTTL() != 0 {
		t.Fatal("expected zero TTL before Initialize")
	}

	Initialize(testConfig())
	token, err := GenerateAccessToken("u1", "b1", "admin")
	if err != nil {
		t.Fatalf("generate after init: %v", err)
	}
	if _, err := ValidateAccessToken(token); err != nil {
		t.Fatalf("validate after init: %v", err)
	}
	if RefreshTTL() != 7*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %v", RefreshTTL())
	}
}
