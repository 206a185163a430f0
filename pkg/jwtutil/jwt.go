package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTConfig holds the signing secrets and token lifetimes. Access,
// refresh, and e-mail verification tokens are signed with separate
// secrets.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	VerifySecret  string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	VerifyTTL     time.Duration
}

// UserClaims represents the JWT claims carried by access and refresh
// tokens. BrandID is empty only for the brand-less super_admin.
type UserClaims struct {
	UserID  string `json:"user_id"`
	BrandID string `json:"brand_id,omitempty"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// VerifyClaims represents the claims of the short-lived e-mail
// verification token.
type VerifyClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{config: config}
}

// GenerateAccessToken creates a short-lived access token carrying the
// principal's identity.
func (j *JWTUtil) GenerateAccessToken(userID, brandID, role string) (string, error) {
	return j.generateUserToken(userID, brandID, role, j.config.AccessSecret, j.config.AccessTTL)
}

// GenerateRefreshToken creates the long-lived refresh token with the
// same claims as the access token.
func (j *JWTUtil) GenerateRefreshToken(userID, brandID, role string) (string, error) {
	return j.generateUserToken(userID, brandID, role, j.config.RefreshSecret, j.config.RefreshTTL)
}

func (j *JWTUtil) generateUserToken(userID, brandID, role, secret string, ttl time.Duration) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := UserClaims{
		UserID:  userID,
		BrandID: brandID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates and parses an access token
func (j *JWTUtil) ValidateAccessToken(tokenString string) (*UserClaims, error) {
	return j.validateUserToken(tokenString, j.config.AccessSecret)
}

// ValidateRefreshToken validates and parses a refresh token
func (j *JWTUtil) ValidateRefreshToken(tokenString string) (*UserClaims, error) {
	return j.validateUserToken(tokenString, j.config.RefreshSecret)
}

func (j *JWTUtil) validateUserToken(tokenString, secret string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// GenerateVerifyToken creates the time-limited e-mail verification
// token for the given user.
func (j *JWTUtil) GenerateVerifyToken(userID string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := VerifyClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.config.VerifyTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.VerifySecret))
}

// ValidateVerifyToken validates an e-mail verification token and
// returns the user id it was issued for.
func (j *JWTUtil) ValidateVerifyToken(tokenString string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&VerifyClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.VerifySecret), nil
		},
	)
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*VerifyClaims); ok && token.Valid {
		return claims.UserID, nil
	}

	return "", errors.New("invalid token")
}

// IsExpired reports whether a token validation error was caused by
// expiry rather than a bad signature or malformed token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

// Default instance used by the package-level functions below.
var defaultUtil *JWTUtil

// Initialize sets up the default JWT utility with the given
// configuration.
func Initialize(config *JWTConfig) {
	defaultUtil = NewJWTUtil(config)
}

var errNotInitialized = errors.New("jwtutil is not initialized")

// GenerateAccessToken creates an access token using the default utility.
func GenerateAccessToken(userID, brandID, role string) (string, error) {
	if defaultUtil == nil {
		return "", errNotInitialized
	}
	return defaultUtil.GenerateAccessToken(userID, brandID, role)
}

// GenerateRefreshToken creates a refresh token using the default utility.
func GenerateRefreshToken(userID, brandID, role string) (string, error) {
	if defaultUtil == nil {
		return "", errNotInitialized
	}
	return defaultUtil.GenerateRefreshToken(userID, brandID, role)
}

// ValidateAccessToken validates an access token using the default utility.
func ValidateAccessToken(tokenString string) (*UserClaims, error) {
	if defaultUtil == nil {
		return nil, errNotInitialized
	}
	return defaultUtil.ValidateAccessToken(tokenString)
}

// ValidateRefreshToken validates a refresh token using the default utility.
func ValidateRefreshToken(tokenString string) (*UserClaims, error) {
	if defaultUtil == nil {
		return nil, errNotInitialized
	}
	return defaultUtil.ValidateRefreshToken(tokenString)
}

// GenerateVerifyToken creates a verification token using the default utility.
func GenerateVerifyToken(userID string) (string, error) {
	if defaultUtil == nil {
		return "", errNotInitialized
	}
	return defaultUtil.GenerateVerifyToken(userID)
}

// ValidateVerifyToken validates a verification token using the default utility.
func ValidateVerifyToken(tokenString string) (string, error) {
	if defaultUtil == nil {
		return "", errNotInitialized
	}
	return defaultUtil.ValidateVerifyToken(tokenString)
}

// RefreshTTL reports the configured refresh token lifetime, used for
// the cookie max-age.
func RefreshTTL() time.Duration {
	if defaultUtil == nil {
		return 0
	}
	return defaultUtil.config.RefreshTTL
}
