package handler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
)

var (
	mobilePattern = regexp.MustCompile(`^[0-9]{11}$`)
	letterPattern = regexp.MustCompile(`[A-Za-z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// normalizeName trims and lower-cases a name-like field for storage
// and comparison.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validateName checks a required name-like field against its length
// bounds after trimming.
func validateName(field, value string, min, max int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.BadRequest(fmt.Sprintf("%s is required", field))
	}
	if len(v) < min || len(v) > max {
		return "", apperr.BadRequest(fmt.Sprintf("%s must be between %d and %d characters", field, min, max))
	}
	return v, nil
}

// validateMobile requires exactly 11 digits.
func validateMobile(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.BadRequest("Mobile number is required")
	}
	if !mobilePattern.MatchString(v) {
		return "", apperr.BadRequest("Mobile number must be exactly 11 digits")
	}
	return v, nil
}

// validateEmail normalizes and checks an e-mail address.
func validateEmail(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", apperr.BadRequest("Email is required")
	}
	if !emailPattern.MatchString(v) {
		return "", apperr.BadRequest("Invalid email address")
	}
	return v, nil
}

// validatePassword enforces length and composition rules. Interior
// whitespace is rejected, not stripped, so two visually different
// passwords can never collapse into the same credential.
func validatePassword(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.BadRequest("Password is required")
	}
	if spacePattern.MatchString(v) {
		return "", apperr.BadRequest("Password must not contain spaces")
	}
	if len(v) < 8 || len(v) > 30 {
		return "", apperr.BadRequest("Password must be between 8 and 30 characters")
	}
	if !letterPattern.MatchString(v) || !digitPattern.MatchString(v) {
		return "", apperr.BadRequest("Password must contain at least one letter and one digit")
	}
	return v, nil
}

// validatePrice requires a positive price.
func validatePrice(value float64) error {
	if value <= 0 {
		return apperr.BadRequest("Price must be a positive number")
	}
	return nil
}
