package handler

import (
	"strings"
	"testing"
)

func TestValidateMobile(t *testing.T) {
	if _, err := validateMobile(" 01712345678 "); err != nil {
		t.Fatalf("trimmed 11 digits must pass: %v", err)
	}
	for _, bad := range []string{"", "0171234567", "017123456789", "0171234567a", "+8801712345"} {
		if _, err := validateMobile(bad); err == nil {
			t.Errorf("expected rejection for %q", bad)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	got, err := validatePassword("  secret1234  ")
	if err != nil {
		t.Fatalf("surrounding whitespace must be trimmed: %v", err)
	}
	if got != "secret1234" {
		t.Fatalf("expected trimmed password, got %q", got)
	}

	// Interior whitespace is rejected so "pass word1" and "password1"
	// stay distinct credentials.
	for _, bad := range []string{"sec ret1234", "pass\tword12", "sec ret 1234"} {
		if _, err := validatePassword(bad); err == nil {
			t.Errorf("expected rejection for %q", bad)
		}
	}

	for _, bad := range []string{"", "short1", "passwordonly", "12345678", "a1" + strings.Repeat("x", 40)} {
		if _, err := validatePassword(bad); err == nil {
			t.Errorf("expected rejection for %q", bad)
		}
	}
}

func TestValidateEmailNormalizes(t *testing.T) {
	got, err := validateEmail("  User@Example.COM ")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got != "user@example.com" {
		t.Fatalf("expected lowercased email, got %q", got)
	}
	for _, bad := range []string{"", "no-at-sign", "a@b", "sp ace@example.com"} {
		if _, err := validateEmail(bad); err == nil {
			t.Errorf("expected rejection for %q", bad)
		}
	}
}

func TestValidateNameBounds(t *testing.T) {
	if _, err := validateName("Name", "  ok name  ", 3, 30); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, bad := range []string{"", "ab", strings.Repeat("x", 31)} {
		if _, err := validateName("Name", bad, 3, 30); err == nil {
			t.Errorf("expected rejection for %q", bad)
		}
	}
}
