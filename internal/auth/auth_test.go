package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager("0123456789abcdef0123456789abcdef")

	token, err := manager.GenerateToken("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("unexpected user id: %s", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("unexpected email: %s", claims.Email)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("0123456789abcdef0123456789abcdef")
	other := NewJWTManager("fedcba9876543210fedcba9876543210")

	token, err := manager.GenerateToken("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	manager := NewJWTManager("0123456789abcdef0123456789abcdef")

	token, err := manager.GenerateToken("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	tampered := token[:len(token)-4] + "xxxx"
	if _, err := manager.ValidateToken(tampered); err == nil {
		t.Error("expected validation to fail for a tampered token")
	}
}

func TestValidatePassword(t *testing.T) {
	valid := []string{"secret12", "a1b2c3d4", "pässwort1"}
	for _, p := range valid {
		if err := ValidatePassword(p); err != nil {
			t.Errorf("ValidatePassword(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{"", "ab1", "short1", "12345678", "password", "!!!!!!!!"}
	for _, p := range invalid {
		if err := ValidatePassword(p); err == nil {
			t.Errorf("ValidatePassword(%q) = nil, want error", p)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret12")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret12" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if !CheckPassword(hash, "secret12") {
		t.Error("CheckPassword rejected the correct password")
	}
	if CheckPassword(hash, "secret13") {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := ExtractToken(r); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := ExtractToken(r); got != "header-token" {
		t.Errorf("header token not extracted, got %q", got)
	}
}

func TestExtractTokenPrefersHeaderOverCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	r.Header.Set("Cookie", SessionCookie+"=cookie-token")

	if got := ExtractToken(r); got != "header-token" {
		t.Errorf("expected header token to win, got %q", got)
	}

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Cookie", SessionCookie+"=cookie-token")
	if got := ExtractToken(r); got != "cookie-token" {
		t.Errorf("expected cookie fallback, got %q", got)
	}

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Basic "+strings.Repeat("x", 10))
	if got := ExtractToken(r); got != "" {
		t.Errorf("non-bearer scheme must not yield a token, got %q", got)
	}
}
