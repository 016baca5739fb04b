package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "CLIENT")

	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)

	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}

	if claims.UserID != "user-1" || claims.Role != "CLIENT" {
		t.Fatalf("claims = %+v, want user-1/CLIENT", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := NewManager("secret-a", time.Hour)
	other := NewManager("secret-b", time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "CLIENT")

	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := other.VerifyAccessToken(raw); err == nil {
		t.Fatal("expected verification to fail with the wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	raw, err := m.GenerateAccessToken("user-1", "CLIENT")

	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := m.VerifyAccessToken(raw); err == nil {
		t.Fatal("expected verification of an expired token to fail")
	}
}
