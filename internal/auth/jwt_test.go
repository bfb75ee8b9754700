package auth

import (
	"testing"
	"time"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "roomview",
		Audience: "roomview",
		TTL:      time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "u1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != "u1" {
		t.Errorf("expected user id u1, got %q", claims.UserID)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "u1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	other := testConfig()
	other.Secret = []byte("different-secret")
	if _, err := ValidateToken(other, token); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	cfg := testConfig()
	cfg.Issuer = "someone-else"

	token, err := GenerateToken(cfg, "u1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(testConfig(), token); err == nil {
		t.Fatal("expected validation failure with wrong issuer")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = -time.Minute

	token, err := GenerateToken(cfg, "u1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(cfg, token); err == nil {
		t.Fatal("expected validation failure for expired token")
	}
}

func TestValidateRejectsEmptyUserID(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(cfg, token); err == nil {
		t.Fatal("expected validation failure for empty user id")
	}
}
