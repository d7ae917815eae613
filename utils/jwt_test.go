package utils

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func init() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "editor@test.com", "catalog_editor", 0)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	if strings.Count(token, ".") != 2 {
		t.Errorf("expected JWT with 2 dots, got %q", token)
	}
}

func TestValidateToken(t *testing.T) {
	userID := uuid.New()
	email := "validate@test.com"
	role := "admin"

	token, err := GenerateToken(userID, email, role, time.Hour)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("expected no error validating token, got: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != email {
		t.Errorf("expected email %s, got %s", email, claims.Email)
	}
	if claims.Role != role {
		t.Errorf("expected role %s, got %s", role, claims.Role)
	}
	if claims.Issuer != TokenIssuer {
		t.Errorf("expected issuer %q, got %s", TokenIssuer, claims.Issuer)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	secret := os.Getenv("JWT_SECRET")

	claims := Claims{
		UserID: uuid.New(),
		Email:  "expired@test.com",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			Issuer:    TokenIssuer,
		},
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, err := tokenObj.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(expiredToken); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestTokenWithWrongSecretRejected(t *testing.T) {
	claims := Claims{
		UserID: uuid.New(),
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))

	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestTokenWithoutUserIDRejected(t *testing.T) {
	secret := os.Getenv("JWT_SECRET")
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))

	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected error for token without user id")
	}
}
