// Package authtest signs access tokens the way the identity service does, so
// tests can call authenticated routes.
package authtest

import (
	"testing"
	"time"

	"foodorder-be/internal/auth"

	"github.com/golang-jwt/jwt/v5"
)

// Token returns an HS256 token for id that expires in a day.
func Token(t testing.TB, secret, id, firstName, role string) string {
	t.Helper()
	now := time.Now()
	claims := auth.Claims{
		ID:        id,
		FirstName: firstName,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}
