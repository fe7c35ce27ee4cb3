package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"agencyblog/internal/db/dbtest"
	"agencyblog/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestResolve(t *testing.T) {
	a := NewJWTAdapter(testSecret, "agency-auth", nil)
	ctx := context.Background()
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	valid := signToken(t, testSecret, jwt.RegisteredClaims{Subject: "user-1", Issuer: "agency-auth", ExpiresAt: future})
	uid, err := a.Resolve(ctx, "Bearer "+valid)
	if err != nil || uid != "user-1" {
		t.Fatalf("Resolve = %q, %v", uid, err)
	}

	bad := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": signToken(t, "other", jwt.RegisteredClaims{Subject: "user-1", Issuer: "agency-auth", ExpiresAt: future}),
		"expired":      signToken(t, testSecret, jwt.RegisteredClaims{Subject: "user-1", Issuer: "agency-auth", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}),
		"no expiry":    signToken(t, testSecret, jwt.RegisteredClaims{Subject: "user-1", Issuer: "agency-auth"}),
		"no subject":   signToken(t, testSecret, jwt.RegisteredClaims{Issuer: "agency-auth", ExpiresAt: future}),
		"wrong issuer": signToken(t, testSecret, jwt.RegisteredClaims{Subject: "user-1", Issuer: "someone", ExpiresAt: future}),
	}
	for name, cred := range bad {
		if _, err := a.Resolve(ctx, cred); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
	}
}

func TestLookupProfile(t *testing.T) {
	conn := dbtest.New(t)
	if err := conn.Create(&models.User{ID: "user-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}).Error; err != nil {
		t.Fatal(err)
	}
	a := NewJWTAdapter(testSecret, "", NewGormDirectory(conn))
	ctx := context.Background()

	u, err := a.LookupProfile(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if u.FirstName != "Ada" || u.Email != "ada@example.com" {
		t.Errorf("unexpected profile %+v", u)
	}

	if _, err := a.LookupProfile(ctx, "ghost"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if _, err := a.LookupProfile(ctx, ""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for empty id, got %v", err)
	}
}
