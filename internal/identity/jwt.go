package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAdapter validates HS256 bearer tokens and takes the user id from the "sub" claim.
type JWTAdapter struct {
	secret    []byte
	issuer    string
	directory Directory
}

func NewJWTAdapter(secret, issuer string, directory Directory) *JWTAdapter {
	return &JWTAdapter{secret: []byte(secret), issuer: issuer, directory: directory}
}

func (a *JWTAdapter) Resolve(_ context.Context, credential string) (string, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if credential == "" {
		return "", ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", ErrUnauthenticated
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrUnauthenticated
	}
	return claims.Subject, nil
}

func (a *JWTAdapter) LookupProfile(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, ErrUnavailable
	}
	u, err := a.directory.FindUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return u, nil
}
