// Package identity resolves callers from request credentials and looks up display profiles.
// The identity provider owns users; this package only reads.
package identity

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("profile unavailable")
)

// User is the provider's view of a person, trimmed to what the blog displays.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	ImageURL  string `json:"imageUrl"`
}

// Adapter is implemented by any identity provider (local JWT, OAuth, hosted auth).
type Adapter interface {
	// Resolve returns the user id behind credential, or ErrUnauthenticated.
	Resolve(ctx context.Context, credential string) (string, error)
	// LookupProfile returns the user's profile, or an error wrapping ErrUnavailable.
	LookupProfile(ctx context.Context, userID string) (*User, error)
}

// Directory is the read side of the provider's user records.
type Directory interface {
	FindUser(ctx context.Context, userID string) (*User, error)
}
