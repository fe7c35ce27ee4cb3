package services

import (
	"errors"
	"fmt"
)

// Caller-visible error kinds. Anything else reaching a handler is an internal error.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("not found")
	ErrSelfLike        = errors.New("cannot like your own comment")
)

// DomainError carries the message shown to the caller. errors.Is matches on Kind.
type DomainError struct {
	Kind    error
	Field   string
	Message string
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Kind }

func invalid(field, message string) error {
	return &DomainError{Kind: ErrValidation, Field: field, Message: message}
}

func unauthenticated() error {
	return &DomainError{Kind: ErrUnauthenticated, Message: "sign in to continue"}
}

func notFound(what string) error {
	return &DomainError{Kind: ErrNotFound, Message: what + " not found"}
}

func selfLike() error {
	return &DomainError{Kind: ErrSelfLike, Message: "you cannot like your own comment"}
}
