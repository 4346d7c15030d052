package client

import "errors"

// Transport-level kinds, set by GRPCBackend.
var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrBackend      = errors.New("backend error")
)

// Classified kinds, set by the services layer.
var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username taken")
	ErrEmailTaken         = errors.New("email taken")
	ErrAccountExists      = errors.New("account exists")
	ErrFederationData     = errors.New("federation data error")
	ErrSessionExpired     = errors.New("session expired")
	ErrNoUser             = errors.New("no current user")
)

// Error is a backend failure. Error() returns the provider message unchanged.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" && e.Kind != nil {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }
