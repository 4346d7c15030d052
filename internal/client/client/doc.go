// Package client contains the client-side view of the remote auth backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Backend interface) covering
//     credential login, registration, federated login, session restore
//     (Become), the locally cached current session, logout, password reset
//     requests, and a generic limited read (Query) used for reachability probes.
//  2. The User capability: the four accessors (ID, SessionToken, Username,
//     Email) the rest of the client relies on, and Account, its value type.
//  3. A concrete gRPC implementation (see GRPCBackend) that attaches the
//     current session token and installation id to every call and maps gRPC
//     status codes to sentinel errors.
//
// # Error Handling
//
// Backend failures are returned as *Error values that keep the provider
// message (callers pattern-match on it) and unwrap to one of the sentinel
// kinds: ErrUnavailable, ErrUnauthorized, ErrConflict, ErrNotFound, ErrBackend.
// The remaining sentinels (ErrValidation, ErrInvalidCredentials, ErrUsernameTaken,
// ErrEmailTaken, ErrAccountExists, ErrFederationData, ErrSessionExpired) are
// produced by the services layer when it classifies those failures.
//
// Concurrency & Contexts
//
// GRPCBackend is safe for concurrent use. All network operations accept
// context.Context and honor cancellation/timeouts.
package client
