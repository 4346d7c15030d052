// Package logging defines the structured, context-aware logger used across
// the client. The only implementation wraps log/slog.
package logging

import "context"

// Logger takes variadic key-value pairs after the message:
//
//	log.Info(ctx, "login succeeded", "user", username)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
