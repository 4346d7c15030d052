package coordinator

import "context"

type ctxKey struct{}

// WithCoordinator returns a child context carrying c.
func WithCoordinator(ctx context.Context, c *Coordinator) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the coordinator stored by WithCoordinator. It panics
// when there is none: reaching auth state outside a coordinator scope is a
// programming error.
func FromContext(ctx context.Context) *Coordinator {
	c, ok := ctx.Value(ctxKey{}).(*Coordinator)
	if !ok || c == nil {
		panic("coordinator: FromContext used outside WithCoordinator scope")
	}
	return c
}
