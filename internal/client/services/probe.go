package services

import "context"

// ConnectionTestCollection is read by the reachability probe. It does not
// need to exist on the server with any rows.
const ConnectionTestCollection = "ConnectionTest"

// CheckBackendConnection reads at most one row. Any response, empty included,
// means reachable; every failure reports false.
func (a *authService) CheckBackendConnection(ctx context.Context) bool {
	if _, err := a.backend.Query(ctx, ConnectionTestCollection, 1); err != nil {
		a.log.Debug(ctx, "backend probe failed", "error", err)
		return false
	}
	return true
}
