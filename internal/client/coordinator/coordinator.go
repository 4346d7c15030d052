// Package coordinator owns the single auth state of a running client. It
// restores a persisted session on boot, runs every auth transition through
// the services layer, feeds the outcome to authstate.Reduce and writes the
// signed-in session back to storage.
package coordinator

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/client/authstate"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/storage"
	"github.com/dmitrijs2005/gophauth/internal/client/validation"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// SessionStore is the part of storage.SessionStore the coordinator needs.
type SessionStore interface {
	Token() string
	Session() (storage.Session, bool)
	SaveSession(ctx context.Context, token string, s storage.Session) error
	ClearSession(ctx context.Context) error
}

var _ SessionStore = (*storage.SessionStore)(nil)

// Snapshot is the published, read-only view of the auth state.
type Snapshot struct {
	authstate.State
	IsAuthenticated bool
}

// Coordinator is safe for concurrent use. Transitions are expected to be
// serialized by the caller (one submit at a time); state updates themselves
// are atomic.
type Coordinator struct {
	svc   services.AuthService
	store SessionStore
	log   logging.Logger

	mu    sync.Mutex
	state authstate.State
	subs  map[int]chan Snapshot
	next  int
}

func New(svc services.AuthService, store SessionStore, log logging.Logger) *Coordinator {
	return &Coordinator{
		svc:   svc,
		store: store,
		log:   log.With("component", "coordinator"),
		subs:  make(map[int]chan Snapshot),
	}
}

// State returns the current snapshot.
func (c *Coordinator) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshotOf(c.state)
}

func snapshotOf(s authstate.State) Snapshot {
	return Snapshot{State: s, IsAuthenticated: s.IsAuthenticated()}
}

// Subscribe returns a channel that receives the latest snapshot after every
// dispatch. A slow reader only misses intermediate snapshots, never the most
// recent one. cancel closes the channel.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (c *Coordinator) dispatch(actions ...authstate.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range actions {
		c.state = authstate.Reduce(c.state, a)
	}
	snap := snapshotOf(c.state)
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// drop the stale value and publish the fresh one
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// Boot restores a persisted session, then re-syncs from the backend's cached
// user. Failures are healed silently: an unusable token is erased.
func (c *Coordinator) Boot(ctx context.Context) {
	c.restore(ctx)
	c.CheckCurrentUser(ctx)
}

func (c *Coordinator) restore(ctx context.Context) {
	token := c.store.Token()
	_, hasSession := c.store.Session()

	switch {
	case token == "" && !hasSession:
		return
	case token == "" || !hasSession:
		c.log.Info(ctx, "discarding partial persisted session")
		c.clearPersisted(ctx)
		return
	}

	if cached, err := c.svc.FetchCurrentUser(ctx); err == nil && cached != nil && cached.SessionToken() == token {
		c.log.Debug(ctx, "adopting cached user", "user", cached.Username())
		c.dispatch(authstate.SetCurrentUser{User: cached})
		return
	}

	u, err := c.svc.RestoreSession(ctx, token)
	if err != nil {
		c.log.Info(ctx, "persisted session rejected, clearing", "error", err)
		c.clearPersisted(ctx)
		return
	}
	c.dispatch(authstate.SetToken{Token: token}, authstate.SetCurrentUser{User: u})
	c.persist(ctx, u)
}

// CheckCurrentUser adopts and persists the backend's cached user, if any.
func (c *Coordinator) CheckCurrentUser(ctx context.Context) client.User {
	u, err := c.svc.FetchCurrentUser(ctx)
	if err != nil {
		c.log.Warn(ctx, "current user check failed", "error", err)
		return nil
	}
	if u == nil {
		return nil
	}
	c.adopt(ctx, u)
	return u
}

// CheckServerStatus reports whether the backend is reachable.
func (c *Coordinator) CheckServerStatus(ctx context.Context) bool {
	return c.svc.CheckBackendConnection(ctx)
}

func (c *Coordinator) adopt(ctx context.Context, u client.User) {
	c.dispatch(authstate.SetCurrentUser{User: u})
	c.persist(ctx, u)
}

// persist writes token and snapshot as one unit. A failed write is logged
// only: the in-memory session stays valid and the next boot heals storage.
func (c *Coordinator) persist(ctx context.Context, u client.User) {
	err := c.store.SaveSession(ctx, u.SessionToken(), storage.Session{
		ObjectID:     u.ID(),
		SessionToken: u.SessionToken(),
		Username:     u.Username(),
		Email:        u.Email(),
	})
	if err != nil {
		c.log.Error(ctx, "failed to persist session", "error", err)
	}
}

func (c *Coordinator) clearPersisted(ctx context.Context) {
	if err := c.store.ClearSession(ctx); err != nil {
		c.log.Error(ctx, "failed to clear persisted session", "error", err)
	}
}

// run wraps a transition with the loading flag and error reporting.
func (c *Coordinator) run(call func() services.Result, onSuccess func(services.Result)) services.Result {
	c.dispatch(authstate.SetLoading{Loading: true}, authstate.SetError{Message: ""})
	defer c.dispatch(authstate.SetLoading{Loading: false})

	res := call()
	if !res.Success {
		c.dispatch(authstate.SetError{Message: res.Error})
		return res
	}
	onSuccess(res)
	return res
}

func (c *Coordinator) signedIn(ctx context.Context) func(services.Result) {
	return func(res services.Result) {
		c.adopt(ctx, res.User)
		c.dispatch(authstate.ClearForm{})
	}
}

func (c *Coordinator) Login(ctx context.Context, email, password string) services.Result {
	return c.run(func() services.Result {
		return c.svc.Login(ctx, email, password)
	}, c.signedIn(ctx))
}

func (c *Coordinator) SignUp(ctx context.Context, username, email, password string) services.Result {
	return c.run(func() services.Result {
		return c.svc.SignUp(ctx, username, email, password)
	}, c.signedIn(ctx))
}

func (c *Coordinator) FederatedSignIn(ctx context.Context, resp services.OAuthResponse) services.Result {
	return c.run(func() services.Result {
		return c.svc.FederatedSignIn(ctx, resp)
	}, c.signedIn(ctx))
}

func (c *Coordinator) RequestPasswordReset(ctx context.Context, email string) services.Result {
	return c.run(func() services.Result {
		return c.svc.RequestPasswordReset(ctx, email)
	}, func(res services.Result) {
		c.dispatch(authstate.SetResetMessage{Message: res.Message})
	})
}

// Logout clears storage before memory, then tells the backend. It always
// succeeds.
func (c *Coordinator) Logout(ctx context.Context) services.Result {
	c.clearPersisted(ctx)
	c.dispatch(authstate.ResetAuthState{})
	c.svc.Logout(ctx)
	c.log.Info(ctx, "logged out")
	return services.Result{Success: true}
}

func (c *Coordinator) SetAuthEmail(email string) {
	c.dispatch(authstate.SetEmail{Email: email})
}

func (c *Coordinator) SetAuthPassword(password string) {
	c.dispatch(authstate.SetPassword{Password: password})
}

func (c *Coordinator) ResetAuthState() { c.dispatch(authstate.ResetAuthState{}) }

func (c *Coordinator) ClearForm() { c.dispatch(authstate.ClearForm{}) }

func (c *Coordinator) ClearResetMessage() { c.dispatch(authstate.ClearResetMessage{}) }

func (c *Coordinator) ValidateEmail(s string) error { return validation.ValidateEmail(s) }

func (c *Coordinator) ValidatePassword(s string) error { return validation.ValidatePassword(s) }

func (c *Coordinator) ValidateUsername(s string) error { return validation.ValidateUsername(s) }
