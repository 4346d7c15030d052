package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/storage"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeService struct {
	LoginRes, SignUpRes, FedRes, ResetRes services.Result

	Current    client.User
	CurrentErr error

	Restored   client.User
	RestoreErr error

	Online bool

	RestoreCalls, LogoutCalls, CurrentCalls int
	LastToken                               string

	// onCall runs inside every transition, before the result is returned
	onCall func()
	// onLogout runs when the backend logout is made
	onLogout func()
}

func (f *fakeService) hook() {
	if f.onCall != nil {
		f.onCall()
	}
}

func (f *fakeService) Login(context.Context, string, string) services.Result {
	f.hook()
	return f.LoginRes
}

func (f *fakeService) SignUp(context.Context, string, string, string) services.Result {
	f.hook()
	return f.SignUpRes
}

func (f *fakeService) FederatedSignIn(context.Context, services.OAuthResponse) services.Result {
	f.hook()
	return f.FedRes
}

func (f *fakeService) RequestPasswordReset(context.Context, string) services.Result {
	f.hook()
	return f.ResetRes
}

func (f *fakeService) Logout(context.Context) services.Result {
	f.LogoutCalls++
	if f.onLogout != nil {
		f.onLogout()
	}
	return services.Result{Success: true}
}

func (f *fakeService) RestoreSession(_ context.Context, token string) (client.User, error) {
	f.RestoreCalls++
	f.LastToken = token
	return f.Restored, f.RestoreErr
}

func (f *fakeService) FetchCurrentUser(context.Context) (client.User, error) {
	f.CurrentCalls++
	return f.Current, f.CurrentErr
}

func (f *fakeService) CheckBackendConnection(context.Context) bool { return f.Online }

type fakeStore struct {
	token   string
	session *storage.Session

	SaveErr, ClearErr error
	SaveCalls         int
	ClearCalls        int
	order             []string

	onClear func()
}

func (s *fakeStore) Token() string { return s.token }

func (s *fakeStore) Session() (storage.Session, bool) {
	if s.session == nil {
		return storage.Session{}, false
	}
	return *s.session, true
}

func (s *fakeStore) SaveSession(_ context.Context, token string, sess storage.Session) error {
	s.SaveCalls++
	s.order = append(s.order, "save")
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.token = token
	s.session = &sess
	return nil
}

func (s *fakeStore) ClearSession(context.Context) error {
	s.ClearCalls++
	s.order = append(s.order, "clear")
	if s.onClear != nil {
		s.onClear()
	}
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.token = ""
	s.session = nil
	return nil
}

var alice = client.NewAccount("u1", "r:tok1", "alice", "alice@example.com")

func aliceSession() *storage.Session {
	return &storage.Session{ObjectID: "u1", SessionToken: "r:tok1", Username: "alice", Email: "alice@example.com"}
}

func newCoordinator(svc *fakeService, st *fakeStore) *Coordinator {
	return New(svc, st, logging.Discard())
}

// ---- transitions ----

func TestLogin_Success_RoundTrip(t *testing.T) {
	svc := &fakeService{LoginRes: services.Result{Success: true, User: alice}}
	st := &fakeStore{}
	c := newCoordinator(svc, st)
	c.SetAuthEmail("alice@example.com")
	c.SetAuthPassword("secret1")

	res := c.Login(context.Background(), "alice@example.com", "secret1")
	require.True(t, res.Success)

	s := c.State()
	require.True(t, s.IsAuthenticated)
	require.Equal(t, s.CurrentUser.SessionToken(), s.AuthToken)
	require.Equal(t, s.CurrentUser.Username(), s.Username)
	require.Empty(t, s.AuthEmail)
	require.Empty(t, s.AuthPassword)
	require.False(t, s.IsLoading)

	require.Equal(t, "r:tok1", st.token)
	require.Equal(t, aliceSession(), st.session)
}

func TestLogin_Failure_KeepsPreviousUser(t *testing.T) {
	svc := &fakeService{
		LoginRes: services.Result{Success: true, User: alice},
	}
	st := &fakeStore{}
	c := newCoordinator(svc, st)
	require.True(t, c.Login(context.Background(), "alice@example.com", "secret1").Success)

	svc.LoginRes = services.Result{Error: services.MsgBackendUnreachable, Err: client.ErrUnavailable}
	res := c.Login(context.Background(), "bob@example.com", "secret2")
	require.False(t, res.Success)

	s := c.State()
	require.Equal(t, services.MsgBackendUnreachable, s.Error)
	require.Equal(t, alice, s.CurrentUser)
	require.Equal(t, "r:tok1", s.AuthToken)
	require.False(t, s.IsLoading)
	require.Equal(t, 1, st.SaveCalls)
}

func TestSignUp_LoadingFlagAndFormCleared(t *testing.T) {
	svc := &fakeService{SignUpRes: services.Result{Success: true, User: alice}}
	c := newCoordinator(svc, &fakeStore{})
	c.SetAuthEmail(" alice@example.com ")
	c.SetAuthPassword("secret1")

	var loadingDuringCall bool
	var errorDuringCall string
	svc.onCall = func() {
		s := c.State()
		loadingDuringCall = s.IsLoading
		errorDuringCall = s.Error
	}

	res := c.SignUp(context.Background(), "alice", "alice@example.com", "secret1")
	require.True(t, res.Success)
	require.True(t, loadingDuringCall)
	require.Empty(t, errorDuringCall)

	s := c.State()
	require.False(t, s.IsLoading)
	require.NotNil(t, s.CurrentUser)
	require.Empty(t, s.AuthEmail)
	require.Empty(t, s.AuthPassword)
	require.Empty(t, s.ResetPasswordMessage)
}

func TestLoadingClearedOnPanic(t *testing.T) {
	svc := &fakeService{onCall: func() { panic("boom") }}
	c := newCoordinator(svc, &fakeStore{})

	require.Panics(t, func() { c.Login(context.Background(), "a@b.co", "secret1") })
	require.False(t, c.State().IsLoading)
}

func TestFederatedSignIn_Cancelled(t *testing.T) {
	svc := &fakeService{FedRes: services.Result{Error: services.MsgGoogleCancelled, Err: client.ErrFederationData}}
	st := &fakeStore{}
	c := newCoordinator(svc, st)

	res := c.FederatedSignIn(context.Background(), services.OAuthResponse{Type: services.ResponseCancel})
	require.False(t, res.Success)
	require.Equal(t, services.MsgGoogleCancelled, c.State().Error)
	require.Zero(t, st.SaveCalls)
}

func TestRequestPasswordReset_SetsMessage(t *testing.T) {
	svc := &fakeService{ResetRes: services.Result{Success: true, Message: "sent to a@b.co"}}
	st := &fakeStore{}
	c := newCoordinator(svc, st)

	require.True(t, c.RequestPasswordReset(context.Background(), "a@b.co").Success)
	s := c.State()
	require.Equal(t, "sent to a@b.co", s.ResetPasswordMessage)
	require.False(t, s.IsAuthenticated)
	require.Zero(t, st.SaveCalls)

	c.ClearResetMessage()
	require.Empty(t, c.State().ResetPasswordMessage)
}

func TestPersistFailureDoesNotFailLogin(t *testing.T) {
	svc := &fakeService{LoginRes: services.Result{Success: true, User: alice}}
	c := newCoordinator(svc, &fakeStore{SaveErr: errors.New("disk full")})

	require.True(t, c.Login(context.Background(), "alice@example.com", "secret1").Success)
	require.True(t, c.State().IsAuthenticated)
}

// ---- logout ----

func TestLogout_ClearsStorageThenState(t *testing.T) {
	svc := &fakeService{LoginRes: services.Result{Success: true, User: alice}}
	st := &fakeStore{}
	c := newCoordinator(svc, st)
	require.True(t, c.Login(context.Background(), "alice@example.com", "secret1").Success)

	st.order = nil
	res := c.Logout(context.Background())

	require.True(t, res.Success)
	require.Equal(t, []string{"clear"}, st.order)
	require.Empty(t, st.token)
	require.Nil(t, st.session)
	require.False(t, c.State().IsAuthenticated)
	require.Equal(t, 1, svc.LogoutCalls)
}

func TestLogout_Order(t *testing.T) {
	svc := &fakeService{LoginRes: services.Result{Success: true, User: alice}}
	st := &fakeStore{}
	c := newCoordinator(svc, st)
	require.True(t, c.Login(context.Background(), "alice@example.com", "secret1").Success)

	var steps []string
	st.onClear = func() {
		steps = append(steps, "clear")
		assert.True(t, c.State().IsAuthenticated, "storage must be cleared before memory")
	}
	svc.onLogout = func() {
		steps = append(steps, "backend-logout")
		assert.False(t, c.State().IsAuthenticated, "memory must be reset before the backend call")
	}
	updates, cancel := c.Subscribe()
	defer cancel()

	require.True(t, c.Logout(context.Background()).Success)

	snap := <-updates
	require.False(t, snap.IsAuthenticated)
	require.Equal(t, []string{"clear", "backend-logout"}, steps)
}

func TestLogout_StorageErrorStillSucceeds(t *testing.T) {
	svc := &fakeService{}
	c := newCoordinator(svc, &fakeStore{ClearErr: errors.New("locked")})

	require.True(t, c.Logout(context.Background()).Success)
	require.Equal(t, 1, svc.LogoutCalls)
}

// ---- boot ----

func TestBoot_FastPath_NoRestoreCall(t *testing.T) {
	svc := &fakeService{Current: alice}
	st := &fakeStore{token: "r:tok1", session: aliceSession()}
	c := newCoordinator(svc, st)

	c.Boot(context.Background())

	require.Zero(t, svc.RestoreCalls)
	s := c.State()
	require.Equal(t, alice, s.CurrentUser)
	require.Equal(t, "r:tok1", s.AuthToken)
}

func TestBoot_RestoreSuccess(t *testing.T) {
	svc := &fakeService{Restored: alice}
	st := &fakeStore{token: "r:tok1", session: aliceSession()}
	c := newCoordinator(svc, st)

	c.Boot(context.Background())

	require.Equal(t, 1, svc.RestoreCalls)
	require.Equal(t, "r:tok1", svc.LastToken)
	require.Equal(t, alice, c.State().CurrentUser)
	require.Equal(t, 1, st.SaveCalls)
}

func TestBoot_RestoreFailure_ErasesBoth(t *testing.T) {
	other := client.NewAccount("u2", "r:other", "bob", "bob@example.com")
	tests := []struct {
		name    string
		current client.User
	}{
		{"no cached user", nil},
		{"cached user with other token", other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{Current: tt.current, RestoreErr: client.ErrSessionExpired}
			st := &fakeStore{token: "r:stale", session: aliceSession()}
			c := newCoordinator(svc, st)

			c.restore(context.Background())

			require.Equal(t, 1, svc.RestoreCalls)
			require.Equal(t, 1, st.ClearCalls)
			require.Empty(t, st.token)
			require.Nil(t, st.session)
			require.False(t, c.State().IsAuthenticated)
		})
	}
}

func TestBoot_RestoreFailure_NoCachedUser_StaysSignedOut(t *testing.T) {
	svc := &fakeService{RestoreErr: client.ErrSessionExpired}
	st := &fakeStore{token: "r:stale", session: aliceSession()}
	c := newCoordinator(svc, st)

	c.Boot(context.Background())

	require.Empty(t, st.token)
	require.Nil(t, st.session)
	require.False(t, c.State().IsAuthenticated)
	require.Equal(t, 2, svc.CurrentCalls)
}

func TestBoot_PartialState_Erased(t *testing.T) {
	for name, st := range map[string]*fakeStore{
		"token only":    {token: "r:tok1"},
		"snapshot only": {session: aliceSession()},
	} {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			c := newCoordinator(svc, st)

			c.Boot(context.Background())

			require.Zero(t, svc.RestoreCalls)
			require.Equal(t, 1, st.ClearCalls)
			require.False(t, c.State().IsAuthenticated)
		})
	}
}

func TestBoot_Empty_ResyncsFromBackendCache(t *testing.T) {
	svc := &fakeService{Current: alice}
	st := &fakeStore{}
	c := newCoordinator(svc, st)

	c.Boot(context.Background())

	require.Zero(t, svc.RestoreCalls)
	require.Zero(t, st.ClearCalls)
	require.Equal(t, alice, c.State().CurrentUser)
	require.Equal(t, "r:tok1", st.token)
}

func TestCheckServerStatus(t *testing.T) {
	svc := &fakeService{Online: true}
	c := newCoordinator(svc, &fakeStore{})
	require.True(t, c.CheckServerStatus(context.Background()))
	svc.Online = false
	require.False(t, c.CheckServerStatus(context.Background()))
}

// ---- publishing ----

func TestSubscribe_ReceivesLatest(t *testing.T) {
	c := newCoordinator(&fakeService{}, &fakeStore{})
	ch, cancel := c.Subscribe()

	c.SetAuthEmail("a@b.co")
	c.SetAuthPassword("secret1")

	s := <-ch
	assert.Equal(t, "a@b.co", s.AuthEmail)
	assert.Equal(t, "secret1", s.AuthPassword)

	cancel()
	cancel()
	_, ok := <-ch
	require.False(t, ok)

	c.ClearForm()
	require.Empty(t, c.State().AuthEmail)
}

func TestValidatorsExposed(t *testing.T) {
	c := newCoordinator(&fakeService{}, &fakeStore{})
	require.Error(t, c.ValidateEmail("nope"))
	require.NoError(t, c.ValidatePassword("secret1"))
	require.Error(t, c.ValidateUsername("a b"))
}

func TestResetAuthState(t *testing.T) {
	svc := &fakeService{LoginRes: services.Result{Success: true, User: alice}}
	c := newCoordinator(svc, &fakeStore{})
	require.True(t, c.Login(context.Background(), "alice@example.com", "secret1").Success)

	c.ResetAuthState()
	require.Equal(t, Snapshot{}, c.State())
}

// ---- context accessor ----

func TestFromContext(t *testing.T) {
	c := newCoordinator(&fakeService{}, &fakeStore{})
	ctx := WithCoordinator(context.Background(), c)
	require.Same(t, c, FromContext(ctx))

	require.Panics(t, func() { FromContext(context.Background()) })
}
