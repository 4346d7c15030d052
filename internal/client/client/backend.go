package client

import "context"

// User is the opaque handle to an authenticated identity.
type User interface {
	ID() string
	SessionToken() string
	Username() string
	Email() string
}

// NewUser is the registration payload.
type NewUser struct {
	Username string
	Email    string
	Password string
}

// AuthData is what a federated provider hands over for linking.
type AuthData struct {
	ID          string
	IDToken     string
	AccessToken string
}

// Backend is the remote auth/object-storage service as seen by the client.
//
// Contract:
//   - Login, Register, FederatedLogin and Become make the returned user the
//     current session.
//   - CurrentSession answers from local state without a network round trip;
//     it returns (nil, nil) when nobody is signed in.
//   - Logout drops the current session locally even when the remote call fails.
//   - Query reads up to limit rows from collection.
type Backend interface {
	Login(ctx context.Context, email, password string) (User, error)
	Register(ctx context.Context, u NewUser) (User, error)
	FederatedLogin(ctx context.Context, provider string, data AuthData) (User, error)
	Become(ctx context.Context, sessionToken string) (User, error)
	CurrentSession(ctx context.Context) (User, error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	Query(ctx context.Context, collection string, limit int) ([]map[string]any, error)
	Close() error
}

// Account is the value implementation of User.
type Account struct {
	objectID     string
	sessionToken string
	username     string
	email        string
}

func NewAccount(objectID, sessionToken, username, email string) *Account {
	return &Account{objectID: objectID, sessionToken: sessionToken, username: username, email: email}
}

func (a *Account) ID() string           { return a.objectID }
func (a *Account) SessionToken() string { return a.sessionToken }
func (a *Account) Username() string     { return a.username }
func (a *Account) Email() string        { return a.email }
