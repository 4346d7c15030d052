// Package services contains application services for the client.
// This file defines the authentication service: credential login, sign-up,
// Google federation, password reset, logout, session restore and the
// reachability probe. Every mutating operation validates its input locally,
// checks that the backend is reachable, and only then calls the backend.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/validation"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// AuthService defines the auth transitions.
//
// Contract:
//   - Login, SignUp, FederatedSignIn, RequestPasswordReset: never return an
//     error; failures are reported in Result with a classified Err.
//   - Logout: always succeeds; backend failures are logged and dropped.
//   - RestoreSession: returns an error wrapping client.ErrSessionExpired when
//     the token can no longer be used.
//   - FetchCurrentUser: (nil, nil) when no session is cached.
//   - CheckBackendConnection: true when the backend answered a read.
type AuthService interface {
	Login(ctx context.Context, email, password string) Result
	SignUp(ctx context.Context, username, email, password string) Result
	FederatedSignIn(ctx context.Context, resp OAuthResponse) Result
	RequestPasswordReset(ctx context.Context, email string) Result
	Logout(ctx context.Context) Result
	RestoreSession(ctx context.Context, token string) (client.User, error)
	FetchCurrentUser(ctx context.Context) (client.User, error)
	CheckBackendConnection(ctx context.Context) bool
}

type authService struct {
	backend  client.Backend
	profiles ProfileSource
	log      logging.Logger
}

// NewAuthService constructs an AuthService bound to backend. A nil profiles
// falls back to Google's userinfo endpoint over http.DefaultClient.
func NewAuthService(backend client.Backend, profiles ProfileSource, log logging.Logger) AuthService {
	if profiles == nil {
		profiles = NewHTTPProfileSource(DefaultProfileEndpoint, nil)
	}
	return &authService{backend: backend, profiles: profiles, log: log.With("component", "auth_service")}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *authService) unreachable() Result {
	return fail(client.ErrUnavailable, MsgBackendUnreachable)
}

// userResult turns a backend (user, err) pair into a Result.
func (a *authService) userResult(ctx context.Context, op string, u client.User, err error, rules ...rule) Result {
	if err != nil {
		kind, msg := classify(err, rules...)
		a.log.Warn(ctx, op+" failed", "error", err, "kind", kind)
		return fail(kind, msg)
	}
	if u == nil {
		return fail(client.ErrNoUser, MsgNoUserReturned)
	}
	a.log.Info(ctx, op+" succeeded", "user", u.Username())
	return succeed(u)
}

func (a *authService) Login(ctx context.Context, email, password string) Result {
	if err := firstError(validation.ValidateEmail(email), validation.ValidatePassword(password)); err != nil {
		return invalid(err)
	}
	if !a.CheckBackendConnection(ctx) {
		return a.unreachable()
	}

	u, err := a.backend.Login(ctx, email, password)
	return a.userResult(ctx, "login", u, err, invalidCredentialsRule)
}

func (a *authService) SignUp(ctx context.Context, username, email, password string) Result {
	if err := firstError(
		validation.ValidateUsername(username),
		validation.ValidateEmail(email),
		validation.ValidatePassword(password),
	); err != nil {
		return invalid(err)
	}
	if !a.CheckBackendConnection(ctx) {
		return a.unreachable()
	}

	u, err := a.backend.Register(ctx, client.NewUser{
		Username: strings.TrimSpace(username),
		Email:    email,
		Password: password,
	})
	return a.userResult(ctx, "sign-up", u, err, usernameTakenRule, emailTakenRule, accountExistsRule)
}

// FederatedSignIn links a Google identity. The profile must carry an id, an
// email and a name; a partial identity is rejected.
func (a *authService) FederatedSignIn(ctx context.Context, resp OAuthResponse) Result {
	if resp.Type != ResponseSuccess {
		a.log.Info(ctx, "google flow did not succeed", "type", resp.Type, "code", resp.ErrorCode)
		return fail(client.ErrFederationData, MsgGoogleCancelled)
	}
	idToken, accessToken := resp.tokens()
	if idToken == "" && accessToken == "" {
		return fail(client.ErrFederationData, MsgGoogleIncomplete)
	}
	if !a.CheckBackendConnection(ctx) {
		return a.unreachable()
	}

	profile, res, ok := a.resolveProfile(ctx, idToken, accessToken)
	if !ok {
		return res
	}
	if profile.ID == "" {
		return fail(client.ErrFederationData, MsgGoogleIDNotFound)
	}
	if profile.Email == "" || profile.Name == "" {
		return fail(client.ErrFederationData, MsgGoogleInfoMissing)
	}

	u, err := a.backend.FederatedLogin(ctx, ProviderGoogle, client.AuthData{
		ID:          profile.ID,
		IDToken:     idToken,
		AccessToken: accessToken,
	})
	return a.userResult(ctx, "google sign-in", u, err)
}

// resolveProfile prefers the userinfo endpoint and falls back to the id token
// claims when there is no access token.
func (a *authService) resolveProfile(ctx context.Context, idToken, accessToken string) (Profile, Result, bool) {
	if accessToken == "" {
		p, err := profileFromIDToken(idToken)
		if err != nil {
			a.log.Warn(ctx, "unusable id token", "error", err)
			return Profile{}, fail(client.ErrFederationData, MsgGoogleIncomplete), false
		}
		return p, Result{}, true
	}

	p, err := a.profiles.FetchProfile(ctx, accessToken)
	if err != nil {
		var se *ProfileStatusError
		if errors.As(err, &se) {
			return Profile{}, fail(client.ErrFederationData, googleStatusMessage(se.StatusCode)), false
		}
		kind, msg := classify(err)
		a.log.Warn(ctx, "profile fetch failed", "error", err)
		return Profile{}, fail(kind, msg), false
	}

	if idToken != "" {
		if claims, err := profileFromIDToken(idToken); err == nil && claims.ID != "" && p.ID != "" && claims.ID != p.ID {
			return Profile{}, fail(client.ErrFederationData, MsgGoogleTokenMismatch), false
		}
	}
	return p, Result{}, true
}

func (a *authService) RequestPasswordReset(ctx context.Context, email string) Result {
	if err := validation.ValidateEmail(email); err != nil {
		return invalid(err)
	}
	if !a.CheckBackendConnection(ctx) {
		return a.unreachable()
	}

	if err := a.backend.RequestPasswordReset(ctx, email); err != nil {
		kind, msg := classify(err, noUserRule, emailAdapterRule)
		a.log.Warn(ctx, "password reset failed", "error", err, "kind", kind)
		return fail(kind, msg)
	}
	return Result{Success: true, Message: resetSentMessage(email)}
}

// Logout skips the reachability check: signing out must work offline.
func (a *authService) Logout(ctx context.Context) Result {
	if err := a.backend.Logout(ctx); err != nil {
		a.log.Warn(ctx, "backend logout failed, ignoring", "error", err)
	}
	return Result{Success: true}
}

func (a *authService) RestoreSession(ctx context.Context, token string) (client.User, error) {
	u, err := a.backend.Become(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", client.ErrSessionExpired, err)
	}
	if u == nil {
		return nil, client.ErrSessionExpired
	}
	return u, nil
}

func (a *authService) FetchCurrentUser(ctx context.Context) (client.User, error) {
	u, err := a.backend.CurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	return u, nil
}
