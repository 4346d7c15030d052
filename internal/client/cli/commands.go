package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// getSimpleText and getPassword are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) report(res services.Result, okMsg string) error {
	if !res.Success {
		fmt.Fprintln(a.out, "Error:", res.Error)
		return res.Err
	}
	if okMsg != "" {
		fmt.Fprintln(a.out, okMsg)
	}
	return nil
}

// readCredentials fills the email and password form fields.
func (a *App) readCredentials() error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	a.auth.SetAuthEmail(email)

	pw, err := getPassword(a.out)
	if err != nil {
		return err
	}
	// the form field keeps a copy until ClearForm
	a.auth.SetAuthPassword(string(pw))
	return nil
}

func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	if err := a.readCredentials(); err != nil {
		return err
	}

	st := a.auth.State()
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res := a.auth.SignUp(ctx, username, st.AuthEmail, st.AuthPassword)
	return a.report(res, "Account created. Welcome, "+a.auth.State().Username+"!")
}

func (a *App) Login(ctx context.Context) error {
	if err := a.readCredentials(); err != nil {
		return err
	}

	st := a.auth.State()
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res := a.auth.Login(ctx, st.AuthEmail, st.AuthPassword)
	return a.report(res, "Logged in as "+a.auth.State().Username)
}

// Google takes the tokens from a browser sign-in done elsewhere. Leaving both
// empty counts as a cancelled flow.
func (a *App) Google(ctx context.Context) error {
	idToken, err := getSimpleText(a.reader, "Paste the Google id token (empty to skip)", a.out)
	if err != nil {
		return err
	}
	accessToken, err := getSimpleText(a.reader, "Paste the Google access token (empty to skip)", a.out)
	if err != nil {
		return err
	}

	resp := services.OAuthResponse{Type: services.ResponseCancel}
	if idToken != "" || accessToken != "" {
		resp = services.OAuthResponse{
			Type:           services.ResponseSuccess,
			Authentication: &services.OAuthAuthentication{IDToken: idToken, AccessToken: accessToken},
		}
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res := a.auth.FederatedSignIn(ctx, resp)
	return a.report(res, "Logged in with Google as "+a.auth.State().Username)
}

func (a *App) Reset(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res := a.auth.RequestPasswordReset(ctx, email)
	err = a.report(res, a.auth.State().ResetPasswordMessage)
	a.auth.ClearResetMessage()
	return err
}

func (a *App) WhoAmI(context.Context) error {
	s := a.auth.State()
	if s.CurrentUser == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> id=%s\n", s.CurrentUser.Username(), s.CurrentUser.Email(), s.CurrentUser.ID())
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if a.probe(ctx) {
		fmt.Fprintln(a.out, "Server is reachable")
	} else {
		fmt.Fprintln(a.out, "Server is unreachable")
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	return a.report(a.auth.Logout(ctx), "Logged out")
}
