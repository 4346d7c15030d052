// Package authstate is the pure authentication state machine: the State
// record, the Action variants that may change it, and Reduce. Nothing here
// performs I/O.
package authstate

import (
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
)

// State is the in-memory auth record. Empty strings and a nil CurrentUser
// mean "unset".
type State struct {
	AuthToken string
	// AuthEmail and AuthPassword are form scratch fields; never persisted.
	AuthEmail    string
	AuthPassword string
	IsLoading    bool
	Error        string
	CurrentUser  client.User
	Username     string

	ResetPasswordMessage string
}

// IsAuthenticated reports whether a user or a token is present.
func (s State) IsAuthenticated() bool {
	return s.CurrentUser != nil || s.AuthToken != ""
}

// Action is implemented only by the types in this package.
type Action interface {
	isAction()
}

type (
	SetEmail struct{ Email string }

	SetPassword struct{ Password string }

	SetError struct{ Message string }

	SetToken struct{ Token string }

	SetLoading struct{ Loading bool }

	// SetCurrentUser also derives AuthToken and Username from User; a nil
	// User clears all three.
	SetCurrentUser struct{ User client.User }

	SetResetMessage struct{ Message string }

	ClearResetMessage struct{}

	// ResetAuthState is the full logout reset.
	ResetAuthState struct{}

	// ClearForm wipes form fields but keeps the signed-in user.
	ClearForm struct{}
)

func (SetEmail) isAction()          {}
func (SetPassword) isAction()       {}
func (SetError) isAction()          {}
func (SetToken) isAction()          {}
func (SetLoading) isAction()        {}
func (SetCurrentUser) isAction()    {}
func (SetResetMessage) isAction()   {}
func (ClearResetMessage) isAction() {}
func (ResetAuthState) isAction()    {}
func (ClearForm) isAction()         {}

// Reduce returns the state that follows s after a. It is total: unknown
// actions leave s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetEmail:
		s.AuthEmail = stripSpaces(a.Email)
	case SetPassword:
		s.AuthPassword = a.Password
	case SetError:
		s.Error = a.Message
	case SetToken:
		s.AuthToken = a.Token
	case SetLoading:
		s.IsLoading = a.Loading
	case SetCurrentUser:
		s.CurrentUser = a.User
		if a.User != nil {
			s.AuthToken = a.User.SessionToken()
			s.Username = a.User.Username()
		} else {
			s.AuthToken = ""
			s.Username = ""
		}
	case SetResetMessage:
		s.ResetPasswordMessage = a.Message
	case ClearResetMessage:
		s.ResetPasswordMessage = ""
	case ResetAuthState:
		s = State{}
	case ClearForm:
		s.AuthEmail = ""
		s.AuthPassword = ""
		s.Error = ""
		s.IsLoading = false
		s.ResetPasswordMessage = ""
	}
	return s
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
