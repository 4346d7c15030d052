package services

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
)

// rule maps a backend message (lower-cased) to a classified kind.
type rule struct {
	kind  error
	msg   string
	match func(lower string) bool
}

func containsAll(parts ...string) func(string) bool {
	return func(s string) bool {
		for _, p := range parts {
			if !strings.Contains(s, p) {
				return false
			}
		}
		return true
	}
}

func containsAny(parts ...string) func(string) bool {
	return func(s string) bool {
		for _, p := range parts {
			if strings.Contains(s, p) {
				return true
			}
		}
		return false
	}
}

var (
	invalidCredentialsRule = rule{client.ErrInvalidCredentials, MsgInvalidCredentials, containsAll("invalid username/password")}

	usernameTakenRule = rule{client.ErrUsernameTaken, MsgUsernameTaken, containsAll("username", "taken")}
	emailTakenRule    = rule{client.ErrEmailTaken, MsgEmailTaken, containsAll("email", "taken")}
	accountExistsRule = rule{client.ErrAccountExists, MsgAccountExists, containsAll("account already exists")}

	noUserRule       = rule{client.ErrNoUser, MsgNoAccountForEmail, containsAll("no user found")}
	emailAdapterRule = rule{client.ErrBackend, MsgEmailNotConfigured, containsAny("email adapter", "emailadapter")}
)

var networkSignals = []string{
	"network request failed",
	"failed to fetch",
	"xmlhttprequest",
	"econnrefused",
	"connection refused",
}

func isNetworkMessage(lower string) bool {
	for _, s := range networkSignals {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// classify turns a backend failure into a kind and a user-facing message.
// Specific rules win over the network check; anything unmatched keeps the
// backend's own message.
func classify(err error, rules ...rule) (error, string) {
	lower := strings.ToLower(err.Error())
	for _, r := range rules {
		if r.match(lower) {
			return r.kind, r.msg
		}
	}
	if errors.Is(err, client.ErrUnavailable) || isNetworkMessage(lower) {
		return client.ErrUnavailable, MsgNetworkError
	}
	return client.ErrBackend, err.Error()
}
