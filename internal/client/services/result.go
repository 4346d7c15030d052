package services

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
)

// User-facing messages.
const (
	MsgBackendUnreachable = "Unable to connect to the server. Please check your internet connection and try again."
	MsgNetworkError       = "Network error. Please check your connection and try again."

	MsgInvalidCredentials = "Invalid email or password"
	MsgUsernameTaken      = "This username is already taken"
	MsgEmailTaken         = "An account with this email already exists"
	MsgAccountExists      = "An account already exists for this username"
	MsgNoUserReturned     = "The server did not return a user"

	MsgGoogleCancelled     = "Google authentication was cancelled or failed"
	MsgGoogleIncomplete    = "Incomplete authentication data received from Google"
	MsgGoogleIDNotFound    = "Google user ID not found"
	MsgGoogleInfoMissing   = "Required user information (email or name) missing from Google"
	MsgGoogleTokenMismatch = "Google identity token does not match the user profile"

	MsgNoAccountForEmail  = "No account found with this email address"
	MsgEmailNotConfigured = "Password reset email service is not configured"
)

func googleStatusMessage(code int) string {
	return fmt.Sprintf("Failed to fetch Google user info: %d", code)
}

func resetSentMessage(email string) string {
	return fmt.Sprintf("Password reset instructions have been sent to %s", email)
}

// Result is the uniform outcome of an auth transition. On failure Error holds
// the user-facing text and Err the classified kind (match with errors.Is).
type Result struct {
	Success bool
	Error   string
	Message string
	User    client.User
	Err     error
}

func succeed(u client.User) Result {
	return Result{Success: true, User: u}
}

func fail(kind error, msg string) Result {
	return Result{Error: msg, Err: kind}
}

// invalid reports a local validation failure.
func invalid(err error) Result {
	return Result{Error: err.Error(), Err: fmt.Errorf("%w: %w", client.ErrValidation, err)}
}
