package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Google(ctx context.Context) error
	Reset(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Status(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads one command per line from r until EOF, "exit" or "quit".
// Handler errors have already been shown to the user and are dropped here.
//
//	Not logged in: help, register, login, google, reset, status, exit
//	Logged in:     help, whoami, status, logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "gophauth %s> ", statusFn())
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: whoami, status, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, google, reset, status, exit")
			}
		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "google":
			_ = a.Google(ctx)
		case "reset":
			_ = a.Reset(ctx)
		case "whoami":
			_ = a.WhoAmI(ctx)
		case "status":
			_ = a.Status(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
