// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration, the local session store, the gRPC backend and the
// auth coordinator, restores any persisted session and then runs a REPL.
// A background watcher probes the backend and flips the prompt between
// online and offline.
//
// Commands:
//   - register, login, google, reset
//   - whoami, status, logout
//   - help, exit
//
// App.Run blocks until the user exits.
package cli
