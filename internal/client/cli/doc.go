// Package cli provides the interactive escrow-agent command-line client.
//
// It wires configuration, session storage, the HTTP API client and the
// services into a REPL. On start a stored session goes straight to a profile
// and pending-list refresh; without one the user is asked to log in. A
// background watcher pings the server and flips between online and offline
// mode.
//
// Commands:
//   - signup / login / logout / profile
//   - create, pending, disputed
//   - release, dispute, deposit, cancel <escrow id>
//   - transactions, newtx, logs <transaction id>
//   - upload <path>
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
