package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Create(ctx context.Context) error
	Pending(ctx context.Context) error
	Disputed(ctx context.Context) error
	Transactions(ctx context.Context) error
	Transaction(ctx context.Context, args []string) error
	NewTransaction(ctx context.Context) error
	Logs(ctx context.Context, args []string) error
	Transition(ctx context.Context, action string, args []string) error
	TransactionAction(ctx context.Context, action string, args []string) error
	Files(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Users(ctx context.Context) error
	User(ctx context.Context, args []string) error
	AllTransactions(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: signup, login, exit"
	helpLoggedIn  = "Available commands: profile, editprofile, create, pending, disputed, transactions [tx id], newtx, " +
		"logs <tx id>, files <tx id>, fulfill <tx id>, confirm <tx id>, " +
		"release <id>, dispute <id>, deposit <id>, cancel <id>, upload <path>, " +
		"users, user <id>, alltx, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// The first token is the command, the rest are its arguments; handlers
// prompt for anything missing. The loop exits on EOF or on "exit"/"quit".
//
// A failing command prints one inline message and the loop goes on. When
// the failure means the session is gone, the login flow starts right away.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("escrow %s> ", statusFn()))

		line, readErr := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if readErr != nil {
				return
			}
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "signup", "register":
			err = a.Signup(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "profile":
			err = a.Profile(ctx)

		case "editprofile":
			err = a.EditProfile(ctx)

		case "create":
			err = a.Create(ctx)

		case "pending", "l", "list":
			err = a.Pending(ctx)

		case "disputed":
			err = a.Disputed(ctx)

		case "transactions", "tx":
			if len(args) > 0 {
				err = a.Transaction(ctx, args)
			} else {
				err = a.Transactions(ctx)
			}

		case "newtx":
			err = a.NewTransaction(ctx)

		case "logs":
			err = a.Logs(ctx, args)

		case "files":
			err = a.Files(ctx, args)

		case "fulfill", "confirm":
			err = a.TransactionAction(ctx, cmd, args)

		case "release", "dispute", "deposit", "cancel":
			err = a.Transition(ctx, cmd, args)

		case "upload":
			err = a.Upload(ctx, args)

		case "users":
			err = a.Users(ctx)

		case "user":
			err = a.User(ctx, args)

		case "alltx":
			err = a.AllTransactions(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		handleResult(ctx, a, err)

		if readErr != nil {
			return
		}
	}
}

// handleResult prints err and, for a missing or rejected session, runs the
// login flow once.
func handleResult(ctx context.Context, a execIface, err error) {
	if err == nil {
		return
	}
	printlnFn(describe(err))

	if errors.Is(err, client.ErrUnauthenticated) && ctx.Err() == nil {
		printlnFn("Please log in again.")
		if lerr := a.Login(ctx); lerr != nil {
			printlnFn(describe(lerr))
		}
	}
}
