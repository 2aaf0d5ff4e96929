package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	a.mu.RLock()
	parts := []string{}
	if a.userName != "" {
		parts = append(parts, a.userName)
	}
	if a.mode != "" {
		parts = append(parts, string(a.mode))
	}
	a.mu.RUnlock()

	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// Root greets the user, restores or establishes a session, starts the
// connectivity watcher and blocks in the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to escrow-agent CLI (type 'help' for commands)")

	if a.isLoggedIn() {
		handleResult(ctx, a, a.mount(ctx))
	} else {
		handleResult(ctx, a, a.Login(ctx))
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// mount is the refresh done whenever a session becomes usable: the profile
// first, then the pending list.
func (a *App) mount(ctx context.Context) error {
	if err := a.Profile(ctx); err != nil {
		return err
	}
	return a.Pending(ctx)
}
