package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/config"
	"github.com/dmitrijs2005/escrowagent/internal/client/inflight"
	"github.com/dmitrijs2005/escrowagent/internal/client/services"
	"github.com/dmitrijs2005/escrowagent/internal/client/session"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single liveness check of the watcher.
const pingTimeout = 3 * time.Second

type App struct {
	config        *config.Config
	authService   services.AuthService
	escrowService services.EscrowService
	uploadService services.UploadService
	adminService  services.AdminService
	log           logging.Logger
	reader        *bufio.Reader
	out           io.Writer
	closeFn       func() error

	mu       sync.RWMutex
	mode     Mode
	userName string
	userID   int64
}

// NewApp opens the configured session backend and wires the API client and
// services on top of it. Close releases the backend.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(os.Stderr, c.LogLevel, c.LogFormat)

	repo, closeFn, err := openSessionBackend(ctx, c)
	if err != nil {
		log.Error(ctx, "error opening session storage", "backend", c.SessionBackend, "error", err)
		return nil, err
	}

	store, err := session.Open(ctx, repo, log)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	apiClient := client.NewHTTPClient(c.APIBaseURL, store,
		client.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		client.WithLogger(log),
		client.WithSignupPath(c.SignupPath),
	)
	guard := inflight.NewGuard()

	return &App{
		config:        c,
		authService:   services.NewAuthService(apiClient, store, log),
		escrowService: services.NewEscrowService(apiClient, store, guard, log),
		uploadService: services.NewUploadService(apiClient, store, guard, log, services.DefaultMaxUploadBytes),
		adminService:  services.NewAdminService(apiClient, store, log),
		log:           log,
		reader:        bufio.NewReader(os.Stdin),
		out:           os.Stdout,
		closeFn:       closeFn,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

func (a *App) isLoggedIn() bool {
	return a.authService.IsLoggedIn()
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) setUser(name string, id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userName = name
	a.userID = id
}

func (a *App) currentUser() (string, int64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userName, a.userID
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode between online and offline. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := a.authService.Ping(pctx)
			cancel()

			if ctx.Err() != nil {
				return
			}
			if err != nil {
				a.log.Debug(ctx, "ping failed", "error", err)
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
