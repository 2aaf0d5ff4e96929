package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/client/session"
	"github.com/dmitrijs2005/escrowagent/internal/common"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and store the credential.
//   - Signup: create a new user on the server. Does not log in.
//   - Logout: drop the stored credential. Idempotent.
//   - Profile: fetch the caller's profile and refresh the stored role.
//   - UpdateProfile: change username, password or role, then re-read the
//     profile so the stored role follows.
//   - IsLoggedIn: whether a credential is stored.
//   - Ping: check server liveness.
//
// Passwords are wiped once sent.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) (models.Credential, error)
	Signup(ctx context.Context, username string, password []byte, role models.Role) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, username string, password []byte, role models.Roles) (models.User, error)
	IsLoggedIn() bool
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	store  *session.Store
	log    logging.Logger
}

func NewAuthService(c client.Client, store *session.Store, log logging.Logger) AuthService {
	return &authService{client: c, store: store, log: log}
}

func (a *authService) Login(ctx context.Context, username string, password []byte) (models.Credential, error) {
	defer common.WipeByteArray(password)

	cred, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return models.Credential{}, fmt.Errorf("login error: %w", err)
	}
	if err := a.store.SetCredential(ctx, cred); err != nil {
		return models.Credential{}, fmt.Errorf("credential saving error: %w", err)
	}

	stored, _ := a.store.Credential()
	a.log.Info(ctx, "logged in", "username", username, "role", string(stored.Role))
	return stored, nil
}

func (a *authService) Signup(ctx context.Context, username string, password []byte, role models.Role) error {
	defer common.WipeByteArray(password)

	if err := a.client.Signup(ctx, username, string(password), role); err != nil {
		return err
	}
	a.log.Info(ctx, "user registered", "username", username, "role", string(role))
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.store.ClearCredential(ctx)
}

// Profile fetches the profile and stores its role. A rejected token clears
// the session.
func (a *authService) Profile(ctx context.Context) (models.User, error) {
	u, err := a.client.GetProfile(ctx)
	if err != nil {
		return models.User{}, expireOn(ctx, a.store, a.log, err)
	}
	if u.Role != "" {
		if err := a.store.SetRole(ctx, u.Role); err != nil {
			a.log.Warn(ctx, "failed to store role", "error", err)
		}
	}
	return u, nil
}

func (a *authService) UpdateProfile(ctx context.Context, username string, password []byte, role models.Roles) (models.User, error) {
	defer common.WipeByteArray(password)

	err := a.client.UpdateProfile(ctx, models.ProfileUpdate{
		Username: username,
		Password: string(password),
		Role:     role,
	})
	if err != nil {
		return models.User{}, expireOn(ctx, a.store, a.log, err)
	}
	a.log.Info(ctx, "profile updated", "username_changed", username != "", "role_changed", role != "")
	return a.Profile(ctx)
}

func (a *authService) IsLoggedIn() bool {
	_, ok := a.store.Credential()
	return ok
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
