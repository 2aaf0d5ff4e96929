package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getMultiline = GetMultiline

// Signup prompts for a username, a password and a role and registers the
// account. The password byte slice is wiped before returning.
func (a *App) Signup(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	role, err := getSimpleText(a.reader, "Enter role (buyer, seller, admin)", a.out)
	if err != nil {
		return err
	}

	err = a.authService.Signup(ctx, userName, password, models.Role(strings.ToLower(role)))
	if errors.Is(err, client.ErrConflict) {
		return fmt.Errorf("username %q already exists", userName)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success! You can now log in.")
	return nil
}

// Login prompts for credentials, stores the issued credential and then
// performs the mount-time refresh. A successful login also marks the app
// online.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	cred, err := a.authService.Login(ctx, userName, password)
	if err != nil {
		return err
	}

	a.setUser(userName, 0)
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", userName, cred.Role)

	return a.mount(ctx)
}

// Logout removes the stored credential.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.setUser("", 0)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	u, err := a.authService.Profile(ctx)
	if err != nil {
		return err
	}
	a.setUser(u.Username, u.ID)
	printUser(a.out, u)
	return nil
}

// EditProfile prompts for a new username, password and role. A blank
// answer keeps the current value.
func (a *App) EditProfile(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "New username (blank to keep)", a.out)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "New password (blank to keep)")
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	role, err := getSimpleText(a.reader, "New role, comma-separated (blank to keep)", a.out)
	if err != nil {
		return err
	}

	u, err := a.authService.UpdateProfile(ctx, strings.TrimSpace(userName), password, models.Roles(strings.ToLower(strings.TrimSpace(role))))
	if err != nil {
		return err
	}

	a.setUser(u.Username, u.ID)
	fmt.Fprintln(a.out, "Profile updated")
	printUser(a.out, u)
	return nil
}
