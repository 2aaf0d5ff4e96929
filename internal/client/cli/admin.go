package cli

import (
	"context"
)

func (a *App) Users(ctx context.Context) error {
	users, err := a.adminService.Users(ctx)
	if err != nil {
		return err
	}
	printUsers(a.out, users)
	return nil
}

func (a *App) User(ctx context.Context, args []string) error {
	s, err := a.argOrPrompt(args, "Enter user ID")
	if err != nil {
		return err
	}
	id, err := parseID(s)
	if err != nil {
		return err
	}

	u, err := a.adminService.User(ctx, id)
	if err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

// AllTransactions prints every user's transactions. The admin listing is
// not kept in the local transactions list.
func (a *App) AllTransactions(ctx context.Context) error {
	txs, err := a.adminService.Transactions(ctx)
	if err != nil {
		return err
	}
	printTransactions(a.out, txs)
	return nil
}
