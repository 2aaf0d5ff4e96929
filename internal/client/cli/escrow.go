package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/shopspring/decimal"
)

// Create prompts for the escrow fields and submits it. The buyer defaults
// to the logged-in user when the profile is known.
func (a *App) Create(ctx context.Context) error {
	_, myID := a.currentUser()

	buyerPrompt := "Enter buyer ID"
	if myID != 0 {
		buyerPrompt = fmt.Sprintf("Enter buyer ID [%d]", myID)
	}
	buyerID, err := getSimpleText(a.reader, buyerPrompt, a.out)
	if err != nil {
		return err
	}
	if buyerID == "" && myID != 0 {
		buyerID = models.FormatID(myID)
	}

	sellerID, err := getSimpleText(a.reader, "Enter seller ID", a.out)
	if err != nil {
		return err
	}

	amount, err := a.readAmount()
	if err != nil {
		return err
	}

	description, err := getMultiline(a.reader, "Enter description", a.out)
	if err != nil {
		return err
	}

	e, err := a.escrowService.Create(ctx, models.NewEscrow{
		BuyerID:     buyerID,
		SellerID:    sellerID,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Escrow %s created (%s)\n", e.ID, e.Status)
	return nil
}

// Pending refreshes the pending list and prints it. A failed refresh still
// prints the last known list, unless the session is gone.
func (a *App) Pending(ctx context.Context) error {
	err := a.escrowService.RefreshPending(ctx)
	if errors.Is(err, client.ErrUnauthenticated) {
		return err
	}
	if err != nil {
		fmt.Fprintln(a.out, "Refresh failed, showing the last known list.")
	}
	printEscrows(a.out, a.escrowService.Pending())
	return err
}

func (a *App) Disputed(ctx context.Context) error {
	items, err := a.escrowService.Disputed(ctx)
	if err != nil {
		return err
	}
	printEscrows(a.out, items)
	return nil
}

func (a *App) Transactions(ctx context.Context) error {
	err := a.escrowService.RefreshTransactions(ctx)
	if errors.Is(err, client.ErrUnauthenticated) {
		return err
	}
	if err != nil {
		fmt.Fprintln(a.out, "Refresh failed, showing the last known list.")
	}
	printTransactions(a.out, a.escrowService.Transactions())
	return err
}

// Transaction fetches one transaction and prints it.
func (a *App) Transaction(ctx context.Context, args []string) error {
	s, err := a.argOrPrompt(args, "Enter transaction ID")
	if err != nil {
		return err
	}
	id, err := parseID(s)
	if err != nil {
		return err
	}

	tx, err := a.escrowService.Transaction(ctx, id)
	if err != nil {
		return err
	}
	printTransactions(a.out, []models.Transaction{tx})
	return nil
}

func (a *App) NewTransaction(ctx context.Context) error {
	s, err := getSimpleText(a.reader, "Enter seller ID", a.out)
	if err != nil {
		return err
	}
	sellerID, err := parseID(s)
	if err != nil {
		return err
	}

	amount, err := a.readAmount()
	if err != nil {
		return err
	}

	tx, err := a.escrowService.CreateTransaction(ctx, sellerID, amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Transaction %d created (%s)\n", tx.ID, tx.Status)
	return nil
}

// Logs prints the audit events of one transaction.
func (a *App) Logs(ctx context.Context, args []string) error {
	s, err := a.argOrPrompt(args, "Enter transaction ID")
	if err != nil {
		return err
	}
	id, err := parseID(s)
	if err != nil {
		return err
	}

	logs, err := a.escrowService.TransactionLogs(ctx, id)
	if err != nil {
		return err
	}
	printLogs(a.out, logs)
	return nil
}

// Transition applies action (release, dispute, deposit or cancel) to the
// escrow named by args[0] or prompted for.
func (a *App) Transition(ctx context.Context, action string, args []string) error {
	id, err := a.argOrPrompt(args, "Enter escrow ID")
	if err != nil {
		return err
	}

	var call func(context.Context, string) (models.Escrow, error)
	switch action {
	case "release":
		call = a.escrowService.Release
	case "dispute":
		call = a.escrowService.Dispute
	case "deposit":
		call = a.escrowService.Deposit
	case "cancel":
		call = a.escrowService.Cancel
	default:
		return fmt.Errorf("unknown action %q", action)
	}

	e, err := call(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Escrow %s is now %s\n", e.ID, e.Status)
	return nil
}

// TransactionAction runs fulfill (seller) or confirm (buyer) on the
// transaction named by args[0] or prompted for.
func (a *App) TransactionAction(ctx context.Context, action string, args []string) error {
	s, err := a.argOrPrompt(args, "Enter transaction ID")
	if err != nil {
		return err
	}
	id, err := parseID(s)
	if err != nil {
		return err
	}

	var call func(context.Context, int64) (models.Transaction, error)
	switch action {
	case "fulfill":
		call = a.escrowService.Fulfill
	case "confirm":
		call = a.escrowService.Confirm
	default:
		return fmt.Errorf("unknown action %q", action)
	}

	tx, err := call(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Transaction %d is now %s\n", tx.ID, tx.Status)
	return nil
}

// Files lists the documents attached to a transaction.
func (a *App) Files(ctx context.Context, args []string) error {
	s, err := a.argOrPrompt(args, "Enter transaction ID")
	if err != nil {
		return err
	}
	id, err := parseID(s)
	if err != nil {
		return err
	}

	files, err := a.escrowService.TransactionFiles(ctx, id)
	if err != nil {
		return err
	}
	printFiles(a.out, files)
	return nil
}

func (a *App) readAmount() (decimal.Decimal, error) {
	s, err := getSimpleText(a.reader, "Enter amount", a.out)
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := models.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", client.ErrValidation, err)
	}
	return amount, nil
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", client.ErrValidation, s)
	}
	return id, nil
}
