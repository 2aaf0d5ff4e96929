package client

import (
	"context"

	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/shopspring/decimal"
)

// Client is the transport-agnostic contract of the escrow service.
type Client interface {
	Login(ctx context.Context, username, password string) (models.Credential, error)
	Signup(ctx context.Context, username, password string, role models.Role) error
	GetProfile(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, u models.ProfileUpdate) error
	Ping(ctx context.Context) error

	CreateEscrow(ctx context.Context, in models.NewEscrow) (models.Escrow, error)
	ListPendingEscrows(ctx context.Context) ([]models.Escrow, error)
	ListDisputedEscrows(ctx context.Context) ([]models.Escrow, error)

	ReleaseFunds(ctx context.Context, e models.Escrow) (models.Escrow, error)
	DisputeEscrow(ctx context.Context, e models.Escrow) (models.Escrow, error)
	DepositEscrow(ctx context.Context, e models.Escrow) (models.Escrow, error)
	CancelEscrow(ctx context.Context, e models.Escrow) (models.Escrow, error)

	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (models.Transaction, error)
	CreateTransaction(ctx context.Context, sellerID int64, amount decimal.Decimal, status models.EscrowStatus) (models.Transaction, error)
	ListTransactionLogs(ctx context.Context, transactionID int64) ([]models.TransactionLog, error)
	FulfillTransaction(ctx context.Context, id int64) error
	ConfirmTransaction(ctx context.Context, id int64) error
	ListTransactionFiles(ctx context.Context, id int64) ([]models.FileRef, error)

	UploadFile(ctx context.Context, f models.UploadedFile) (models.FileRef, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListAllTransactions(ctx context.Context) ([]models.Transaction, error)
}

// CredentialSource supplies the current credential for each request.
// session.Store satisfies it.
type CredentialSource interface {
	Credential() (models.Credential, bool)
}
