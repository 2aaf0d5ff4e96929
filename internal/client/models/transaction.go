package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the listing view of an escrow-like record as served by the
// transactions endpoint. Its status never reaches disputed through this view.
type Transaction struct {
	ID        int64
	BuyerID   int64
	SellerID  int64
	Amount    decimal.Decimal
	Status    EscrowStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key identifies the transaction in synchronized lists.
func (t Transaction) Key() string {
	return FormatID(t.ID)
}

// TransactionLog is one audit event recorded by the server for a transaction.
type TransactionLog struct {
	ID            int64
	TransactionID int64
	EventType     string
	EventDetails  string
	CreatedAt     time.Time
}
