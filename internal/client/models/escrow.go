package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownStatus is returned for a status string outside the enumerated
// set. The server sending one is a protocol violation.
var ErrUnknownStatus = errors.New("unknown escrow status")

// ErrNegativeAmount is returned when an amount below zero is supplied.
var ErrNegativeAmount = errors.New("amount must not be negative")

// EscrowStatus is a state of the escrow lifecycle.
type EscrowStatus string

const (
	StatusPending   EscrowStatus = "pending"
	StatusHeld      EscrowStatus = "held"
	StatusReleased  EscrowStatus = "released"
	StatusDisputed  EscrowStatus = "disputed"
	StatusCancelled EscrowStatus = "cancelled"
)

// Statuses lists every valid status.
var Statuses = []EscrowStatus{StatusPending, StatusHeld, StatusReleased, StatusDisputed, StatusCancelled}

// ParseEscrowStatus validates s against the enumerated set.
func ParseEscrowStatus(s string) (EscrowStatus, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Escrow is a held-funds agreement between a buyer and a seller.
type Escrow struct {
	ID          string
	BuyerID     string
	SellerID    string
	Amount      decimal.Decimal
	Status      EscrowStatus
	CreatedAt   time.Time
	ReleasedAt  *time.Time
	DisputedAt  *time.Time
	Description string
}

// Key identifies the escrow in synchronized lists.
func (e Escrow) Key() string {
	return e.ID
}

// NewEscrow is the buyer's input for creating an escrow. The server assigns
// the id, the pending status and the creation time.
type NewEscrow struct {
	BuyerID     string
	SellerID    string
	Amount      decimal.Decimal
	Description string
}

// Validate checks the local preconditions of escrow creation.
func (n NewEscrow) Validate() error {
	if n.BuyerID == "" {
		return errors.New("buyer id is required")
	}
	if n.SellerID == "" {
		return errors.New("seller id is required")
	}
	if n.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ParseAmount converts user input into a non-negative decimal amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// FormatID renders numeric identifiers the way synchronized lists key them.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
