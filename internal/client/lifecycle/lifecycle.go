// Package lifecycle is the authoritative local gate for escrow status
// changes. It is pure: no I/O, no clock of its own.
//
//	pending ──> held ──> released
//	   │  │       │
//	   │  └──> disputed <──┘
//	   └──> cancelled
//
// released, disputed and cancelled are terminal.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/client/models"
)

// ErrInvalidTransition is returned for any status change outside the table.
var ErrInvalidTransition = errors.New("invalid transition")

var allowedTransitions = map[models.EscrowStatus][]models.EscrowStatus{
	models.StatusPending:   {models.StatusHeld, models.StatusCancelled, models.StatusDisputed},
	models.StatusHeld:      {models.StatusReleased, models.StatusDisputed},
	models.StatusReleased:  {},
	models.StatusDisputed:  {},
	models.StatusCancelled: {},
}

// Allowed returns the statuses reachable from from in one step. The result
// is a copy; unknown statuses have no successors.
func Allowed(from models.EscrowStatus) []models.EscrowStatus {
	next := allowedTransitions[from]
	out := make([]models.EscrowStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to models.EscrowStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Validate returns ErrInvalidTransition, annotated with both states, unless
// from -> to is allowed.
func Validate(from, to models.EscrowStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.EscrowStatus) bool {
	next, known := allowedTransitions[s]
	return known && len(next) == 0
}

// Apply returns a copy of e moved to status to, stamping released_at or
// disputed_at with now where the target calls for it. e is not modified.
func Apply(e models.Escrow, to models.EscrowStatus, now time.Time) (models.Escrow, error) {
	if err := Validate(e.Status, to); err != nil {
		return e, err
	}

	e.Status = to
	switch to {
	case models.StatusReleased:
		e.ReleasedAt = &now
	case models.StatusDisputed:
		e.DisputedAt = &now
	}
	return e, nil
}
