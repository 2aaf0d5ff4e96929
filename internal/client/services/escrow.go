package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/inflight"
	"github.com/dmitrijs2005/escrowagent/internal/client/lifecycle"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/client/session"
	"github.com/dmitrijs2005/escrowagent/internal/client/syncer"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
	"github.com/shopspring/decimal"
)

// EscrowService keeps the pending-escrow and transaction lists and runs
// escrow actions against them.
//
// Lists are refreshed wholesale; a failed refresh keeps the previous list.
// Transitions are checked against the lifecycle table before any request,
// and each action rejects a second invocation with inflight.ErrInFlight
// while the first is outstanding.
type EscrowService interface {
	RefreshPending(ctx context.Context) error
	RefreshTransactions(ctx context.Context) error
	Pending() []models.Escrow
	Transactions() []models.Transaction
	Disputed(ctx context.Context) ([]models.Escrow, error)

	Create(ctx context.Context, in models.NewEscrow) (models.Escrow, error)
	Release(ctx context.Context, id string) (models.Escrow, error)
	Dispute(ctx context.Context, id string) (models.Escrow, error)
	Deposit(ctx context.Context, id string) (models.Escrow, error)
	Cancel(ctx context.Context, id string) (models.Escrow, error)

	CreateTransaction(ctx context.Context, sellerID int64, amount decimal.Decimal) (models.Transaction, error)
	Transaction(ctx context.Context, id int64) (models.Transaction, error)
	TransactionLogs(ctx context.Context, id int64) ([]models.TransactionLog, error)
	TransactionFiles(ctx context.Context, id int64) ([]models.FileRef, error)
	Fulfill(ctx context.Context, id int64) (models.Transaction, error)
	Confirm(ctx context.Context, id int64) (models.Transaction, error)
}

type escrowService struct {
	client client.Client
	store  *session.Store
	log    logging.Logger
	guard  *inflight.Guard

	pending      *syncer.List[models.Escrow]
	transactions *syncer.List[models.Transaction]

	// known holds the latest copy of every escrow this session has seen,
	// including ones that left the pending list after a transition.
	mu    sync.RWMutex
	known map[string]models.Escrow
}

func NewEscrowService(c client.Client, store *session.Store, guard *inflight.Guard, log logging.Logger) EscrowService {
	if guard == nil {
		guard = inflight.NewGuard()
	}
	return &escrowService{
		client:       c,
		store:        store,
		log:          log,
		guard:        guard,
		pending:      syncer.NewList[models.Escrow](),
		transactions: syncer.NewList[models.Transaction](),
		known:        make(map[string]models.Escrow),
	}
}

func (s *escrowService) remember(items ...models.Escrow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range items {
		s.known[e.ID] = e
	}
}

func (s *escrowService) lookup(id string) (models.Escrow, bool) {
	if e, ok := s.pending.Get(id); ok {
		return e, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.known[id]
	return e, ok
}

func (s *escrowService) RefreshPending(ctx context.Context) error {
	err := s.pending.Refresh(ctx, func(ctx context.Context) ([]models.Escrow, error) {
		items, err := s.client.ListPendingEscrows(ctx)
		if err == nil {
			s.remember(items...)
		}
		return items, err
	})
	if err != nil {
		s.log.Warn(ctx, "pending refresh failed, keeping previous list", "error", err)
		return expireOn(ctx, s.store, s.log, err)
	}
	s.log.Debug(ctx, "pending escrows refreshed", "count", s.pending.Len())
	return nil
}

func (s *escrowService) RefreshTransactions(ctx context.Context) error {
	err := s.transactions.Refresh(ctx, s.client.ListTransactions)
	if err != nil {
		s.log.Warn(ctx, "transactions refresh failed, keeping previous list", "error", err)
		return expireOn(ctx, s.store, s.log, err)
	}
	s.log.Debug(ctx, "transactions refreshed", "count", s.transactions.Len())
	return nil
}

func (s *escrowService) Pending() []models.Escrow {
	return s.pending.Items()
}

func (s *escrowService) Transactions() []models.Transaction {
	return s.transactions.Items()
}

func (s *escrowService) Disputed(ctx context.Context) ([]models.Escrow, error) {
	items, err := s.client.ListDisputedEscrows(ctx)
	if err != nil {
		return nil, expireOn(ctx, s.store, s.log, err)
	}
	s.remember(items...)
	return items, nil
}

func (s *escrowService) Create(ctx context.Context, in models.NewEscrow) (models.Escrow, error) {
	release, err := s.guard.Acquire("create escrow")
	if err != nil {
		return models.Escrow{}, err
	}
	defer release()

	e, err := s.client.CreateEscrow(ctx, in)
	if err != nil {
		return models.Escrow{}, expireOn(ctx, s.store, s.log, err)
	}

	s.remember(e)
	if e.Status == models.StatusPending {
		s.pending.AppendProvisional(e)
	}
	s.log.Info(ctx, "escrow created", "escrow_id", e.ID, "amount", e.Amount.String())
	return e, nil
}

type transitionFunc func(context.Context, models.Escrow) (models.Escrow, error)

func (s *escrowService) Release(ctx context.Context, id string) (models.Escrow, error) {
	return s.transition(ctx, id, models.StatusReleased, s.client.ReleaseFunds)
}

func (s *escrowService) Dispute(ctx context.Context, id string) (models.Escrow, error) {
	return s.transition(ctx, id, models.StatusDisputed, s.client.DisputeEscrow)
}

func (s *escrowService) Deposit(ctx context.Context, id string) (models.Escrow, error) {
	return s.transition(ctx, id, models.StatusHeld, s.client.DepositEscrow)
}

func (s *escrowService) Cancel(ctx context.Context, id string) (models.Escrow, error) {
	return s.transition(ctx, id, models.StatusCancelled, s.client.CancelEscrow)
}

// transition resolves id locally (refreshing the pending list once when it
// is unknown), checks the lifecycle table and only then calls the server.
// One transition per escrow may be outstanding at a time.
func (s *escrowService) transition(ctx context.Context, id string, to models.EscrowStatus, call transitionFunc) (models.Escrow, error) {
	release, err := s.guard.Acquire("escrow " + id)
	if err != nil {
		return models.Escrow{}, err
	}
	defer release()

	e, ok := s.lookup(id)
	if !ok {
		if err := s.RefreshPending(ctx); err != nil {
			return models.Escrow{}, err
		}
		if e, ok = s.lookup(id); !ok {
			return models.Escrow{}, fmt.Errorf("escrow %s: %w", id, client.ErrNotFound)
		}
	}

	if err := lifecycle.Validate(e.Status, to); err != nil {
		return models.Escrow{}, fmt.Errorf("escrow %s: %w", id, err)
	}

	updated, err := call(ctx, e)
	if err != nil {
		return models.Escrow{}, expireOn(ctx, s.store, s.log, err)
	}

	if updated.Status == models.StatusPending {
		s.pending.Replace(updated)
	} else {
		s.pending.Remove(updated.ID)
	}
	s.remember(updated)
	s.log.Info(ctx, "escrow status changed", "escrow_id", id, "from", string(e.Status), "to", string(updated.Status))
	return updated, nil
}

func (s *escrowService) CreateTransaction(ctx context.Context, sellerID int64, amount decimal.Decimal) (models.Transaction, error) {
	release, err := s.guard.Acquire("create transaction")
	if err != nil {
		return models.Transaction{}, err
	}
	defer release()

	t, err := s.client.CreateTransaction(ctx, sellerID, amount, models.StatusPending)
	if err != nil {
		return models.Transaction{}, expireOn(ctx, s.store, s.log, err)
	}
	s.transactions.AppendProvisional(t)
	s.log.Info(ctx, "transaction created", "transaction_id", t.ID)
	return t, nil
}

func (s *escrowService) Transaction(ctx context.Context, id int64) (models.Transaction, error) {
	t, err := s.client.GetTransaction(ctx, id)
	if err != nil {
		return models.Transaction{}, expireOn(ctx, s.store, s.log, err)
	}
	s.transactions.Replace(t)
	return t, nil
}

func (s *escrowService) TransactionLogs(ctx context.Context, id int64) ([]models.TransactionLog, error) {
	logs, err := s.client.ListTransactionLogs(ctx, id)
	if err != nil {
		return nil, expireOn(ctx, s.store, s.log, err)
	}
	return logs, nil
}

func (s *escrowService) TransactionFiles(ctx context.Context, id int64) ([]models.FileRef, error) {
	files, err := s.client.ListTransactionFiles(ctx, id)
	if err != nil {
		return nil, expireOn(ctx, s.store, s.log, err)
	}
	return files, nil
}

// Fulfill is the seller's side of a transaction: pending to held.
func (s *escrowService) Fulfill(ctx context.Context, id int64) (models.Transaction, error) {
	return s.advance(ctx, id, models.StatusHeld, s.client.FulfillTransaction)
}

// Confirm is the buyer's acceptance: held to released.
func (s *escrowService) Confirm(ctx context.Context, id int64) (models.Transaction, error) {
	return s.advance(ctx, id, models.StatusReleased, s.client.ConfirmTransaction)
}

// advance mirrors transition for the transactions list. The server answers
// with a message only, so the new status is applied locally and the next
// refresh reconciles it.
func (s *escrowService) advance(ctx context.Context, id int64, to models.EscrowStatus, call func(context.Context, int64) error) (models.Transaction, error) {
	key := models.FormatID(id)
	release, err := s.guard.Acquire("transaction " + key)
	if err != nil {
		return models.Transaction{}, err
	}
	defer release()

	t, ok := s.transactions.Get(key)
	if !ok {
		if err := s.RefreshTransactions(ctx); err != nil {
			return models.Transaction{}, err
		}
		if t, ok = s.transactions.Get(key); !ok {
			return models.Transaction{}, fmt.Errorf("transaction %s: %w", key, client.ErrNotFound)
		}
	}

	if err := lifecycle.Validate(t.Status, to); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", key, err)
	}

	if err := call(ctx, id); err != nil {
		return models.Transaction{}, expireOn(ctx, s.store, s.log, err)
	}

	from := t.Status
	t.Status = to
	t.UpdatedAt = time.Now().UTC()
	s.transactions.Replace(t)
	s.log.Info(ctx, "transaction status changed", "transaction_id", id, "from", string(from), "to", string(to))
	return t, nil
}
