package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/escrowagent/internal/client/session"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeClient implements client.Client for service unit tests. Each field
// presets a result; Last* fields and counters capture the calls.
type fakeClient struct {
	mu sync.Mutex

	LoginRet  models.Credential
	LoginErr  error
	SignupErr error
	PingErr   error

	ProfileRet models.User
	ProfileErr error

	CreateRet models.Escrow
	CreateErr error

	PendingRet   []models.Escrow
	PendingErr   error
	PendingCalls int

	DisputedRet []models.Escrow
	DisputedErr error

	TransitionErr   error
	TransitionCalls int
	// TransitionGate, when set, blocks transitions until closed.
	TransitionGate chan struct{}
	// TransitionStarted is signalled when a transition call begins.
	TransitionStarted chan struct{}

	TxRet      []models.Transaction
	TxErr      error
	TxGetRet   models.Transaction
	TxCreate   models.Transaction
	TxCreateEr error
	LogsRet    []models.TransactionLog
	LogsErr    error
	FilesRet   []models.FileRef
	FilesErr   error

	AdvanceErr   error
	AdvanceCalls []string

	UpdateErr  error
	LastUpdate models.ProfileUpdate

	UsersRet []models.User
	UserRet  models.User
	AllTxRet []models.Transaction
	AdminErr error

	UploadRet   models.FileRef
	UploadErr   error
	UploadCalls int
	LastUpload  models.UploadedFile

	LastLoginPassword string
	LastSignupRole    models.Role
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Login(_ context.Context, _ string, password string) (models.Credential, error) {
	f.LastLoginPassword = password
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Signup(_ context.Context, _, _ string, role models.Role) error {
	f.LastSignupRole = role
	return f.SignupErr
}

func (f *fakeClient) GetProfile(context.Context) (models.User, error) {
	return f.ProfileRet, f.ProfileErr
}
func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) UpdateProfile(_ context.Context, u models.ProfileUpdate) error {
	f.LastUpdate = u
	return f.UpdateErr
}

func (f *fakeClient) CreateEscrow(context.Context, models.NewEscrow) (models.Escrow, error) {
	return f.CreateRet, f.CreateErr
}

func (f *fakeClient) ListPendingEscrows(context.Context) ([]models.Escrow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PendingCalls++
	return append([]models.Escrow(nil), f.PendingRet...), f.PendingErr
}

func (f *fakeClient) ListDisputedEscrows(context.Context) ([]models.Escrow, error) {
	return f.DisputedRet, f.DisputedErr
}

func (f *fakeClient) apply(e models.Escrow, to models.EscrowStatus) (models.Escrow, error) {
	f.mu.Lock()
	f.TransitionCalls++
	started, gate := f.TransitionStarted, f.TransitionGate
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.TransitionErr != nil {
		return models.Escrow{}, f.TransitionErr
	}
	e.Status = to
	return e, nil
}

func (f *fakeClient) ReleaseFunds(_ context.Context, e models.Escrow) (models.Escrow, error) {
	return f.apply(e, models.StatusReleased)
}

func (f *fakeClient) DisputeEscrow(_ context.Context, e models.Escrow) (models.Escrow, error) {
	return f.apply(e, models.StatusDisputed)
}

func (f *fakeClient) DepositEscrow(_ context.Context, e models.Escrow) (models.Escrow, error) {
	return f.apply(e, models.StatusHeld)
}

func (f *fakeClient) CancelEscrow(_ context.Context, e models.Escrow) (models.Escrow, error) {
	return f.apply(e, models.StatusCancelled)
}

func (f *fakeClient) ListTransactions(context.Context) ([]models.Transaction, error) {
	return f.TxRet, f.TxErr
}

func (f *fakeClient) GetTransaction(context.Context, int64) (models.Transaction, error) {
	return f.TxGetRet, f.TxErr
}

func (f *fakeClient) CreateTransaction(context.Context, int64, decimal.Decimal, models.EscrowStatus) (models.Transaction, error) {
	return f.TxCreate, f.TxCreateEr
}

func (f *fakeClient) ListTransactionLogs(context.Context, int64) ([]models.TransactionLog, error) {
	return f.LogsRet, f.LogsErr
}

func (f *fakeClient) ListTransactionFiles(context.Context, int64) ([]models.FileRef, error) {
	return f.FilesRet, f.FilesErr
}

func (f *fakeClient) advance(action string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AdvanceCalls = append(f.AdvanceCalls, action+":"+models.FormatID(id))
	return f.AdvanceErr
}

func (f *fakeClient) FulfillTransaction(_ context.Context, id int64) error {
	return f.advance("fulfill", id)
}

func (f *fakeClient) ConfirmTransaction(_ context.Context, id int64) error {
	return f.advance("confirm", id)
}

func (f *fakeClient) ListUsers(context.Context) ([]models.User, error) {
	return f.UsersRet, f.AdminErr
}

func (f *fakeClient) GetUser(context.Context, int64) (models.User, error) {
	return f.UserRet, f.AdminErr
}

func (f *fakeClient) ListAllTransactions(context.Context) ([]models.Transaction, error) {
	return f.AllTxRet, f.AdminErr
}

func (f *fakeClient) UploadFile(_ context.Context, file models.UploadedFile) (models.FileRef, error) {
	f.UploadCalls++
	f.LastUpload = file
	return f.UploadRet, f.UploadErr
}

// ---- helpers ----

func newStore(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.Open(context.Background(), metadata.NewMemoryRepository(), logging.Discard())
	require.NoError(t, err)
	return s
}

func loggedInStore(t *testing.T, role models.Roles) *session.Store {
	t.Helper()
	s := newStore(t)
	require.NoError(t, s.SetCredential(context.Background(), models.Credential{Token: "T", Role: role}))
	return s
}
