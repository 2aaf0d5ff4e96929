package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/client/config"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
	"github.com/shopspring/decimal"
)

func stubTexts(t *testing.T, answers ...string) {
	t.Helper()
	orig := getSimpleText
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		s := answers[i]
		i++
		return s, nil
	}
	t.Cleanup(func() { getSimpleText = orig })
}

func stubPassword(t *testing.T, pw []byte, err error) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return pw, err }
	t.Cleanup(func() { getPassword = orig })
}

func stubMultiline(t *testing.T, text string) {
	t.Helper()
	orig := getMultiline
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return text, nil }
	t.Cleanup(func() { getMultiline = orig })
}

type fakeAuth struct {
	loggedIn bool

	signupUser string
	signupPass []byte
	signupRole models.Role
	signupErr  error

	loginUser string
	loginPass []byte
	loginCred models.Credential
	loginErr  error

	logoutCalled bool
	logoutErr    error

	profile    models.User
	profileErr error

	updateUser string
	updatePass []byte
	updateRole models.Roles
	updated    models.User
	updateErr  error

	pingErr error
	pings   atomic.Int32
}

func (f *fakeAuth) Signup(_ context.Context, user string, pass []byte, role models.Role) error {
	f.signupUser, f.signupPass, f.signupRole = user, append([]byte(nil), pass...), role
	return f.signupErr
}

func (f *fakeAuth) Login(_ context.Context, user string, pass []byte) (models.Credential, error) {
	f.loginUser, f.loginPass = user, append([]byte(nil), pass...)
	if f.loginErr != nil {
		return models.Credential{}, f.loginErr
	}
	f.loggedIn = true
	return f.loginCred, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logoutCalled = true
	if f.logoutErr == nil {
		f.loggedIn = false
	}
	return f.logoutErr
}

func (f *fakeAuth) Profile(context.Context) (models.User, error) {
	return f.profile, f.profileErr
}

func (f *fakeAuth) UpdateProfile(_ context.Context, user string, pass []byte, role models.Roles) (models.User, error) {
	f.updateUser, f.updatePass, f.updateRole = user, append([]byte(nil), pass...), role
	return f.updated, f.updateErr
}

func (f *fakeAuth) IsLoggedIn() bool { return f.loggedIn }

func (f *fakeAuth) Ping(context.Context) error {
	f.pings.Add(1)
	return f.pingErr
}

type fakeEscrow struct {
	pending    []models.Escrow
	refreshErr error

	txs          []models.Transaction
	txRefreshErr error

	disputed    []models.Escrow
	disputedErr error

	created      models.NewEscrow
	createCalled bool
	createResult models.Escrow
	createErr    error

	transitions   []string
	transitionErr error

	newTxSeller int64
	newTxAmount decimal.Decimal
	newTx       models.Transaction
	newTxErr    error

	logsID  int64
	logs    []models.TransactionLog
	logsErr error

	advanced   []string
	advanceErr error

	filesID  int64
	files    []models.FileRef
	filesErr error
}

func (f *fakeEscrow) RefreshPending(context.Context) error      { return f.refreshErr }
func (f *fakeEscrow) RefreshTransactions(context.Context) error { return f.txRefreshErr }
func (f *fakeEscrow) Pending() []models.Escrow                  { return f.pending }
func (f *fakeEscrow) Transactions() []models.Transaction        { return f.txs }

func (f *fakeEscrow) Disputed(context.Context) ([]models.Escrow, error) {
	return f.disputed, f.disputedErr
}

func (f *fakeEscrow) Create(_ context.Context, in models.NewEscrow) (models.Escrow, error) {
	f.created, f.createCalled = in, true
	return f.createResult, f.createErr
}

func (f *fakeEscrow) move(action, id string, to models.EscrowStatus) (models.Escrow, error) {
	f.transitions = append(f.transitions, action+":"+id)
	if f.transitionErr != nil {
		return models.Escrow{}, f.transitionErr
	}
	return models.Escrow{ID: id, Status: to}, nil
}

func (f *fakeEscrow) Release(_ context.Context, id string) (models.Escrow, error) {
	return f.move("release", id, models.StatusReleased)
}

func (f *fakeEscrow) Dispute(_ context.Context, id string) (models.Escrow, error) {
	return f.move("dispute", id, models.StatusDisputed)
}

func (f *fakeEscrow) Deposit(_ context.Context, id string) (models.Escrow, error) {
	return f.move("deposit", id, models.StatusHeld)
}

func (f *fakeEscrow) Cancel(_ context.Context, id string) (models.Escrow, error) {
	return f.move("cancel", id, models.StatusCancelled)
}

func (f *fakeEscrow) CreateTransaction(_ context.Context, sellerID int64, amount decimal.Decimal) (models.Transaction, error) {
	f.newTxSeller, f.newTxAmount = sellerID, amount
	return f.newTx, f.newTxErr
}

func (f *fakeEscrow) Transaction(_ context.Context, id int64) (models.Transaction, error) {
	return models.Transaction{ID: id}, nil
}

func (f *fakeEscrow) TransactionLogs(_ context.Context, id int64) ([]models.TransactionLog, error) {
	f.logsID = id
	return f.logs, f.logsErr
}

func (f *fakeEscrow) TransactionFiles(_ context.Context, id int64) ([]models.FileRef, error) {
	f.filesID = id
	return f.files, f.filesErr
}

func (f *fakeEscrow) advance(action string, id int64, to models.EscrowStatus) (models.Transaction, error) {
	f.advanced = append(f.advanced, action+":"+models.FormatID(id))
	if f.advanceErr != nil {
		return models.Transaction{}, f.advanceErr
	}
	return models.Transaction{ID: id, Status: to}, nil
}

func (f *fakeEscrow) Fulfill(_ context.Context, id int64) (models.Transaction, error) {
	return f.advance("fulfill", id, models.StatusHeld)
}

func (f *fakeEscrow) Confirm(_ context.Context, id int64) (models.Transaction, error) {
	return f.advance("confirm", id, models.StatusReleased)
}

type fakeAdmin struct {
	users  []models.User
	user   models.User
	userID int64
	txs    []models.Transaction
	err    error
}

func (f *fakeAdmin) Users(context.Context) ([]models.User, error) { return f.users, f.err }

func (f *fakeAdmin) User(_ context.Context, id int64) (models.User, error) {
	f.userID = id
	return f.user, f.err
}

func (f *fakeAdmin) Transactions(context.Context) ([]models.Transaction, error) { return f.txs, f.err }

type fakeUpload struct {
	path string
	ref  models.FileRef
	err  error
}

func (f *fakeUpload) Upload(_ context.Context, path string) (models.FileRef, error) {
	f.path = path
	return f.ref, f.err
}

func newTestApp(auth *fakeAuth, escrow *fakeEscrow, upload *fakeUpload) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		config:        &config.Config{OnlineCheckInterval: time.Hour},
		authService:   auth,
		escrowService: escrow,
		uploadService: upload,
		adminService:  &fakeAdmin{},
		log:           logging.Discard(),
		reader:        bufio.NewReader(strings.NewReader("")),
		out:           out,
	}, out
}
