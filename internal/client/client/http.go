package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/client/lifecycle"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/client/session"
	"github.com/dmitrijs2005/escrowagent/internal/common"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
	"github.com/dmitrijs2005/escrowagent/internal/netx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultSignupPath = "/register"

	maxErrorBody    = 4 << 10
	maxResponseBody = 8 << 20
)

type HTTPClient struct {
	baseURL    string
	signupPath string
	creds      CredentialSource
	http       *http.Client
	log        logging.Logger
	now        func() time.Time
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

func WithLogger(l logging.Logger) Option {
	return func(h *HTTPClient) { h.log = l }
}

// WithSignupPath selects the registration endpoint; servers differ between
// /register and /signup.
func WithSignupPath(p string) Option {
	return func(h *HTTPClient) {
		if p != "" {
			h.signupPath = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *HTTPClient) { h.now = now }
}

func NewHTTPClient(baseURL string, creds CredentialSource, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signupPath: DefaultSignupPath,
		creds:      creds,
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        logging.Discard(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// rejectedAsForbidden is for endpoints whose server answers 401, not 403,
// when the caller lacks the role or does not own the record. Such a 401
// says nothing about the token, so it must not end the session.
var rejectedAsForbidden = map[int]error{http.StatusUnauthorized: ErrForbidden}

type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	auth        bool
	overrides   map[int]error
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// credential returns the current credential or ErrUnauthenticated.
func (c *HTTPClient) credential() (models.Credential, error) {
	if c.creds == nil {
		return models.Credential{}, ErrUnauthenticated
	}
	cred, ok := c.creds.Credential()
	if !ok {
		return models.Credential{}, ErrUnauthenticated
	}
	return cred, nil
}

// send performs r and returns the body of a 2xx answer. Anything else is
// classified: transport failures as ErrNetwork, non-2xx as *StatusError.
func (c *HTTPClient) send(ctx context.Context, r request) ([]byte, error) {
	var token string
	if r.auth {
		cred, err := c.credential()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.op, err)
		}
		token = cred.Token
	}

	req, err := http.NewRequestWithContext(ctx, r.method, netx.JoinURL(c.baseURL, r.path), r.body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}

	reqID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, reqID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	log := c.log.With("op", r.op, "method", r.method, "path", r.path, "request_id", reqID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn(ctx, "request failed", "error", err, "duration", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil && !netx.IsTransportError(ctxErr) {
			return nil, fmt.Errorf("%s: %w", r.op, ctxErr)
		}
		return nil, fmt.Errorf("%s: %w: %v", r.op, ErrNetwork, err)
	}
	defer resp.Body.Close()

	log.Debug(ctx, "request done", "status", resp.StatusCode, "duration", time.Since(start))

	if !netx.IsSuccess(resp.StatusCode) {
		serr := &StatusError{
			Op:      r.op,
			Code:    resp.StatusCode,
			Message: common.Truncate(netx.ReadSnippet(resp.Body, maxErrorBody), 200),
			Kind:    classify(resp.StatusCode, r.overrides),
		}
		log.Warn(ctx, "request rejected", "status", resp.StatusCode, "message", serr.Message)
		return nil, serr
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read body: %v", r.op, ErrNetwork, err)
	}
	return b, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (models.Credential, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return models.Credential{}, fmt.Errorf("login: %w: username and password are required", ErrValidation)
	}

	body, err := jsonBody(credentialsAPI{Username: username, Password: password})
	if err != nil {
		return models.Credential{}, fmt.Errorf("login: %w", err)
	}

	b, err := c.send(ctx, request{
		op: "login", method: http.MethodPost, path: "/login",
		body: body, contentType: "application/json",
		overrides: map[int]error{http.StatusUnauthorized: ErrAuthFailed},
	})
	if err != nil {
		return models.Credential{}, err
	}

	var tok tokenAPI
	if err := json.Unmarshal(b, &tok); err != nil {
		return models.Credential{}, protocolError("login", err)
	}
	if tok.Token == "" {
		return models.Credential{}, protocolError("login", errors.New("no token in response"))
	}

	role, err := session.RoleFromToken(tok.Token)
	if err != nil {
		c.log.Debug(ctx, "role not readable from token", "error", err)
	}
	return models.Credential{Token: tok.Token, Role: role}, nil
}

// Signup registers a user. Any rejection other than a duplicate username
// (ErrConflict) or a server failure (ErrNetwork) is a ErrValidation.
func (c *HTTPClient) Signup(ctx context.Context, username, password string, role models.Role) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("signup: %w: username and password are required", ErrValidation)
	}

	body, err := jsonBody(credentialsAPI{Username: username, Password: password, Role: string(role)})
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}

	overrides := map[int]error{}
	for code := 400; code < 500; code++ {
		if code != http.StatusConflict {
			overrides[code] = ErrValidation
		}
	}

	_, err = c.send(ctx, request{
		op: "signup", method: http.MethodPost, path: c.signupPath,
		body: body, contentType: "application/json",
		overrides: overrides,
	})
	return err
}

func (c *HTTPClient) GetProfile(ctx context.Context) (models.User, error) {
	b, err := c.send(ctx, request{op: "profile", method: http.MethodGet, path: "/profile", auth: true})
	if err != nil {
		return models.User{}, err
	}
	o, err := decodeObject(b)
	if err != nil {
		return models.User{}, protocolError("profile", err)
	}
	u, err := userFromAPI(o)
	if err != nil {
		return models.User{}, protocolError("profile", err)
	}
	return u, nil
}

// UpdateProfile changes the caller's username, password or role. Only the
// non-empty fields are sent.
func (c *HTTPClient) UpdateProfile(ctx context.Context, u models.ProfileUpdate) error {
	const op = "update profile"

	if err := u.Validate(); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrValidation, err)
	}

	body, err := jsonBody(profileUpdateAPI{Username: u.Username, Password: u.Password, Role: string(u.Role)})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = c.send(ctx, request{
		op: op, method: http.MethodPut, path: "/profile",
		body: body, contentType: "application/json", auth: true,
	})
	return err
}

// Ping reports whether the server answers at all. Any HTTP status counts.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w: %v", ErrNetwork, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *HTTPClient) requireRole(op string, role models.Role) error {
	cred, err := c.credential()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !cred.Role.Has(role) {
		return fmt.Errorf("%s: %w: requires role %s", op, ErrForbidden, role)
	}
	return nil
}

func (c *HTTPClient) CreateEscrow(ctx context.Context, in models.NewEscrow) (models.Escrow, error) {
	if err := c.requireRole("create escrow", models.RoleBuyer); err != nil {
		return models.Escrow{}, err
	}
	if err := in.Validate(); err != nil {
		return models.Escrow{}, fmt.Errorf("create escrow: %w: %v", ErrValidation, err)
	}

	body, err := jsonBody(newEscrowToAPI(in))
	if err != nil {
		return models.Escrow{}, fmt.Errorf("create escrow: %w", err)
	}

	b, err := c.send(ctx, request{
		op: "create escrow", method: http.MethodPost, path: "/escrow",
		body: body, contentType: "application/json", auth: true,
	})
	if err != nil {
		return models.Escrow{}, err
	}

	o, err := decodeObject(b)
	if err != nil {
		return models.Escrow{}, protocolError("create escrow", err)
	}
	e, err := escrowFromAPI(o)
	if err != nil {
		return models.Escrow{}, protocolError("create escrow", err)
	}
	if e.Status == "" {
		e.Status = models.StatusPending
	}
	return e, nil
}

// ListPendingEscrows keeps only pending records, in server order.
func (c *HTTPClient) ListPendingEscrows(ctx context.Context) ([]models.Escrow, error) {
	all, err := c.listEscrows(ctx, "pending escrows", "/escrow/pending")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.Status == models.StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *HTTPClient) ListDisputedEscrows(ctx context.Context) ([]models.Escrow, error) {
	return c.listEscrows(ctx, "disputed escrows", "/escrow/disputed")
}

func (c *HTTPClient) listEscrows(ctx context.Context, op, path string) ([]models.Escrow, error) {
	b, err := c.send(ctx, request{op: op, method: http.MethodGet, path: path, auth: true})
	if err != nil {
		return nil, err
	}
	out, err := escrowsFromAPI(b)
	if err != nil {
		return nil, protocolError(op, err)
	}
	return out, nil
}

func (c *HTTPClient) ReleaseFunds(ctx context.Context, e models.Escrow) (models.Escrow, error) {
	return c.transition(ctx, e, models.StatusReleased, "release")
}

func (c *HTTPClient) DisputeEscrow(ctx context.Context, e models.Escrow) (models.Escrow, error) {
	return c.transition(ctx, e, models.StatusDisputed, "dispute")
}

func (c *HTTPClient) DepositEscrow(ctx context.Context, e models.Escrow) (models.Escrow, error) {
	return c.transition(ctx, e, models.StatusHeld, "deposit")
}

func (c *HTTPClient) CancelEscrow(ctx context.Context, e models.Escrow) (models.Escrow, error) {
	return c.transition(ctx, e, models.StatusCancelled, "cancel")
}

// transition checks credential and lifecycle locally, then posts the action.
// A body carrying the updated escrow is taken as is; an empty answer means
// the transition is applied locally.
func (c *HTTPClient) transition(ctx context.Context, e models.Escrow, to models.EscrowStatus, action string) (models.Escrow, error) {
	op := action + " escrow " + e.ID

	if _, err := c.credential(); err != nil {
		return models.Escrow{}, fmt.Errorf("%s: %w", op, err)
	}
	if e.ID == "" {
		return models.Escrow{}, fmt.Errorf("%s: %w: escrow id is required", op, ErrValidation)
	}
	next, err := lifecycle.Apply(e, to, c.now())
	if err != nil {
		return models.Escrow{}, fmt.Errorf("%s: %w", op, err)
	}

	b, err := c.send(ctx, request{
		op: op, method: http.MethodPost,
		path: "/escrow/" + url.PathEscape(e.ID) + "/" + action,
		auth: true,
	})
	if err != nil {
		return models.Escrow{}, err
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return next, nil
	}
	o, err := decodeObject(b)
	if err != nil {
		// some servers answer with a plain message
		return next, nil
	}
	updated, err := escrowFromAPI(o)
	if err != nil || updated.Status != to {
		return next, nil
	}
	return updated, nil
}

func (c *HTTPClient) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	b, err := c.send(ctx, request{op: "transactions", method: http.MethodGet, path: "/transactions", auth: true})
	if err != nil {
		return nil, err
	}
	out, err := transactionsFromAPI(b)
	if err != nil {
		return nil, protocolError("transactions", err)
	}
	return out, nil
}

func (c *HTTPClient) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	op := "transaction " + strconv.FormatInt(id, 10)
	b, err := c.send(ctx, request{
		op: op, method: http.MethodGet, path: transactionPath(id),
		auth: true, overrides: rejectedAsForbidden,
	})
	if err != nil {
		return models.Transaction{}, err
	}
	o, err := decodeObject(b)
	if err != nil {
		return models.Transaction{}, protocolError(op, err)
	}
	t, err := transactionFromAPI(o)
	if err != nil {
		return models.Transaction{}, protocolError(op, err)
	}
	return t, nil
}

func (c *HTTPClient) CreateTransaction(ctx context.Context, sellerID int64, amount decimal.Decimal, status models.EscrowStatus) (models.Transaction, error) {
	const op = "create transaction"

	if err := c.requireRole(op, models.RoleBuyer); err != nil {
		return models.Transaction{}, err
	}
	if sellerID <= 0 {
		return models.Transaction{}, fmt.Errorf("%s: %w: seller id is required", op, ErrValidation)
	}
	if !amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("%s: %w: amount must be positive", op, ErrValidation)
	}

	body, err := jsonBody(transactionAPI{SellerID: sellerID, Amount: json.Number(amount.String()), Status: string(status)})
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}

	b, err := c.send(ctx, request{
		op: op, method: http.MethodPost, path: "/transactions",
		body: body, contentType: "application/json", auth: true,
	})
	if err != nil {
		return models.Transaction{}, err
	}
	o, err := decodeObject(b)
	if err != nil {
		return models.Transaction{}, protocolError(op, err)
	}
	t, err := transactionFromAPI(o)
	if err != nil {
		return models.Transaction{}, protocolError(op, err)
	}
	return t, nil
}

func (c *HTTPClient) ListTransactionLogs(ctx context.Context, transactionID int64) ([]models.TransactionLog, error) {
	op := "logs " + strconv.FormatInt(transactionID, 10)
	b, err := c.send(ctx, request{op: op, method: http.MethodGet, path: "/logs/" + strconv.FormatInt(transactionID, 10), auth: true})
	if err != nil {
		return nil, err
	}
	out, err := transactionLogsFromAPI(b)
	if err != nil {
		return nil, protocolError(op, err)
	}
	return out, nil
}

func transactionPath(id int64, rest ...string) string {
	return strings.Join(append([]string{"/transactions", strconv.FormatInt(id, 10)}, rest...), "/")
}

// FulfillTransaction is the seller marking a pending transaction as
// delivered; the server moves it to held.
func (c *HTTPClient) FulfillTransaction(ctx context.Context, id int64) error {
	return c.advanceTransaction(ctx, id, "fulfill", models.RoleSeller)
}

// ConfirmTransaction is the buyer accepting delivery of a held
// transaction; the server moves it to released.
func (c *HTTPClient) ConfirmTransaction(ctx context.Context, id int64) error {
	return c.advanceTransaction(ctx, id, "confirm", models.RoleBuyer)
}

// advanceTransaction answers with a message only; callers apply the new
// status locally or re-read the transaction.
func (c *HTTPClient) advanceTransaction(ctx context.Context, id int64, action string, role models.Role) error {
	op := action + " transaction " + strconv.FormatInt(id, 10)

	if err := c.requireRole(op, role); err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("%s: %w: transaction id is required", op, ErrValidation)
	}

	_, err := c.send(ctx, request{
		op: op, method: http.MethodPut, path: transactionPath(id, action),
		auth: true, overrides: rejectedAsForbidden,
	})
	return err
}

// ListTransactionFiles lists the files attached to a transaction the caller
// takes part in.
func (c *HTTPClient) ListTransactionFiles(ctx context.Context, id int64) ([]models.FileRef, error) {
	op := "files " + strconv.FormatInt(id, 10)
	b, err := c.send(ctx, request{
		op: op, method: http.MethodGet, path: transactionPath(id, "files"),
		auth: true, overrides: rejectedAsForbidden,
	})
	if err != nil {
		return nil, err
	}
	out, err := fileRefsFromAPI(b)
	if err != nil {
		return nil, protocolError(op, err)
	}
	return out, nil
}

// UploadFile posts f as the multipart field "file". A missing credential is
// ErrUnauthenticated; every other failure is ErrUploadFailed.
func (c *HTTPClient) UploadFile(ctx context.Context, f models.UploadedFile) (models.FileRef, error) {
	const op = "upload"

	if _, err := c.credential(); err != nil {
		return models.FileRef{}, fmt.Errorf("%s: %w", op, err)
	}
	if f.Name == "" {
		return models.FileRef{}, fmt.Errorf("%s: %w: file name is required", op, ErrValidation)
	}

	body, contentType, err := netx.MultipartFile("file", f.Name, f.Content)
	if err != nil {
		return models.FileRef{}, fmt.Errorf("%s: %w: %v", op, ErrUploadFailed, err)
	}

	b, err := c.send(ctx, request{
		op: op, method: http.MethodPost, path: "/upload",
		body: body, contentType: contentType, auth: true,
	})
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return models.FileRef{}, err
		}
		return models.FileRef{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	var ref fileRefAPI
	if err := json.Unmarshal(b, &ref); err != nil || ref.FileURL == "" {
		return models.FileRef{}, fmt.Errorf("%s: %w: no file_url in response", op, ErrUploadFailed)
	}
	return models.FileRef{URL: ref.FileURL}, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "users"
	b, err := c.adminGet(ctx, op, "/admin/users")
	if err != nil {
		return nil, err
	}
	out, err := usersFromAPI(b)
	if err != nil {
		return nil, protocolError(op, err)
	}
	return out, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, id int64) (models.User, error) {
	op := "user " + strconv.FormatInt(id, 10)
	if id <= 0 {
		return models.User{}, fmt.Errorf("%s: %w: user id is required", op, ErrValidation)
	}
	b, err := c.adminGet(ctx, op, "/admin/users/"+strconv.FormatInt(id, 10))
	if err != nil {
		return models.User{}, err
	}
	o, err := decodeObject(b)
	if err != nil {
		return models.User{}, protocolError(op, err)
	}
	u, err := userFromAPI(o)
	if err != nil {
		return models.User{}, protocolError(op, err)
	}
	return u, nil
}

// ListAllTransactions is the admin view over every user's transactions.
func (c *HTTPClient) ListAllTransactions(ctx context.Context) ([]models.Transaction, error) {
	const op = "all transactions"
	b, err := c.adminGet(ctx, op, "/admin/transactions")
	if err != nil {
		return nil, err
	}
	out, err := transactionsFromAPI(b)
	if err != nil {
		return nil, protocolError(op, err)
	}
	return out, nil
}

// adminGet is refused locally unless the credential carries the admin role.
func (c *HTTPClient) adminGet(ctx context.Context, op, path string) ([]byte, error) {
	if err := c.requireRole(op, models.RoleAdmin); err != nil {
		return nil, err
	}
	return c.send(ctx, request{
		op: op, method: http.MethodGet, path: path,
		auth: true, overrides: rejectedAsForbidden,
	})
}
