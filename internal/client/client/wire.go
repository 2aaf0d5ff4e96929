package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/shopspring/decimal"
)

// The server is inconsistent about field naming: the same record arrives
// as {"BuyerID": ...} from one endpoint and {"buyer_id": ...} from another,
// and identifiers are sometimes strings, sometimes numbers. Every response
// passes through exactly one of the *FromAPI functions below; nothing past
// this file sees a wire shape.

// wireObject is a decoded JSON object keyed by folded field names.
type wireObject map[string]json.RawMessage

// foldKey makes "BuyerID", "buyerId" and "buyer_id" the same key.
func foldKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

func decodeObject(b []byte) (wireObject, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("expected object, got %s", strings.TrimSpace(string(b)))
	}
	o := make(wireObject, len(raw))
	for k, v := range raw {
		o[foldKey(k)] = v
	}
	return o, nil
}

func decodeArray(b []byte) ([]wireObject, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make([]wireObject, 0, len(raw))
	for i, r := range raw {
		o, err := decodeObject(r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// lookup returns the first of names that is present and not null.
func (o wireObject) lookup(names ...string) (json.RawMessage, bool) {
	for _, n := range names {
		v, ok := o[foldKey(n)]
		if ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// flexID accepts both "42" and 42.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identifier must be a string or a number: %s", b)
	}
	*f = flexID(n.String())
	return nil
}

func (o wireObject) id(names ...string) (string, error) {
	v, ok := o.lookup(names...)
	if !ok {
		return "", nil
	}
	var f flexID
	if err := json.Unmarshal(v, &f); err != nil {
		return "", fmt.Errorf("%s: %w", names[0], err)
	}
	return string(f), nil
}

func (o wireObject) int64ID(names ...string) (int64, error) {
	s, err := o.id(names...)
	if err != nil || s == "" {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", names[0], s)
	}
	return n, nil
}

func (o wireObject) str(names ...string) (string, error) {
	v, ok := o.lookup(names...)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%s: %w", names[0], err)
	}
	return s, nil
}

func (o wireObject) amount(names ...string) (decimal.Decimal, error) {
	v, ok := o.lookup(names...)
	if !ok {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(v); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", names[0], err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s %s: %w", ErrProtocol, names[0], d, models.ErrNegativeAmount)
	}
	return d, nil
}

func (o wireObject) time(names ...string) (*time.Time, error) {
	v, ok := o.lookup(names...)
	if !ok {
		return nil, nil
	}
	var t time.Time
	if err := json.Unmarshal(v, &t); err != nil {
		return nil, fmt.Errorf("%s: %w", names[0], err)
	}
	return &t, nil
}

// status returns "" when the field is absent; anything present must be a
// known status.
func (o wireObject) status(names ...string) (models.EscrowStatus, error) {
	s, err := o.str(names...)
	if err != nil || s == "" {
		return "", err
	}
	return models.ParseEscrowStatus(s)
}

// transactionStatusAliases maps the words the fulfill and confirm endpoints
// write into the transaction lifecycle onto the canonical statuses.
var transactionStatusAliases = map[string]models.EscrowStatus{
	"deposited": models.StatusHeld,
	"completed": models.StatusReleased,
}

// transactionStatus is status for the transactions view, which never
// carries a dispute.
func (o wireObject) transactionStatus(names ...string) (models.EscrowStatus, error) {
	s, err := o.str(names...)
	if err != nil || s == "" {
		return "", err
	}
	if st, ok := transactionStatusAliases[s]; ok {
		return st, nil
	}
	st, err := models.ParseEscrowStatus(s)
	if err != nil {
		return "", err
	}
	if st == models.StatusDisputed {
		return "", fmt.Errorf("%w: %s: transaction status %q", ErrProtocol, names[0], s)
	}
	return st, nil
}

// fieldReader accumulates the first decoding error so the mapping functions
// read as a flat list of assignments.
type fieldReader struct {
	o   wireObject
	err error
}

func (r *fieldReader) id(names ...string) string {
	v, err := r.o.id(names...)
	r.keep(err)
	return v
}

func (r *fieldReader) int64ID(names ...string) int64 {
	v, err := r.o.int64ID(names...)
	r.keep(err)
	return v
}

func (r *fieldReader) str(names ...string) string {
	v, err := r.o.str(names...)
	r.keep(err)
	return v
}

func (r *fieldReader) amount(names ...string) decimal.Decimal {
	v, err := r.o.amount(names...)
	r.keep(err)
	return v
}

func (r *fieldReader) time(names ...string) *time.Time {
	v, err := r.o.time(names...)
	r.keep(err)
	return v
}

func (r *fieldReader) status(names ...string) models.EscrowStatus {
	v, err := r.o.status(names...)
	r.keep(err)
	return v
}

func (r *fieldReader) transactionStatus(names ...string) models.EscrowStatus {
	v, err := r.o.transactionStatus(names...)
	r.keep(err)
	return v
}

func (r *fieldReader) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func escrowFromAPI(o wireObject) (models.Escrow, error) {
	r := fieldReader{o: o}
	e := models.Escrow{
		ID:          r.id("ID", "escrow_id"),
		BuyerID:     r.id("BuyerID"),
		SellerID:    r.id("SellerID"),
		Amount:      r.amount("Amount"),
		Status:      r.status("Status"),
		CreatedAt:   derefTime(r.time("CreatedAt")),
		ReleasedAt:  r.time("ReleasedAt"),
		DisputedAt:  r.time("DisputedAt"),
		Description: r.str("Description"),
	}
	if r.err != nil {
		return models.Escrow{}, r.err
	}
	if e.ID == "" {
		return models.Escrow{}, fmt.Errorf("escrow without id")
	}
	return e, nil
}

// escrowAPI is the capitalized wire shape the escrow endpoints speak.
type escrowAPI struct {
	ID          string      `json:"ID,omitempty"`
	BuyerID     string      `json:"BuyerID"`
	SellerID    string      `json:"SellerID"`
	Amount      json.Number `json:"Amount"`
	Status      string      `json:"Status,omitempty"`
	CreatedAt   *time.Time  `json:"CreatedAt,omitempty"`
	ReleasedAt  *time.Time  `json:"ReleasedAt,omitempty"`
	DisputedAt  *time.Time  `json:"DisputedAt,omitempty"`
	Description string      `json:"Description"`
}

func escrowToAPI(e models.Escrow) escrowAPI {
	out := escrowAPI{
		ID:          e.ID,
		BuyerID:     e.BuyerID,
		SellerID:    e.SellerID,
		Amount:      json.Number(e.Amount.String()),
		Status:      string(e.Status),
		ReleasedAt:  e.ReleasedAt,
		DisputedAt:  e.DisputedAt,
		Description: e.Description,
	}
	if !e.CreatedAt.IsZero() {
		t := e.CreatedAt
		out.CreatedAt = &t
	}
	return out
}

func newEscrowToAPI(n models.NewEscrow) escrowAPI {
	return escrowToAPI(models.Escrow{
		BuyerID:     n.BuyerID,
		SellerID:    n.SellerID,
		Amount:      n.Amount,
		Description: n.Description,
	})
}

func escrowsFromAPI(b []byte) ([]models.Escrow, error) {
	objs, err := decodeArray(b)
	if err != nil {
		return nil, err
	}
	out := make([]models.Escrow, 0, len(objs))
	for i, o := range objs {
		e, err := escrowFromAPI(o)
		if err == nil && e.Status == "" {
			err = fmt.Errorf("escrow %s without status", e.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("escrow %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func transactionFromAPI(o wireObject) (models.Transaction, error) {
	r := fieldReader{o: o}
	t := models.Transaction{
		ID:        r.int64ID("transaction_id", "ID"),
		BuyerID:   r.int64ID("buyer_id"),
		SellerID:  r.int64ID("seller_id"),
		Amount:    r.amount("amount"),
		Status:    r.transactionStatus("transaction_status", "status"),
		CreatedAt: derefTime(r.time("created_at")),
		UpdatedAt: derefTime(r.time("updated_at")),
	}
	if r.err != nil {
		return models.Transaction{}, r.err
	}
	return t, nil
}

func transactionsFromAPI(b []byte) ([]models.Transaction, error) {
	objs, err := decodeArray(b)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(objs))
	for i, o := range objs {
		t, err := transactionFromAPI(o)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

type transactionAPI struct {
	SellerID int64       `json:"seller_id"`
	Amount   json.Number `json:"amount"`
	Status   string      `json:"transaction_status,omitempty"`
}

func transactionLogFromAPI(o wireObject) (models.TransactionLog, error) {
	r := fieldReader{o: o}
	l := models.TransactionLog{
		ID:            r.int64ID("log_id", "ID"),
		TransactionID: r.int64ID("transaction_id"),
		EventType:     r.str("event_type"),
		EventDetails:  r.str("event_details"),
		CreatedAt:     derefTime(r.time("created_at")),
	}
	return l, r.err
}

func transactionLogsFromAPI(b []byte) ([]models.TransactionLog, error) {
	objs, err := decodeArray(b)
	if err != nil {
		return nil, err
	}
	out := make([]models.TransactionLog, 0, len(objs))
	for i, o := range objs {
		l, err := transactionLogFromAPI(o)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		out = append(out, l)
	}
	return out, nil
}

func userFromAPI(o wireObject) (models.User, error) {
	r := fieldReader{o: o}
	u := models.User{
		ID:        r.int64ID("user_id", "ID"),
		Username:  r.str("username"),
		Role:      models.Roles(r.str("role")),
		CreatedAt: derefTime(r.time("created_at")),
	}
	return u, r.err
}

func usersFromAPI(b []byte) ([]models.User, error) {
	objs, err := decodeArray(b)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(objs))
	for i, o := range objs {
		u, err := userFromAPI(o)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
		out = append(out, u)
	}
	return out, nil
}

func fileRefsFromAPI(b []byte) ([]models.FileRef, error) {
	objs, err := decodeArray(b)
	if err != nil {
		return nil, err
	}
	out := make([]models.FileRef, 0, len(objs))
	for i, o := range objs {
		r := fieldReader{o: o}
		link := r.str("file_url", "url")
		if r.err != nil {
			return nil, fmt.Errorf("file %d: %w", i, r.err)
		}
		if link == "" {
			return nil, fmt.Errorf("file %d: no file_url", i)
		}
		out = append(out, models.FileRef{URL: link})
	}
	return out, nil
}

type credentialsAPI struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// profileUpdateAPI omits unchanged fields; the server only touches the
// ones present.
type profileUpdateAPI struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
}

type tokenAPI struct {
	Token string `json:"token"`
}

type fileRefAPI struct {
	FileURL string `json:"file_url"`
}
