package client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustObject(t *testing.T, s string) wireObject {
	t.Helper()
	o, err := decodeObject([]byte(s))
	require.NoError(t, err)
	return o
}

// decimalComparer lets cmp compare decimal values numerically.
var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestEscrowFromAPI_CapitalizedRoundTrip(t *testing.T) {
	in := `{"ID":"e1","BuyerID":"b1","SellerID":"s1","Amount":10,"Status":"pending","CreatedAt":"2024-01-01T00:00:00Z","Description":"d"}`

	e, err := escrowFromAPI(mustObject(t, in))
	require.NoError(t, err)

	want := models.Escrow{
		ID:          "e1",
		BuyerID:     "b1",
		SellerID:    "s1",
		Amount:      decimal.NewFromInt(10),
		Status:      models.StatusPending,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description: "d",
	}
	if diff := cmp.Diff(want, e, decimalComparer); diff != "" {
		t.Fatalf("escrow mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(escrowToAPI(e))
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestEscrowFromAPI_SnakeCaseAndNumericIDs(t *testing.T) {
	in := `{"id":7,"buyer_id":4,"seller_id":"2","amount":"25.50","status":"disputed",
		"created_at":"2024-01-01T00:00:00Z","disputed_at":"2024-01-02T00:00:00Z","released_at":null,"description":"x"}`

	e, err := escrowFromAPI(mustObject(t, in))
	require.NoError(t, err)

	assert.Equal(t, "7", e.ID)
	assert.Equal(t, "4", e.BuyerID)
	assert.Equal(t, "2", e.SellerID)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("25.5")))
	assert.Equal(t, models.StatusDisputed, e.Status)
	require.NotNil(t, e.DisputedAt)
	assert.Nil(t, e.ReleasedAt)
}

func TestEscrowFromAPI_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown status", `{"ID":"e1","Status":"frozen"}`},
		{"missing id", `{"Status":"pending"}`},
		{"bad amount", `{"ID":"e1","Amount":"ten","Status":"pending"}`},
		{"bad id type", `{"ID":true,"Status":"pending"}`},
		{"bad time", `{"ID":"e1","Status":"pending","CreatedAt":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := escrowFromAPI(mustObject(t, tt.in))
			require.Error(t, err)
		})
	}

	_, err := escrowFromAPI(mustObject(t, `{"ID":"e1","Status":"frozen"}`))
	require.ErrorIs(t, err, models.ErrUnknownStatus)
}

func TestEscrowsFromAPI_RequiresStatus(t *testing.T) {
	_, err := escrowsFromAPI([]byte(`[{"ID":"e1"}]`))
	require.Error(t, err)

	out, err := escrowsFromAPI([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewEscrowToAPI_Shape(t *testing.T) {
	b, err := json.Marshal(newEscrowToAPI(models.NewEscrow{
		BuyerID: "4", SellerID: "2", Amount: decimal.NewFromInt(25), Description: "x",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"BuyerID":"4","SellerID":"2","Amount":25,"Description":"x"}`, string(b))
}

func TestTransactionFromAPI(t *testing.T) {
	for _, in := range []string{
		`{"transaction_id":3,"buyer_id":1,"seller_id":2,"amount":12.5,"transaction_status":"held","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"}`,
		`{"TransactionID":3,"BuyerID":1,"SellerID":2,"Amount":12.5,"Status":"held","CreatedAt":"2024-01-01T00:00:00Z","UpdatedAt":"2024-01-02T00:00:00Z"}`,
	} {
		tx, err := transactionFromAPI(mustObject(t, in))
		require.NoError(t, err)

		want := models.Transaction{
			ID: 3, BuyerID: 1, SellerID: 2,
			Amount:    decimal.RequireFromString("12.5"),
			Status:    models.StatusHeld,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		}
		if diff := cmp.Diff(want, tx, decimalComparer); diff != "" {
			t.Fatalf("transaction mismatch for %s (-want +got):\n%s", in, diff)
		}
	}
}

func TestFromAPI_RejectsNegativeAmount(t *testing.T) {
	_, err := escrowsFromAPI([]byte(`[{"ID":"e1","BuyerID":"4","SellerID":"2","Amount":-10,"Status":"pending"}]`))
	require.ErrorIs(t, err, ErrProtocol)
	require.ErrorIs(t, err, models.ErrNegativeAmount)

	_, err = escrowFromAPI(mustObject(t, `{"ID":"e1","Amount":"-0.01","Status":"held"}`))
	require.ErrorIs(t, err, ErrProtocol)

	_, err = transactionsFromAPI([]byte(`[{"transaction_id":1,"buyer_id":1,"seller_id":2,"amount":-3,"transaction_status":"pending"}]`))
	require.ErrorIs(t, err, ErrProtocol)
	require.ErrorIs(t, err, models.ErrNegativeAmount)

	e, err := escrowFromAPI(mustObject(t, `{"ID":"e1","Amount":0,"Status":"pending"}`))
	require.NoError(t, err, "zero is a valid amount")
	assert.True(t, e.Amount.IsZero())
}

func TestTransactionFromAPI_RejectsDisputed(t *testing.T) {
	for _, in := range []string{
		`{"transaction_id":4,"amount":5,"transaction_status":"disputed"}`,
		`{"transaction_id":4,"amount":5,"status":"disputed"}`,
	} {
		_, err := transactionFromAPI(mustObject(t, in))
		require.ErrorIs(t, err, ErrProtocol, in)
	}

	_, err := transactionsFromAPI([]byte(`[{"transaction_id":4,"transaction_status":"pending"},{"transaction_id":5,"transaction_status":"disputed"}]`))
	require.ErrorIs(t, err, ErrProtocol)

	// the escrow view does carry disputes
	e, err := escrowFromAPI(mustObject(t, `{"ID":"e1","Status":"disputed"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisputed, e.Status)
}

func TestTransactionFromAPI_FulfilmentStatuses(t *testing.T) {
	tx, err := transactionFromAPI(mustObject(t, `{"transaction_id":4,"transaction_status":"deposited"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusHeld, tx.Status)

	tx, err = transactionFromAPI(mustObject(t, `{"transaction_id":4,"status":"completed"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusReleased, tx.Status)

	_, err = transactionFromAPI(mustObject(t, `{"transaction_id":4,"status":"shipped"}`))
	require.ErrorIs(t, err, models.ErrUnknownStatus)
}

func TestTransactionFromAPI_NonIntegerID(t *testing.T) {
	_, err := transactionFromAPI(mustObject(t, `{"transaction_id":"abc"}`))
	require.Error(t, err)
}

func TestUserFromAPI(t *testing.T) {
	u, err := userFromAPI(mustObject(t, `{"UserID":5,"Username":"ann","Role":"buyer, seller","CreatedAt":"2024-01-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, "ann", u.Username)
	assert.True(t, u.Role.Has(models.RoleSeller))

	u, err = userFromAPI(mustObject(t, `{"user_id":"6","username":"bob","role":"admin"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(6), u.ID)
	assert.Equal(t, models.Roles("admin"), u.Role)
}

func TestTransactionLogsFromAPI(t *testing.T) {
	logs, err := transactionLogsFromAPI([]byte(`[
		{"log_id":1,"transaction_id":3,"event_type":"TransactionCreated","event_details":"by buyer","created_at":"2024-01-01T00:00:00Z"},
		{"LogID":2,"TransactionID":3,"EventType":"FundsDeposited","EventDetails":"","CreatedAt":"2024-01-02T00:00:00Z"}
	]`))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "TransactionCreated", logs[0].EventType)
	assert.Equal(t, int64(2), logs[1].ID)
	assert.Equal(t, int64(3), logs[1].TransactionID)
}

func TestDecodeObject_RejectsNonObjects(t *testing.T) {
	for _, in := range []string{`[]`, `"x"`, `null`, `{`} {
		_, err := decodeObject([]byte(in))
		require.Error(t, err, in)
	}
}
