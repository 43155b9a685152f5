package wire

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

func TestParseSettlement(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    models.SettlementRequest
		wantErr error
		field   string
	}{
		{
			name: "canonical object",
			body: `{"paid_by":"a","items":[{"name":"Pizza","price":30,"owners":["a","b","c"]}]}`,
			want: models.SettlementRequest{
				Payer: "a",
				Items: []models.LineItem{{Name: "Pizza", Price: decimal.RequireFromString("30"), Owners: []string{"a", "b", "c"}}},
			},
		},
		{
			name: "one-element array wrapper",
			body: `[{"paid_by":"a","items":[{"name":"Coffee","price":5,"owners":["b"]}]}]`,
			want: models.SettlementRequest{
				Payer: "a",
				Items: []models.LineItem{{Name: "Coffee", Price: decimal.RequireFromString("5"), Owners: []string{"b"}}},
			},
		},
		{
			name: "numeric string price",
			body: `{"paid_by":"a","items":[{"name":"Snack","price":" 9.99","owners":["a","b"]}]}`,
			want: models.SettlementRequest{
				Payer: "a",
				Items: []models.LineItem{{Name: "Snack", Price: decimal.RequireFromString("9.99"), Owners: []string{"a", "b"}}},
			},
		},
		{
			name: "empty items",
			body: `{"paid_by":"a","items":[]}`,
			want: models.SettlementRequest{Payer: "a", Items: []models.LineItem{}},
		},
		{
			name:    "missing paid_by",
			body:    `{"items":[]}`,
			wantErr: calculator.ErrInvalidPayer,
			field:   "paid_by",
		},
		{
			name:    "empty paid_by",
			body:    `{"paid_by":"","items":[]}`,
			wantErr: calculator.ErrInvalidPayer,
			field:   "paid_by",
		},
		{
			name:    "numeric paid_by",
			body:    `{"paid_by":7,"items":[]}`,
			wantErr: calculator.ErrMalformedRequest,
			field:   "paid_by",
		},
		{
			name:    "missing items",
			body:    `{"paid_by":"a"}`,
			wantErr: calculator.ErrMalformedRequest,
			field:   "items",
		},
		{
			name:    "items is an object",
			body:    `{"paid_by":"a","items":{}}`,
			wantErr: calculator.ErrMalformedRequest,
			field:   "items",
		},
		{
			name:    "wrapper with two purchases",
			body:    `[{"paid_by":"a","items":[]},{"paid_by":"b","items":[]}]`,
			wantErr: calculator.ErrMalformedRequest,
		},
		{
			name:    "not JSON",
			body:    `paid_by=a`,
			wantErr: calculator.ErrMalformedRequest,
		},
		{
			name:    "trailing data",
			body:    `{"paid_by":"a","items":[]} {}`,
			wantErr: calculator.ErrMalformedRequest,
		},
		{
			name:    "scalar body",
			body:    `42`,
			wantErr: calculator.ErrMalformedRequest,
		},
		{
			name:    "missing price",
			body:    `{"paid_by":"a","items":[{"name":"x","owners":["b"]}]}`,
			wantErr: calculator.ErrInvalidItem,
			field:   "items[0].price",
		},
		{
			name:    "non-numeric price",
			body:    `{"paid_by":"a","items":[{"name":"x","price":"free","owners":["b"]}]}`,
			wantErr: calculator.ErrInvalidItem,
			field:   "items[0].price",
		},
		{
			name:    "boolean price",
			body:    `{"paid_by":"a","items":[{"name":"x","price":true,"owners":["b"]}]}`,
			wantErr: calculator.ErrInvalidItem,
			field:   "items[0].price",
		},
		{
			name:    "missing owners",
			body:    `{"paid_by":"a","items":[{"name":"x","price":1}]}`,
			wantErr: calculator.ErrNoOwners,
			field:   "items[0].owners",
		},
		{
			name:    "owner objects are not accepted",
			body:    `{"paid_by":"a","items":[{"name":"x","price":1,"owners":[{"email":"b@x.com","name":"B"}]}]}`,
			wantErr: calculator.ErrMalformedRequest,
			field:   "items[0].owners[0]",
		},
		{
			name:    "item is a string",
			body:    `{"paid_by":"a","items":["Pizza, 30, a, b"]}`,
			wantErr: calculator.ErrMalformedRequest,
			field:   "items[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSettlement([]byte(tt.body))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.field != "" {
					var settleErr *calculator.SettlementError
					require.ErrorAs(t, err, &settleErr)
					assert.Equal(t, tt.field, settleErr.Field)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Payer, got.Payer)
			assertItems(t, tt.want.Items, got.Items)
		})
	}
}

// assertItems compares items by value; decimals with different exponents
// are equal when they denote the same amount.
func assertItems(t *testing.T, want, got []models.LineItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name, "item %d name", i)
		assert.Equal(t, want[i].Owners, got[i].Owners, "item %d owners", i)
		assert.True(t, want[i].Price.Equal(got[i].Price), "item %d price = %s, want %s", i, got[i].Price, want[i].Price)
	}
}

func TestParseSettlement_PricesAreExact(t *testing.T) {
	req, err := ParseSettlement([]byte(`{"paid_by":"a","items":[
		{"name":"x","price":0.30000000000000001,"owners":["b"]},
		{"name":"y","price":"1000000000000000.005","owners":["b"]}
	]}`))
	require.NoError(t, err)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "0.30000000000000001", req.Items[0].Price.String())
	assert.Equal(t, "1000000000000000.005", req.Items[1].Price.String())

	_, err = ParseSettlement([]byte(`{"paid_by":"a","items":[{"name":"x","price":1e400,"owners":["b"]}]}`))
	assert.ErrorIs(t, err, calculator.ErrInvalidItem)
}

func TestParseLedger(t *testing.T) {
	purchases, err := ParseLedger([]byte(`[
		{"paid_by":"a","items":[{"name":"x","price":6,"owners":["a","b"]}]},
		{"paid_by":"b","items":[{"name":"y","price":"4","owners":["a"]}]}
	]`))
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, "b", purchases[1].Payer)
	assert.True(t, purchases[1].Items[0].Price.Equal(decimal.NewFromInt(4)))

	_, err = ParseLedger([]byte(`{"paid_by":"a","items":[]}`))
	assert.ErrorIs(t, err, calculator.ErrMalformedRequest)

	_, err = ParseLedger([]byte(`[{"paid_by":"a","items":[]}, {"items":[]}]`))
	var settleErr *calculator.SettlementError
	require.ErrorAs(t, err, &settleErr)
	assert.ErrorIs(t, err, calculator.ErrInvalidPayer)
	assert.Equal(t, "[1].paid_by", settleErr.Field)
}

func TestDecodeSettlement_FloatNumbers(t *testing.T) {
	// Values coming from protobuf Struct carry float64 numbers.
	req, err := DecodeSettlement(map[string]any{
		"paid_by": "a",
		"items": []any{
			map[string]any{"name": "Tea", "price": 4.5, "owners": []any{"b"}},
		},
	})
	require.NoError(t, err)
	assert.True(t, req.Items[0].Price.Equal(decimal.RequireFromString("4.5")))
}

func TestBalancesBody(t *testing.T) {
	balances := models.Balances{
		"a": decimal.RequireFromString("-5"),
		"b": decimal.RequireFromString("5"),
	}

	bare, err := json.Marshal(BalancesBody(balances, EnvelopeBare))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":-5.00,"b":5.00}`, string(bare))
	assert.Equal(t, `{"a":-5.00,"b":5.00}`, string(bare))

	wrapped, err := json.Marshal(BalancesBody(balances, EnvelopeReimbursements))
	require.NoError(t, err)
	assert.JSONEq(t, `{"reimbursements":{"a":-5,"b":5}}`, string(wrapped))
}

func TestLedgerBody(t *testing.T) {
	body := LedgerBody(
		models.Balances{"a": decimal.RequireFromString("-2.5"), "b": decimal.RequireFromString("2.5")},
		[]models.Transfer{{From: "b", To: "a", Amount: decimal.RequireFromString("2.5")}},
	)
	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"balances":{"a":-2.5,"b":2.5},"transfers":[{"from":"b","to":"a","amount":2.5}]}`, string(out))
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope("reimbursements")
	require.NoError(t, err)
	assert.Equal(t, EnvelopeReimbursements, env)

	env, err = ParseEnvelope("")
	require.NoError(t, err)
	assert.Equal(t, EnvelopeBare, env)

	_, err = ParseEnvelope("both")
	assert.Error(t, err)
}
