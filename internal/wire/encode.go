package wire

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// Envelope selects the shape of a successful settlement response.
type Envelope string

const (
	// EnvelopeBare returns the balances map as the whole body. This is the default.
	EnvelopeBare Envelope = ""

	// EnvelopeReimbursements wraps the map as {"reimbursements": {...}} for
	// clients written against the older response.
	EnvelopeReimbursements Envelope = "reimbursements"
)

// ParseEnvelope validates an envelope name from configuration.
func ParseEnvelope(s string) (Envelope, error) {
	switch Envelope(s) {
	case EnvelopeBare, EnvelopeReimbursements:
		return Envelope(s), nil
	default:
		return EnvelopeBare, fmt.Errorf("unknown response envelope %q: must be empty or %q", s, EnvelopeReimbursements)
	}
}

// ErrorResponse is the body returned for any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TransferResponse is one suggested payment in a ledger response.
type TransferResponse struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount json.Number `json:"amount"`
}

// LedgerResponse is the body returned by the ledger endpoint.
type LedgerResponse struct {
	Balances  map[string]json.Number `json:"balances"`
	Transfers []TransferResponse     `json:"transfers"`
}

// Amount renders a balance as a JSON number with exactly two decimals.
func Amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// BalancesBody builds the settlement response body in the requested envelope.
func BalancesBody(balances models.Balances, envelope Envelope) any {
	body := make(map[string]json.Number, len(balances))
	for participant, amount := range balances {
		body[participant] = Amount(amount)
	}
	if envelope == EnvelopeReimbursements {
		return map[string]any{"reimbursements": body}
	}
	return body
}

// LedgerBody builds the ledger response body.
func LedgerBody(balances models.Balances, transfers []models.Transfer) LedgerResponse {
	resp := LedgerResponse{
		Balances:  make(map[string]json.Number, len(balances)),
		Transfers: make([]TransferResponse, 0, len(transfers)),
	}
	for participant, amount := range balances {
		resp.Balances[participant] = Amount(amount)
	}
	for _, tr := range transfers {
		resp.Transfers = append(resp.Transfers, TransferResponse{
			From:   tr.From,
			To:     tr.To,
			Amount: Amount(tr.Amount),
		})
	}
	return resp
}

// Float returns a balance as float64 for protobuf Struct values.
func Float(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
