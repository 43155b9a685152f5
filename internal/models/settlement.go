package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LineItem represents a single purchased good on a receipt.
// The price is split equally among its owners.
type LineItem struct {
	// Name is a free-text label (e.g., "Pizza"). It is never interpreted.
	Name string `json:"name"`

	// Price is the amount paid for the item, in currency units (e.g., 9.99).
	// Kept exact as parsed. Must not be negative.
	Price decimal.Decimal `json:"price" validate:"nonneg_decimal"`

	// Owners are the participants who shared this item.
	// Listing the same participant twice still counts as one share.
	Owners []string `json:"owners" validate:"min=1,dive,required"`
}

// SettlementRequest represents one purchase: who fronted the money and what was bought.
type SettlementRequest struct {
	// Payer is the participant who paid for every item in Items.
	// The payer does not need to own any item.
	Payer string `json:"paid_by" validate:"required"`

	// Items may be empty, in which case nobody owes anything.
	Items []LineItem `json:"items" validate:"dive"`
}

// Balances maps each participant to a signed amount.
// Positive = owes the payer, Negative = is owed.
type Balances map[string]decimal.Decimal

// Sum returns the total of all balances. A settled map sums to zero.
func (b Balances) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range b {
		total = total.Add(amount)
	}
	return total
}

// Participants returns the participant identifiers in sorted order.
func (b Balances) Participants() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transfer represents a payment from one participant to another.
type Transfer struct {
	From   string          `json:"from"` // Person who owes
	To     string          `json:"to"`   // Person who is owed
	Amount decimal.Decimal `json:"amount"`
}
