package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// ComputeLedger nets balances across several purchases, each with its own payer.
//
// Algorithm:
// - Each purchase is settled on its own, rounded to cents
// - A participant's net balance is the sum over every purchase (positive = owes the group)
//
// Every purchase is validated before anything is accumulated. Since each
// settled purchase sums to exactly zero, so does the ledger, and a ledger of a
// single purchase equals ComputeSettlement for that purchase.
func ComputeLedger(purchases []models.SettlementRequest) (models.Balances, error) {
	for i, purchase := range purchases {
		if err := ValidateRequest(purchase); err != nil {
			return nil, prefixField(err, fmt.Sprintf("[%d]", i))
		}
	}

	totals := make(models.Balances)
	for i, purchase := range purchases {
		balances, err := settle(purchase)
		if err != nil {
			return nil, prefixField(err, fmt.Sprintf("[%d]", i))
		}
		for participant, amount := range balances {
			totals[participant] = totals[participant].Add(amount)
		}
	}

	if err := checkConservation(totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// SimplifyDebts turns net balances into a short list of payments.
// Debtors (positive balances) are matched greedily against creditors
// (negative balances), largest amounts first. Ties are broken by name so
// the result is deterministic.
func SimplifyDebts(balances models.Balances) []models.Transfer {
	type party struct {
		name      string
		remaining decimal.Decimal
	}

	var debtors, creditors []*party
	for name, amount := range balances {
		switch amount.Sign() {
		case 1:
			debtors = append(debtors, &party{name: name, remaining: amount})
		case -1:
			creditors = append(creditors, &party{name: name, remaining: amount.Neg()})
		}
	}

	byLargest := func(parties []*party) {
		sort.Slice(parties, func(i, j int) bool {
			if c := parties[i].remaining.Cmp(parties[j].remaining); c != 0 {
				return c > 0
			}
			return parties[i].name < parties[j].name
		})
	}
	byLargest(debtors)
	byLargest(creditors)

	var transfers []models.Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(debtor.remaining, creditor.remaining)
		if amount.GreaterThanOrEqual(minorUnit) {
			transfers = append(transfers, models.Transfer{
				From:   debtor.name,
				To:     creditor.name,
				Amount: amount,
			})
		}

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		// Move to next debtor/creditor if fully settled
		if debtor.remaining.LessThan(minorUnit) {
			i++
		}
		if creditor.remaining.LessThan(minorUnit) {
			j++
		}
	}

	return transfers
}

// prefixField qualifies the offending field of a *SettlementError with prefix.
func prefixField(err error, prefix string) error {
	var settleErr *SettlementError
	if !errors.As(err, &settleErr) {
		return err
	}
	field := prefix
	if settleErr.Field != "" {
		field = prefix + "." + settleErr.Field
	}
	return NewSettlementError(settleErr.Kind, field, settleErr.Message)
}
