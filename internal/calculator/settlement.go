// Package calculator computes who owes whom for shared purchases.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

const (
	// shareScale is the number of fractional digits kept for a single share.
	shareScale = 16

	// minorUnits is the number of fractional digits in reported balances (cents).
	minorUnits = 2
)

// minorUnit is the smallest reportable amount, 0.01.
var minorUnit = decimal.New(1, -minorUnits)

// ComputeSettlement computes how much each participant owes the payer.
//
// Every item is split equally among its distinct owners. Shares are
// accumulated exactly and each participant's total is rounded to cents (half
// away from zero) only once, at the end. The payer's entry is the negated sum
// of the rounded amounts the others owe, so the reported map always satisfies
// balance[payer] == -sum(others). The payer always appears in the result, so a
// request without items yields {payer: 0}.
//
// The request is validated in full before anything is accumulated; errors are
// *SettlementError values matching one of the Err* kinds.
func ComputeSettlement(req models.SettlementRequest) (models.Balances, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	return settle(req)
}

// settle computes balances for an already validated request.
func settle(req models.SettlementRequest) (models.Balances, error) {
	owed := accumulateShares(req.Items)

	balances := make(models.Balances, len(owed)+1)
	othersTotal := decimal.Zero
	for participant, amount := range owed {
		// The payer's own share is money they owe themselves; it cancels out.
		if participant == req.Payer {
			continue
		}
		rounded := amount.Round(minorUnits)
		balances[participant] = rounded
		othersTotal = othersTotal.Add(rounded)
	}
	balances[req.Payer] = othersTotal.Neg()

	if err := checkConservation(balances); err != nil {
		return nil, err
	}
	return balances, nil
}

// Total returns the sum of item prices, i.e. what the payer fronted.
func Total(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}

// accumulateShares returns owed[participant] summed over every item they co-own.
// Items must already be validated.
func accumulateShares(items []models.LineItem) map[string]decimal.Decimal {
	owed := make(map[string]decimal.Decimal)
	for _, item := range items {
		owners := distinctOwners(item.Owners)
		share := itemShare(item.Price, len(owners))
		for _, owner := range owners {
			owed[owner] = owed[owner].Add(share)
		}
	}
	return owed
}

// itemShare splits price equally among n owners.
func itemShare(price decimal.Decimal, n int) decimal.Decimal {
	return price.DivRound(decimal.NewFromInt(int64(n)), shareScale)
}

// distinctOwners drops repeated identifiers, keeping first occurrences.
func distinctOwners(owners []string) []string {
	seen := make(map[string]struct{}, len(owners))
	unique := make([]string, 0, len(owners))
	for _, owner := range owners {
		if _, dup := seen[owner]; dup {
			continue
		}
		seen[owner] = struct{}{}
		unique = append(unique, owner)
	}
	return unique
}

// checkConservation allows the rounded sum to drift by at most one cent per participant.
func checkConservation(balances models.Balances) error {
	tolerance := minorUnit.Mul(decimal.NewFromInt(int64(len(balances))))
	sum := balances.Sum()
	if sum.Abs().GreaterThan(tolerance) {
		return NewSettlementError(ErrRoundingInconsistency, "",
			fmt.Sprintf("balances sum to %s, tolerance is %s", sum.String(), tolerance.String()))
	}
	return nil
}
