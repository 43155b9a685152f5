package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/settleup/internal/calculator"
)

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Observe("calculate", time.Now(), 3, nil)
	m.Observe("calculate", time.Now(), 0, calculator.NewSettlementError(calculator.ErrNoOwners, "items[0].owners", "empty"))
	m.Observe("ledger", time.Now(), 0, calculator.NewSettlementError(calculator.ErrRoundingInconsistency, "", "drift"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues("calculate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues("calculate", "no_owners")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues("ledger", "rounding_inconsistency")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Defects))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{calculator.NewSettlementError(calculator.ErrInvalidPayer, "paid_by", "x"), "invalid_payer"},
		{calculator.NewSettlementError(calculator.ErrInvalidItem, "items[0].price", "x"), "invalid_item"},
		{calculator.NewSettlementError(calculator.ErrMalformedRequest, "", "x"), "malformed_request"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}
