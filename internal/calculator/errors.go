package calculator

import (
	"errors"
	"fmt"
)

// Error kinds returned by the calculator. Match them with errors.Is.
var (
	ErrInvalidPayer          = errors.New("invalid payer")
	ErrInvalidItem           = errors.New("invalid item")
	ErrNoOwners              = errors.New("item has no owners")
	ErrMalformedRequest      = errors.New("malformed request")
	ErrRoundingInconsistency = errors.New("rounding inconsistency")
)

// SettlementError describes why a settlement could not be computed.
type SettlementError struct {
	Kind    error  // One of the Err* kinds above
	Field   string // Offending field, e.g. "items[2].price"
	Message string
}

// NewSettlementError builds a SettlementError of the given kind.
func NewSettlementError(kind error, field, message string) *SettlementError {
	return &SettlementError{Kind: kind, Field: field, Message: message}
}

// Error returns the formatted error string.
func (e *SettlementError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
}

// Unwrap exposes the kind so errors.Is(err, ErrNoOwners) works.
func (e *SettlementError) Unwrap() error {
	return e.Kind
}

// IsDefect reports whether err signals a bug in the calculator rather than
// bad input. Callers should log and alert on these instead of showing them
// to the user as a validation failure.
func IsDefect(err error) bool {
	return errors.Is(err, ErrRoundingInconsistency)
}
