package calculator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

// newValidator configures a validator that reports fields by their JSON names
// and understands the "nonneg_decimal" tag used on prices.
func newValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	vld.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal is a struct, so the built-in numeric tags cannot see it.
	if err := vld.RegisterValidation("nonneg_decimal", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return !value.IsNegative()
	}); err != nil {
		return nil, fmt.Errorf("failed to register 'nonneg_decimal': %w", err)
	}

	return vld, nil
}

func getValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = newValidator()
	})
	return validate, errValidate
}

// ValidateRequest checks a request without computing anything.
// The first problem found is returned as a *SettlementError.
func ValidateRequest(req models.SettlementRequest) error {
	vld, err := getValidator()
	if err != nil {
		return err
	}

	err = vld.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return NewSettlementError(ErrMalformedRequest, "", err.Error())
	}
	return toSettlementError(fieldErrs[0])
}

// toSettlementError maps a validator failure onto the calculator's error kinds.
func toSettlementError(fe validator.FieldError) *SettlementError {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest // drop the "SettlementRequest." prefix
	}

	structField := fe.StructField()
	switch {
	case structField == "Payer":
		return NewSettlementError(ErrInvalidPayer, field, "payer is required")
	case structField == "Owners" && fe.Tag() == "min":
		return NewSettlementError(ErrNoOwners, field, "item must have at least one owner")
	case strings.HasPrefix(structField, "Owners["):
		return NewSettlementError(ErrInvalidItem, field, "owner must not be empty")
	case structField == "Price":
		return NewSettlementError(ErrInvalidItem, field, "price must not be negative")
	default:
		return NewSettlementError(ErrMalformedRequest, field, fmt.Sprintf("failed on %q", fe.Tag()))
	}
}
