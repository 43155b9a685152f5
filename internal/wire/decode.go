// Package wire translates between untyped JSON bodies and settlement models.
//
// Request bodies arrive from browsers and scripts and cannot be trusted to
// have the right shape, so decoding walks the generic JSON value by hand and
// reports every problem as a *calculator.SettlementError.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// ParseSettlement decodes a raw JSON body into a SettlementRequest.
func ParseSettlement(body []byte) (models.SettlementRequest, error) {
	v, err := ParseJSON(body)
	if err != nil {
		return models.SettlementRequest{}, err
	}
	return DecodeSettlement(v)
}

// ParseLedger decodes a raw JSON body holding an array of purchases.
func ParseLedger(body []byte) ([]models.SettlementRequest, error) {
	v, err := ParseJSON(body)
	if err != nil {
		return nil, err
	}
	return DecodeLedger(v)
}

// DecodeSettlement converts a generic JSON value into a SettlementRequest.
//
// The canonical shape is {"paid_by": ..., "items": [...]}. A one-element
// array wrapping that object is accepted as well, since older clients send
// it that way.
func DecodeSettlement(v any) (models.SettlementRequest, error) {
	if list, ok := v.([]any); ok {
		if len(list) != 1 {
			return models.SettlementRequest{}, malformed("", fmt.Sprintf("expected a single purchase, got an array of %d", len(list)))
		}
		v = list[0]
	}
	return decodePurchase(v, "")
}

// DecodeLedger converts a generic JSON array into a list of purchases.
func DecodeLedger(v any) ([]models.SettlementRequest, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, malformed("", "expected an array of purchases")
	}

	purchases := make([]models.SettlementRequest, 0, len(list))
	for i, raw := range list {
		purchase, err := decodePurchase(raw, fmt.Sprintf("[%d].", i))
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	return purchases, nil
}

// ParseJSON decodes a body into generic JSON values, keeping numbers as json.Number.
func ParseJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed("", fmt.Sprintf("invalid JSON: %v", err))
	}
	if dec.More() {
		return nil, malformed("", "unexpected data after JSON value")
	}
	return v, nil
}

func decodePurchase(v any, path string) (models.SettlementRequest, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.SettlementRequest{}, malformed(strings.TrimSuffix(path, "."), "expected an object")
	}

	var req models.SettlementRequest

	switch payer := obj["paid_by"].(type) {
	case nil:
		return req, calculator.NewSettlementError(calculator.ErrInvalidPayer, path+"paid_by", "payer is required")
	case string:
		if payer == "" {
			return req, calculator.NewSettlementError(calculator.ErrInvalidPayer, path+"paid_by", "payer is required")
		}
		req.Payer = payer
	default:
		return req, malformed(path+"paid_by", "expected a string")
	}

	rawItems, present := obj["items"]
	if !present || rawItems == nil {
		return req, malformed(path+"items", "items is required")
	}
	items, ok := rawItems.([]any)
	if !ok {
		return req, malformed(path+"items", "expected an array")
	}

	req.Items = make([]models.LineItem, 0, len(items))
	for i, raw := range items {
		item, err := decodeItem(raw, fmt.Sprintf("%sitems[%d]", path, i))
		if err != nil {
			return req, err
		}
		req.Items = append(req.Items, item)
	}

	return req, nil
}

func decodeItem(v any, path string) (models.LineItem, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.LineItem{}, malformed(path, "expected an object")
	}

	var item models.LineItem

	switch name := obj["name"].(type) {
	case nil:
	case string:
		item.Name = name
	default:
		return item, malformed(path+".name", "expected a string")
	}

	price, err := decodePrice(obj["price"], path+".price")
	if err != nil {
		return item, err
	}
	item.Price = price

	switch owners := obj["owners"].(type) {
	case nil:
		return item, calculator.NewSettlementError(calculator.ErrNoOwners, path+".owners", "item must have at least one owner")
	case []any:
		item.Owners = make([]string, 0, len(owners))
		for j, rawOwner := range owners {
			owner, ok := rawOwner.(string)
			if !ok {
				return item, malformed(fmt.Sprintf("%s.owners[%d]", path, j), "owner must be a string identifier")
			}
			item.Owners = append(item.Owners, owner)
		}
	default:
		return item, malformed(path+".owners", "expected an array")
	}

	return item, nil
}

// decodePrice accepts JSON numbers and numeric strings such as "9.99".
// Both are parsed exactly; only float64 values from protobuf Structs are
// already rounded by the time they get here.
func decodePrice(v any, path string) (decimal.Decimal, error) {
	switch price := v.(type) {
	case nil:
		return decimal.Zero, calculator.NewSettlementError(calculator.ErrInvalidItem, path, "price is required")
	case json.Number:
		return parsePrice(price.String(), path)
	case float64:
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return decimal.Zero, calculator.NewSettlementError(calculator.ErrInvalidItem, path, "price must be a finite number")
		}
		return decimal.NewFromFloat(price), nil
	case string:
		return parsePrice(price, path)
	default:
		return decimal.Zero, calculator.NewSettlementError(calculator.ErrInvalidItem, path, "price must be a number")
	}
}

// parsePrice parses s exactly. Values too large for a float64 are rejected the
// same way an overflowing JSON number is.
func parsePrice(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, calculator.NewSettlementError(calculator.ErrInvalidItem, field, fmt.Sprintf("price %q is not a number", s))
	}
	if math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Zero, calculator.NewSettlementError(calculator.ErrInvalidItem, field, fmt.Sprintf("price %q is out of range", s))
	}
	return d, nil
}

func malformed(field, message string) error {
	return calculator.NewSettlementError(calculator.ErrMalformedRequest, field, message)
}
