package wire

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// ParseLines reads one item per line in the form
//
//	name, price, owner1, owner2, ...
//
// Blank lines and lines starting with '#' are skipped. Names containing a
// comma can be double-quoted.
func ParseLines(r io.Reader) ([]models.LineItem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.LazyQuotes = true

	var items []models.LineItem
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed("", fmt.Sprintf("failed to read items: %v", err))
		}

		line, _ := reader.FieldPos(0)
		field := fmt.Sprintf("line %d", line)

		if len(record) < 2 {
			return nil, calculator.NewSettlementError(calculator.ErrInvalidItem, field, "expected: name, price, owners...")
		}

		price, err := parsePrice(record[1], field)
		if err != nil {
			return nil, err
		}

		var owners []string
		for _, owner := range record[2:] {
			if owner = strings.TrimSpace(owner); owner != "" {
				owners = append(owners, owner)
			}
		}
		if len(owners) == 0 {
			return nil, calculator.NewSettlementError(calculator.ErrNoOwners, field, "item must have at least one owner")
		}

		items = append(items, models.LineItem{
			Name:   strings.TrimSpace(record[0]),
			Price:  price,
			Owners: owners,
		})
	}
	return items, nil
}
