// Package export renders expenses for offline use.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Reya-11/Solid-spend/internal/core"
)

var csvHeader = []string{
	"ID",
	"Date",
	"Merchant",
	"Category",
	"Amount",
	"Currency",
	"Normalized Amount",
	"Base Currency",
	"Notes",
}

// WriteExpenses streams the expenses as CSV, one row per expense plus a
// header. Amounts are written with two decimals.
func WriteExpenses(w io.Writer, expenses []core.Expense, baseCurrency string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range expenses {
		row := []string{
			e.ID.String(),
			e.Date.String(),
			e.Merchant,
			e.Category,
			e.Amount.String(),
			e.Currency,
			e.NormalizedAmount.String(),
			baseCurrency,
			e.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", e.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
