package sheets

import (
	"context"

	"github.com/Reya-11/Solid-spend/internal/core"
)

// ExpenseWriter is the outbound port for exporting an expense row to a
// spreadsheet-like destination.
type ExpenseWriter interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
