// Package sheets defines the outbound port used to mirror cost items into a
// spreadsheet.
package sheets

import (
	"context"

	"costmanager/internal/core"
)

// CostWriter appends one row per cost event. messageID identifies the event
// so a human can spot duplicates in the sheet.
type CostWriter interface {
	AppendCost(ctx context.Context, messageID string, item core.CostItem) (rowRef string, err error)
}

// Header is the column layout written by every CostWriter.
var Header = []string{"date", "day", "userid", "description", "category", "sum", "message_id"}

// Row renders item in Header order.
func Row(messageID string, item core.CostItem) []any {
	d := item.Date.UTC()
	return []any{
		d.Format("2006-01-02T15:04:05Z07:00"),
		d.Day(),
		item.UserID,
		item.Description,
		item.Category,
		item.Sum,
		messageID,
	}
}
