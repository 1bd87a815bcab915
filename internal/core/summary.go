package core

import "time"

const (
	MinReportYear = 1000
	MaxReportYear = 9999
)

// ReportItem is one cost inside a category group.
type ReportItem struct {
	Description string
	Sum         float64
	Day         int // 1-31
}

// CategoryGroup holds a month's items for one category in ledger order.
type CategoryGroup struct {
	Category string
	Items    []ReportItem
}

// Report is a single user's costs for one calendar month, grouped by category.
type Report struct {
	UserID string
	Year   int
	Month  int // 1-12
	Costs  []CategoryGroup
}

// ValidateYearMonth checks the report period.
func ValidateYearMonth(year, month int) error {
	if year < MinReportYear || year > MaxReportYear {
		return ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// MonthWindow returns the half-open UTC interval [start, end) covering the
// given calendar month.
func MonthWindow(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// InMonth reports whether t falls inside the UTC calendar month.
func InMonth(t time.Time, year, month int) bool {
	start, end := MonthWindow(year, month)
	t = t.UTC()
	return !t.Before(start) && t.Before(end)
}
