package core

import (
	"math"
	"strings"
	"time"
)

type (
	// CostItem is a single recorded expense. Once appended to the ledger it is
	// never mutated.
	CostItem struct {
		UserID      string
		Description string
		Category    string
		Sum         float64
		Date        time.Time // assigned by the ledger clock, UTC
	}

	// UserTotal is a user's running spend across every cost item.
	UserTotal struct {
		UserID string
		Total  float64
	}

	// User is a registry entry. The registry is owned outside the ledger.
	User struct {
		ID        string
		FirstName string
		LastName  string
	}

	// TeamMember is a static entry served by the about endpoint.
	TeamMember struct {
		FirstName string
		LastName  string
	}
)

var (
	ErrEmptyUserID      = &ValidationError{Field: "userid", Reason: "must not be empty"}
	ErrEmptyDescription = &ValidationError{Field: "description", Reason: "must not be empty"}
	ErrEmptyCategory    = &ValidationError{Field: "category", Reason: "must not be empty"}
	ErrNegativeSum      = &ValidationError{Field: "sum", Reason: "must not be negative"}
	ErrNonFiniteSum     = &ValidationError{Field: "sum", Reason: "must be a finite number"}
	ErrInvalidYear      = &ValidationError{Field: "year", Reason: "must be a 4-digit year"}
	ErrInvalidMonth     = &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
)

// Validate checks the caller-supplied fields. Date is not checked because the
// ledger assigns it.
func (c CostItem) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(c.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(c.Category) == "" {
		return ErrEmptyCategory
	}
	if math.IsNaN(c.Sum) || math.IsInf(c.Sum, 0) {
		return ErrNonFiniteSum
	}
	if c.Sum < 0 {
		return ErrNegativeSum
	}
	return nil
}

// Day returns the day of month of the item date in UTC.
func (c CostItem) Day() int {
	return c.Date.UTC().Day()
}
