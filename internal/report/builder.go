// Package report builds month-scoped, category-grouped views of a user's
// costs. Reports are recomputed from the ledger on every request.
package report

import (
	"context"
	"strconv"
	"strings"

	"costmanager/internal/core"
)

// Reader is the read side of the ledger.
type Reader interface {
	All(ctx context.Context) ([]core.CostItem, error)
}

// Builder groups a user's monthly costs by category.
//
// When a category taxonomy is configured every taxonomy category is present
// in the report, empty or not, in taxonomy order. Categories outside the
// taxonomy, or all categories when no taxonomy is set, follow in order of
// first appearance and only when they have items.
type Builder struct {
	ledger     Reader
	categories []string
}

func NewBuilder(r Reader, categories []string) *Builder {
	return &Builder{
		ledger:     r,
		categories: normalizeCategories(categories),
	}
}

// Build returns the report for userID in the given UTC calendar month.
func (b *Builder) Build(ctx context.Context, userID string, year, month int) (core.Report, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return core.Report{}, err
	}

	items, err := b.ledger.All(ctx)
	if err != nil {
		return core.Report{}, err
	}

	groups := make([]core.CategoryGroup, 0, len(b.categories))
	index := make(map[string]int, len(b.categories))
	for _, c := range b.categories {
		index[c] = len(groups)
		groups = append(groups, core.CategoryGroup{Category: c, Items: []core.ReportItem{}})
	}

	for _, it := range items {
		if it.UserID != userID || !core.InMonth(it.Date, year, month) {
			continue
		}
		i, ok := index[it.Category]
		if !ok {
			i = len(groups)
			index[it.Category] = i
			groups = append(groups, core.CategoryGroup{Category: it.Category})
		}
		groups[i].Items = append(groups[i].Items, core.ReportItem{
			Description: it.Description,
			Sum:         it.Sum,
			Day:         it.Day(),
		})
	}

	return core.Report{
		UserID: userID,
		Year:   year,
		Month:  month,
		Costs:  groups,
	}, nil
}

// BuildFromStrings coerces raw year and month parameters to integers before
// building. Non-numeric values are validation errors.
func (b *Builder) BuildFromStrings(ctx context.Context, userID, year, month string) (core.Report, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return core.Report{}, core.ErrInvalidYear
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return core.Report{}, core.ErrInvalidMonth
	}
	return b.Build(ctx, userID, y, m)
}

func normalizeCategories(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
