package ledger

import (
	"context"

	"costmanager/internal/core"
)

// Reader is the read side of the ledger used by projections.
type Reader interface {
	All(ctx context.Context) ([]core.CostItem, error)
}

// UserView derives a user's total spend from the ledger on every call.
type UserView struct {
	ledger Reader
}

func NewUserView(r Reader) *UserView {
	return &UserView{ledger: r}
}

// GetUser sums every item whose user id matches exactly. A user without
// items has a zero total and is not an error.
func (v *UserView) GetUser(ctx context.Context, userID string) (core.UserTotal, error) {
	items, err := v.ledger.All(ctx)
	if err != nil {
		return core.UserTotal{}, err
	}

	var mine []core.CostItem
	for _, it := range items {
		if it.UserID == userID {
			mine = append(mine, it)
		}
	}

	return core.UserTotal{
		UserID: userID,
		Total:  core.TotalOf(mine),
	}, nil
}
