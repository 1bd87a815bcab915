package services

import (
	"context"
	"fmt"

	"costmanager/internal/core"
	"costmanager/internal/ledger"
	applog "costmanager/internal/log"
	"costmanager/internal/report"
	"costmanager/internal/users"
)

// Publisher announces accepted cost items. Implemented by *amqp.Client.
type Publisher interface {
	PublishCostAdded(ctx context.Context, item core.CostItem) error
}

// Profile is a registry entry joined with the user's running total.
type Profile struct {
	User  core.User
	Total float64
}

// CostService orchestrates the ledger, the user registry, reporting and event
// publication.
type CostService struct {
	ledger    *ledger.Ledger
	view      *ledger.UserView
	reports   *report.Builder
	registry  users.Registry
	publisher Publisher
}

// NewCostService wires the service. publisher may be nil, in which case no
// events are emitted.
func NewCostService(l *ledger.Ledger, registry users.Registry, reports *report.Builder, publisher Publisher) *CostService {
	return &CostService{
		ledger:    l,
		view:      ledger.NewUserView(l),
		reports:   reports,
		registry:  registry,
		publisher: publisher,
	}
}

// AddCost appends a cost item and publishes a cost.added event. The ledger
// write is authoritative: a failed publish is logged and the item is still
// returned.
func (s *CostService) AddCost(ctx context.Context, userID, description, category string, sum float64) (core.CostItem, error) {
	item, err := s.ledger.Add(ctx, userID, description, category, sum)
	if err != nil {
		return core.CostItem{}, fmt.Errorf("add cost: %w", err)
	}

	logger := applog.FromContext(ctx)
	applog.NewStructuredLogger(logger).LogCostAdded(ctx, item.UserID, item.Description, item.Category, item.Sum, item.Date)

	if s.publisher == nil {
		logger.DebugContext(ctx, "No publisher configured, skipping cost.added event")
		return item, nil
	}
	if err := s.publisher.PublishCostAdded(ctx, item); err != nil {
		logger.WarnContext(ctx, "Failed to publish cost.added event",
			applog.FieldUserID, item.UserID,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err.Error())
	}
	return item, nil
}

// Profile returns the registry entry for id with the user's total spend.
// Unknown users yield core.ErrNotFound.
func (s *CostService) Profile(ctx context.Context, id string) (Profile, error) {
	u, err := s.registry.Get(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("lookup user %q: %w", id, err)
	}

	total, err := s.view.GetUser(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("total for user %q: %w", id, err)
	}

	return Profile{User: u, Total: total.Total}, nil
}

// Report builds the monthly report from raw transport values.
func (s *CostService) Report(ctx context.Context, userID, year, month string) (core.Report, error) {
	r, err := s.reports.BuildFromStrings(ctx, userID, year, month)
	if err != nil {
		return core.Report{}, fmt.Errorf("build report: %w", err)
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).LogReportBuilt(ctx, r.UserID, r.Year, r.Month, len(r.Costs))
	return r, nil
}

// Ready reports whether the ledger's store is reachable.
func (s *CostService) Ready(ctx context.Context) error {
	if err := s.ledger.Ping(ctx); err != nil {
		return fmt.Errorf("ledger not ready: %w", err)
	}
	return nil
}
