// Package worker holds the handlers run by cmd/cost-worker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"costmanager/internal/amqp"
	"costmanager/internal/cache"
	applog "costmanager/internal/log"
	"costmanager/internal/sheets"
)

// AuditWorker writes one structured audit line per cost.added event.
// Redelivered messages are recognised by ID and audited once.
type AuditWorker struct {
	base   *applog.Logger
	logger *applog.StructuredLogger
	seen   *cache.LRUCache[struct{}]
	export sheets.CostWriter

	processed  int64
	duplicates int64
}

// NewAuditWorker creates a worker that remembers up to dedupeSize message IDs
// for dedupeTTL.
func NewAuditWorker(logger *applog.Logger, dedupeSize int, dedupeTTL time.Duration) *AuditWorker {
	return &AuditWorker{
		base:   logger,
		logger: applog.NewStructuredLogger(logger),
		seen:   cache.NewLRUCache[struct{}](dedupeSize, dedupeTTL),
	}
}

// WithExport mirrors every audited event into cw. A failed append returns an
// error so the broker redelivers the message.
func (w *AuditWorker) WithExport(cw sheets.CostWriter) *AuditWorker {
	w.export = cw
	return w
}

// HandleCostAdded is the amqp.Client consumer callback.
func (w *AuditWorker) HandleCostAdded(ctx context.Context, msg *amqp.CostAddedMessage) error {
	if msg == nil {
		return errors.New("nil cost.added message")
	}
	if _, dup := w.seen.Get(msg.ID); dup {
		atomic.AddInt64(&w.duplicates, 1)
		return nil
	}

	if w.export != nil {
		ref, err := w.export.AppendCost(ctx, msg.ID, msg.Item())
		if err != nil {
			w.logger.LogError(ctx, "Cost export failed", err, applog.ComponentWorker, applog.OpExport,
				applog.LogFields{"message_id": msg.ID})
			return fmt.Errorf("export cost %s: %w", msg.ID, err)
		}
		w.base.DebugContext(ctx, "Cost exported", "message_id", msg.ID, "row", ref)
	}

	w.logger.LogCostEvent(ctx, msg.ID, msg.UserID, msg.Description, msg.Category, msg.Sum, msg.Date)
	w.seen.Set(msg.ID, struct{}{})
	atomic.AddInt64(&w.processed, 1)
	return nil
}

// Stats returns the number of audited and skipped duplicate events.
func (w *AuditWorker) Stats() (processed, duplicates int64) {
	return atomic.LoadInt64(&w.processed), atomic.LoadInt64(&w.duplicates)
}

// Cache exposes the dedupe cache so callers can register it for expiry sweeps.
func (w *AuditWorker) Cache() cache.Cleaner {
	return w.seen
}
