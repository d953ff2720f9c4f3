// Package worker turns expense.recorded events into notifications.
package worker

import (
	"context"
	"sync/atomic"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/core"
	applog "expenses/internal/log"
)

// NotifyWorker logs one notification line per recorded expense. Redelivered
// messages are recognised by id and announced once.
type NotifyWorker struct {
	logger   *applog.Logger
	seen     *cache.LRUCache[struct{}]
	notified int64
	skipped  int64
}

func NewNotifyWorker(logger *applog.Logger) *NotifyWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &NotifyWorker{
		logger: logger.WithComponent(applog.ComponentNotifier),
		seen:   cache.NewLRUCache[struct{}](1024, time.Hour),
	}
}

// HandleExpenseRecorded is the consumer callback. It never asks for a requeue:
// incomplete messages are logged and dropped.
func (w *NotifyWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	if msg.ID == "" || !msg.Amount.IsPositive() {
		atomic.AddInt64(&w.skipped, 1)
		w.logger.WarnContext(ctx, "Dropping incomplete expense event",
			applog.FieldExpenseID, msg.ID, applog.FieldOperation, applog.OpConsume)
		return nil
	}

	if _, dup := w.seen.Get(msg.ID); dup {
		atomic.AddInt64(&w.skipped, 1)
		w.logger.DebugContext(ctx, "Duplicate expense event ignored", applog.FieldExpenseID, msg.ID)
		return nil
	}
	w.seen.Set(msg.ID, struct{}{})

	atomic.AddInt64(&w.notified, 1)
	w.logger.InfoContext(ctx, "Expense recorded",
		applog.FieldExpenseID, msg.ID,
		applog.FieldAmount, core.FormatCurrency(msg.Amount),
		applog.FieldCategory, msg.Category,
		applog.FieldExpenseDate, msg.Date,
		"ledger_total", core.FormatCurrency(msg.LedgerTotal),
		applog.FieldLedgerSize, msg.LedgerSize)
	return nil
}

// Notified counts announced expenses.
func (w *NotifyWorker) Notified() int64 { return atomic.LoadInt64(&w.notified) }

// Skipped counts dropped and duplicate events.
func (w *NotifyWorker) Skipped() int64 { return atomic.LoadInt64(&w.skipped) }

// Cache exposes the dedup cache so it can be swept with the others.
func (w *NotifyWorker) Cache() *cache.LRUCache[struct{}] { return w.seen }
