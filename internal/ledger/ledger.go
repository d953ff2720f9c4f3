// Package ledger owns the ordered, newest-first sequence of expense records and
// persists the whole sequence through a storage.Store after every append.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

// DefaultKey is the storage key holding the ledger.
const DefaultKey = "expenses"

// PersistError reports that the ledger changed in memory but could not be saved.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist ledger %q: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Snapshot is a consistent view of the ledger at one revision.
type Snapshot struct {
	Records  []core.ExpenseRecord
	Revision uint64
}

type Ledger struct {
	mu       sync.RWMutex
	store    storage.Store
	key      string
	logger   *applog.Logger
	records  []core.ExpenseRecord
	revision uint64
	loaded   bool
	dirty    bool
}

type Option func(*Ledger)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

func WithLogger(logger *applog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger.WithComponent(applog.ComponentLedger)
		}
	}
}

// New returns an empty ledger backed by store. Call Load to hydrate it.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		key:    DefaultKey,
		logger: applog.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load hydrates the ledger from storage. A missing or unreadable value leaves the
// ledger empty; it is logged and never returned as an error.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = nil
	l.loaded = true

	data, found, err := l.store.Get(ctx, l.key)
	if err != nil {
		l.logger.WarnContext(ctx, "Ledger read failed, starting empty",
			applog.FieldStorageKey, l.key, applog.FieldError, err, applog.FieldOperation, applog.OpLoad)
		return
	}
	if !found {
		l.logger.InfoContext(ctx, "No stored ledger, starting empty", applog.FieldStorageKey, l.key)
		return
	}

	records, err := Decode(data)
	if err != nil {
		l.logger.WarnContext(ctx, "Stored ledger unparsable, starting empty",
			applog.FieldStorageKey, l.key, applog.FieldError, err, applog.FieldOperation, applog.OpLoad)
		return
	}
	l.records = records
	l.revision++
	l.logger.InfoContext(ctx, "Ledger hydrated", applog.FieldStorageKey, l.key, applog.FieldLedgerSize, len(records))
}

// Append prepends rec and writes the whole ledger to storage. When the write fails
// the record stays in memory and a *PersistError is returned; the next successful
// append saves everything.
func (l *Ledger) Append(ctx context.Context, rec core.ExpenseRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]core.ExpenseRecord, 0, len(l.records)+1)
	records = append(records, rec)
	records = append(records, l.records...)
	l.records = records
	l.revision++

	if err := l.persistLocked(ctx); err != nil {
		l.dirty = true
		return &PersistError{Key: l.key, Err: err}
	}
	l.dirty = false
	return nil
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	data, err := Encode(l.records)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := l.store.Set(ctx, l.key, data); err != nil {
		return err
	}
	return nil
}

// All returns a copy of every record, newest-first.
func (l *Ledger) All() []core.ExpenseRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.ExpenseRecord(nil), l.records...)
}

// Snapshot returns the records and the revision they belong to.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{
		Records:  append([]core.ExpenseRecord(nil), l.records...),
		Revision: l.revision,
	}
}

func (l *Ledger) Recent(n int) []core.ExpenseRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Recent(l.records, n)
}

func (l *Ledger) Total() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Total(l.records)
}

func (l *Ledger) Trend() []TrendPoint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Trend(l.records)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Revision increases by one on every append.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// Loaded reports whether Load has run.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Dirty reports whether the in-memory ledger has changes storage does not have.
func (l *Ledger) Dirty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dirty
}

// Key is the storage key the ledger is persisted under.
func (l *Ledger) Key() string {
	return l.key
}
