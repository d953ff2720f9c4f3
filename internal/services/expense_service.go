package services

import (
	"context"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/form"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
	"expenses/internal/metrics"
)

// View is one of the tabs of the expense page.
type View string

const (
	ViewAdd   View = "add"
	ViewList  View = "list"
	ViewChart View = "chart"
)

// ParseView falls back to ViewAdd for anything unknown.
func ParseView(s string) View {
	switch v := View(s); v {
	case ViewAdd, ViewList, ViewChart:
		return v
	default:
		return ViewAdd
	}
}

// EventPublisher announces recorded expenses. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error
}

// SubmitResult is what the page needs to render after a submission.
type SubmitResult struct {
	// Record is set when the candidate was accepted.
	Record *core.ExpenseRecord
	// Errors is non-nil when the candidate was rejected; nothing was appended.
	Errors form.FieldErrors
	// Form is the form state to show next: cleared on success, as typed on failure.
	Form form.Candidate
	View View
	// PersistErr is set when the record was appended but storage rejected the write.
	PersistErr error
}

func (r SubmitResult) OK() bool { return r.Errors == nil }

// ExpenseService validates submissions and appends them to the ledger.
type ExpenseService struct {
	ledger    *ledger.Ledger
	publisher EventPublisher
	logger    *applog.Logger
	clock     func() time.Time
	newID     func() string
}

type Option func(*ExpenseService)

// WithPublisher enables expense.recorded events. A nil publisher disables them.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

func WithLogger(logger *applog.Logger) Option {
	return func(s *ExpenseService) {
		if logger != nil {
			s.logger = logger.WithComponent(applog.ComponentExpense)
		}
	}
}

// WithClock sets the source of "today" for date validation.
func WithClock(clock func() time.Time) Option {
	return func(s *ExpenseService) { s.clock = clock }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ExpenseService) { s.newID = newID }
}

func NewExpenseService(l *ledger.Ledger, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		ledger: l,
		logger: applog.Discard(),
		clock:  time.Now,
		newID:  core.NewRecordID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ExpenseService) Ledger() *ledger.Ledger { return s.ledger }

// Today is the service's current time, used for form defaults and validation.
func (s *ExpenseService) Today() time.Time { return s.clock() }

// DefaultForm is the cleared entry form.
func (s *ExpenseService) DefaultForm() form.Candidate {
	return form.DefaultCandidate(s.clock())
}

// Submit validates c and, when valid, prepends it to the ledger. A storage write
// failure does not reject the submission: the record stays in the ledger and the
// failure is reported in PersistErr.
func (s *ExpenseService) Submit(ctx context.Context, c form.Candidate) SubmitResult {
	today := s.clock()

	validated, errs := form.Validate(c, today)
	if errs != nil {
		fields := make([]string, 0, len(errs))
		for f := range errs {
			fields = append(fields, f)
		}
		metrics.ValidationFailed(fields)
		s.logger.DebugContext(ctx, "Expense rejected", applog.FieldError, errs.Error(), applog.FieldOperation, applog.OpValidate)
		return SubmitResult{Errors: errs, Form: c, View: ViewAdd}
	}

	rec := validated.Record(s.newID())
	result := SubmitResult{Record: &rec, Form: form.DefaultCandidate(today), View: ViewList}

	if err := s.ledger.Append(ctx, rec); err != nil {
		metrics.PersistFailed()
		s.logger.ErrorContext(ctx, "Expense kept in memory, storage write failed",
			applog.FieldExpenseID, rec.ID,
			applog.FieldStorageKey, s.ledger.Key(),
			applog.FieldError, err,
			applog.FieldOperation, applog.OpPersist)
		result.PersistErr = err
	}

	size := s.ledger.Len()
	metrics.ExpenseRecorded(rec.Category.String(), size)
	applog.NewStructuredLogger(s.logger).LogExpenseRecorded(ctx,
		rec.ID, core.FormatAmount(rec.Amount), rec.Category.String(), rec.Date.String(), size)

	s.publish(ctx, rec, size)
	return result
}

func (s *ExpenseService) publish(ctx context.Context, rec core.ExpenseRecord, size int) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewExpenseRecordedMessage(rec, s.ledger.Total(), size)
	if err := s.publisher.PublishExpenseRecorded(ctx, msg); err != nil {
		metrics.PublishFailed()
		s.logger.WarnContext(ctx, "Failed to publish expense recorded event",
			applog.FieldExpenseID, rec.ID, applog.FieldError, err, applog.FieldOperation, applog.OpPublish)
	}
}
