// Package form validates candidate expenses submitted from the entry form.
package form

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// Field names used as keys in FieldErrors and as form input names.
const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldDescription = "description"
)

// Messages shown next to the offending field.
const (
	MsgAmountPositive = "Amount must be positive"
	MsgSelectCategory = "Please select a category"
	MsgInvalidDate    = "Please pick a valid date"
	MsgDateOutOfRange = "Date must be between 1900-01-01 and today"
)

// Candidate holds raw form values, as typed by the user.
type Candidate struct {
	Amount      string
	Category    string
	Date        string
	Description string
}

// ValidatedRecord is a candidate that passed validation; it has no id yet.
type ValidatedRecord struct {
	Amount      decimal.Decimal
	Category    core.Category
	Date        core.Date
	Description string
}

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "invalid expense: " + strings.Join(parts, "; ")
}

// Has reports whether field has an error.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// DefaultCandidate is the cleared form: amount 0, no category, today, no description.
func DefaultCandidate(today time.Time) Candidate {
	return Candidate{
		Amount: "0",
		Date:   core.DateOf(today).String(),
	}
}

// Validate checks every field and returns either a record or a non-empty error map.
// Description is always valid.
func Validate(c Candidate, today time.Time) (ValidatedRecord, FieldErrors) {
	errs := FieldErrors{}
	var v ValidatedRecord

	amount, err := core.ParseAmount(c.Amount)
	if err == nil {
		err = core.ValidateAmount(amount)
	}
	if err != nil {
		errs[FieldAmount] = MsgAmountPositive
	} else {
		v.Amount = amount
	}

	if cat, ok := core.ParseCategory(c.Category); ok {
		v.Category = cat
	} else {
		errs[FieldCategory] = MsgSelectCategory
	}

	date, err := core.ParseDate(c.Date)
	if err == nil {
		err = date.Validate(today)
	}
	switch err {
	case nil:
		v.Date = date
	case core.ErrDateOutOfRange:
		errs[FieldDate] = MsgDateOutOfRange
	default:
		errs[FieldDate] = MsgInvalidDate
	}

	v.Description = Sanitize(c.Description)

	if len(errs) > 0 {
		return ValidatedRecord{}, errs
	}
	return v, nil
}

// Record turns a validated candidate into a ledger record with the given id.
func (v ValidatedRecord) Record(id string) core.ExpenseRecord {
	return core.ExpenseRecord{
		ID:          id,
		Amount:      v.Amount,
		Category:    v.Category,
		Date:        v.Date,
		Description: v.Description,
	}
}

// Sanitize removes control characters except tab, newline and carriage return, then trims.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
