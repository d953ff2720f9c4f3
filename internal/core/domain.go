package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the wire and form layout of a calendar date.
	DateLayout = "2006-01-02"
	// DayLabelLayout groups records in the trend chart. The year is not part of it.
	DayLabelLayout = "01/02"
	// DisplayLayout renders a date for people.
	DisplayLayout = "Jan 2, 2006"
)

type (
	Date struct {
		time.Time
	}

	// ExpenseRecord is immutable once created.
	ExpenseRecord struct {
		ID          string
		Amount      decimal.Decimal
		Category    Category
		Date        Date
		Description string
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrDateOutOfRange = errors.New("date out of range")
)

// MinDate is the earliest date the entry form accepts.
var MinDate = NewDate(1900, 1, 1)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping the calendar date seen in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Validate checks the date is set and inside [MinDate, today].
func (d Date) Validate(today time.Time) error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.Before(MinDate.Time) {
		return ErrDateOutOfRange
	}
	endOfToday := now.With(today).EndOfDay()
	local := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, today.Location())
	if local.After(endOfToday) {
		return ErrDateOutOfRange
	}
	return nil
}

// String returns the YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// DayLabel returns the month/day grouping key, e.g. "03/10".
func (d Date) DayLabel() string {
	return d.Format(DayLabelLayout)
}

// Display returns the human readable form, e.g. "Mar 10, 2024".
func (d Date) Display() string {
	return d.Format(DisplayLayout)
}

// NewRecordID returns a time-ordered unique identifier.
func NewRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
