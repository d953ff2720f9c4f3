package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// wireRecord is the persisted shape of one record, newest-first in an array.
type wireRecord struct {
	ID          string     `json:"id"`
	Amount      wireAmount `json:"amount"`
	Category    string     `json:"category"`
	Date        wireDate   `json:"date"`
	Description string     `json:"description"`
}

// wireAmount is written as a bare JSON number and read from a number or a string.
type wireAmount struct {
	decimal.Decimal
}

func (a wireAmount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *wireAmount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

// wireDate is written as an RFC 3339 date-time at midnight UTC. Reading accepts any
// RFC 3339 date-time (the calendar date in UTC is kept) or a bare YYYY-MM-DD.
type wireDate struct {
	core.Date
}

func (d wireDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

func (d *wireDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Date = core.DateOf(t.UTC())
		return nil
	}
	parsed, err := core.ParseDate(s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	d.Date = parsed
	return nil
}

// Encode serializes records in the given order.
func Encode(records []core.ExpenseRecord) ([]byte, error) {
	out := make([]wireRecord, len(records))
	for i, r := range records {
		out[i] = wireRecord{
			ID:          r.ID,
			Amount:      wireAmount{r.Amount},
			Category:    string(r.Category),
			Date:        wireDate{r.Date},
			Description: r.Description,
		}
	}
	return json.Marshal(out)
}

// Decode parses a persisted ledger. Records are not re-validated.
func Decode(data []byte) ([]core.ExpenseRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var in []wireRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	records := make([]core.ExpenseRecord, len(in))
	for i, w := range in {
		records[i] = core.ExpenseRecord{
			ID:          w.ID,
			Amount:      w.Amount.Decimal,
			Category:    core.Category(w.Category),
			Date:        w.Date.Date,
			Description: w.Description,
		}
	}
	return records, nil
}
