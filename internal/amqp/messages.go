package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// MessageTypeExpenseRecorded is set as the AMQP type of every published record.
const MessageTypeExpenseRecorded = "expense.recorded"

// ExpenseRecordedMessage announces one appended record together with the ledger
// totals right after the append.
type ExpenseRecordedMessage struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	LedgerTotal decimal.Decimal `json:"ledger_total"`
	LedgerSize  int             `json:"ledger_size"`
	Timestamp   time.Time       `json:"timestamp"`
}

func NewExpenseRecordedMessage(rec core.ExpenseRecord, total decimal.Decimal, size int) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ID:          rec.ID,
		Amount:      rec.Amount,
		Category:    rec.Category.String(),
		Date:        rec.Date.String(),
		Description: rec.Description,
		LedgerTotal: total,
		LedgerSize:  size,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
