package http

import (
	"errors"
	"net/http"

	"expenses/internal/core"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
)

// expenseJSON is the API shape of a record. Amounts are fixed two-decimal strings.
type expenseJSON struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type trendPointJSON struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

type summaryJSON struct {
	Total string           `json:"total"`
	Count int              `json:"count"`
	Trend []trendPointJSON `json:"trend"`
}

func toExpenseJSON(rec core.ExpenseRecord) expenseJSON {
	return expenseJSON{
		ID:          rec.ID,
		Amount:      core.FormatAmount(rec.Amount),
		Category:    rec.Category.String(),
		Date:        rec.Date.String(),
		Description: rec.Description,
	}
}

// handleAPIListExpenses returns the newest records, ?limit of them.
func (s *Server) handleAPIListExpenses(w http.ResponseWriter, r *http.Request) {
	recent := s.ledger.Recent(parseLimit(r, s.recentLimit))
	out := make([]expenseJSON, 0, len(recent))
	for _, rec := range recent {
		out = append(out, toExpenseJSON(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPICreateExpense(w http.ResponseWriter, r *http.Request) {
	candidate, err := ParseCandidate(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, map[string]string{"error": "invalid request body"})
		return
	}

	result := s.expenses.Submit(r.Context(), candidate)
	if !result.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": result.Errors,
			"fields": fieldNames(result.Errors),
		})
		return
	}

	resp := map[string]any{"expense": toExpenseJSON(*result.Record)}
	if result.PersistErr != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "API expense not persisted",
			applog.FieldExpenseID, result.Record.ID, applog.FieldError, result.PersistErr)
		resp["warning"] = msgPersistFailed
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()
	points := ledger.Trend(snap.Records)
	trend := make([]trendPointJSON, 0, len(points))
	for _, p := range points {
		trend = append(trend, trendPointJSON{Label: p.Label, Amount: core.FormatAmount(p.Amount)})
	}
	writeJSON(w, http.StatusOK, summaryJSON{
		Total: core.FormatAmount(ledger.Total(snap.Records)),
		Count: len(snap.Records),
		Trend: trend,
	})
}
