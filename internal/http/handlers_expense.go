package http

import (
	"net/http"

	"expenses/internal/form"
	applog "expenses/internal/log"
	"expenses/internal/services"
)

const (
	msgExpenseAdded  = "Expense added"
	msgPersistFailed = "Expense added, but it could not be saved. It will be lost on restart unless a later save succeeds."
)

// handleIndex renders the full page on the tab named by ?tab.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := services.ParseView(r.URL.Query().Get("tab"))
	data := s.newPageData(view, s.expenses.DefaultForm(), nil)
	s.writeTemplate(w, r, http.StatusOK, "index.html", data)
}

// handleAppPartial swaps the whole card when a tab is selected.
func (s *Server) handleAppPartial(w http.ResponseWriter, r *http.Request) {
	view := services.ParseView(r.URL.Query().Get("tab"))
	data := s.newPageData(view, s.expenses.DefaultForm(), nil)
	s.writeTemplate(w, r, http.StatusOK, "app", data)
}

func (s *Server) handleRecentPartial(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(services.ViewList, s.expenses.DefaultForm(), nil)
	s.writeTemplate(w, r, http.StatusOK, "recent_list", data)
}

func (s *Server) handleChartPartial(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(services.ViewChart, s.expenses.DefaultForm(), nil)
	s.writeTemplate(w, r, http.StatusOK, "spending_chart", data)
}

func (s *Server) handleTotalPartial(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(services.ViewAdd, s.expenses.DefaultForm(), nil)
	s.writeTemplate(w, r, http.StatusOK, "total", data)
}

// handleCreateExpense accepts the entry form. HTMX callers get the card back,
// plain form posts are redirected to the list on success.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	candidate, err := ParseCandidate(r)
	if err != nil {
		logger.WarnContext(r.Context(), "Failed to parse expense form", applog.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	result := s.expenses.Submit(r.Context(), candidate)

	if !result.OK() {
		data := s.newPageData(services.ViewAdd, result.Form, result.Errors)
		body, err := s.renderTemplate(r.Context(), s.appTemplate(r), data)
		if err != nil {
			InternalServerError("Unable to render page").Write(w)
			return
		}
		NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			BodyHTML(string(body)).
			Write(w)
		return
	}

	if !isHTMX(r) && result.PersistErr == nil {
		http.Redirect(w, r, tabURL(result.View), http.StatusSeeOther)
		return
	}

	data := s.newPageData(result.View, result.Form, nil)
	if !isHTMX(r) {
		data.Notice = &notice{Type: NotificationWarning, Message: msgPersistFailed}
		s.writeTemplate(w, r, http.StatusOK, "index.html", data)
		return
	}

	resp := NewHTMXResponse().
		TriggerExpenseCreated(result.Record.ID, data.Count).
		TriggerFormReset().
		PushURL(tabURL(result.View))
	if result.PersistErr != nil {
		data.Notice = &notice{Type: NotificationWarning, Message: msgPersistFailed}
		resp.TriggerWarningNotification(msgPersistFailed)
	} else {
		resp.TriggerSuccessNotification(msgExpenseAdded)
	}

	body, err := s.renderTemplate(r.Context(), "app", data)
	if err != nil {
		InternalServerError("Unable to render page").Write(w)
		return
	}
	resp.BodyHTML(string(body)).Write(w)
}

// appTemplate picks the card partial for HTMX and the full page otherwise.
func (s *Server) appTemplate(r *http.Request) string {
	if isHTMX(r) {
		return "app"
	}
	return "index.html"
}

// fieldNames lists the fields of errs for JSON clients.
func fieldNames(errs form.FieldErrors) []string {
	names := make([]string, 0, len(errs))
	for _, f := range []string{form.FieldAmount, form.FieldCategory, form.FieldDate, form.FieldDescription} {
		if errs.Has(f) {
			names = append(names, f)
		}
	}
	return names
}
