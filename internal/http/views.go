package http

import (
	"html/template"
	"net/url"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/form"
	"expenses/internal/ledger"
	"expenses/internal/services"
)

// tab is one entry of the page navigation.
type tab struct {
	View   services.View
	Label  string
	Active bool
}

var tabLabels = []struct {
	view  services.View
	label string
}{
	{services.ViewAdd, "Add Expense"},
	{services.ViewList, "Recent Expenses"},
	{services.ViewChart, "Spending Chart"},
}

type notice struct {
	Type    NotificationType
	Message string
}

type recentRow struct {
	Date        string
	Category    string
	Amount      decimal.Decimal
	Description string
}

// pageData feeds every template. All ledger-derived fields come from one snapshot.
type pageData struct {
	View       services.View
	Tabs       []tab
	Form       form.Candidate
	Errors     form.FieldErrors
	Categories []core.Category
	MinDate    string
	MaxDate    string

	Recent []recentRow
	Count  int
	Total  decimal.Decimal
	Chart  template.HTML
	Notice *notice
}

func (s *Server) newPageData(view services.View, c form.Candidate, errs form.FieldErrors) pageData {
	snap := s.ledger.Snapshot()

	tabs := make([]tab, 0, len(tabLabels))
	for _, t := range tabLabels {
		tabs = append(tabs, tab{View: t.view, Label: t.label, Active: t.view == view})
	}

	recent := ledger.Recent(snap.Records, s.recentLimit)
	rows := make([]recentRow, 0, len(recent))
	for _, rec := range recent {
		rows = append(rows, recentRow{
			Date:        rec.Date.Display(),
			Category:    rec.Category.String(),
			Amount:      rec.Amount,
			Description: rec.Description,
		})
	}

	data := pageData{
		View:       view,
		Tabs:       tabs,
		Form:       c,
		Errors:     errs,
		Categories: core.Categories(),
		MinDate:    core.MinDate.String(),
		MaxDate:    core.DateOf(s.expenses.Today()).String(),
		Recent:     rows,
		Count:      len(snap.Records),
		Total:      ledger.Total(snap.Records),
	}
	if view == services.ViewChart {
		data.Chart = s.chart.RenderSnapshot(snap)
	}
	return data
}

// tabURL is the address bar location of view.
func tabURL(view services.View) string {
	return "/?" + url.Values{"tab": {string(view)}}.Encode()
}
