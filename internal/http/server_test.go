package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"expenses/internal/form"
	"expenses/internal/ledger"
	"expenses/internal/services"
	"expenses/internal/storage"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingStore) Set(context.Context, string, []byte) error        { return errors.New("disk full") }

type testEnv struct {
	srv    *Server
	ledger *ledger.Ledger
}

func newTestEnv(t *testing.T, store storage.Store, opts Options) testEnv {
	t.Helper()
	l := ledger.New(store)
	l.Load(context.Background())
	seq := 0
	svc := services.NewExpenseService(l,
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithIDGenerator(func() string {
			seq++
			return "id-" + string(rune('a'+seq-1))
		}),
	)
	srv, err := NewServer(svc, opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return testEnv{srv: srv, ledger: l}
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func formRequest(path string, values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func validExpense(amount, date string) url.Values {
	return url.Values{
		"amount":      {amount},
		"category":    {"Travel"},
		"date":        {date},
		"description": {"Train"},
	}
}

func TestIndexAndHealth(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Expense Tracker", "Add Expense", "Select a category", "Total Expenses", "$0.00", `value="2024-03-15"`, `max="2024-03-15"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestReadyz_NotReady(t *testing.T) {
	l := ledger.New(storage.NewMemoryStore())
	srv, err := NewServer(services.NewExpenseService(l), Options{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unloaded ledger: status=%d, want 503", rr.Code)
	}

	env := newTestEnv(t, storage.NewMemoryStore(), Options{
		Ready: func(context.Context) error { return errors.New("db down") },
	})
	rr = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing ping: status=%d, want 503", rr.Code)
	}
}

func TestCreateExpense_HTMXSuccess(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	rr := env.do(formRequest("/expenses", validExpense("45.50", "2024-03-10"), true))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, want := range []string{"expense:created", "form:reset", `"type":"success"`} {
		if !strings.Contains(trigger, want) {
			t.Errorf("HX-Trigger missing %q: %s", want, trigger)
		}
	}
	if got := rr.Header().Get("HX-Push-Url"); got != "/?tab=list" {
		t.Errorf("HX-Push-Url = %q", got)
	}
	body := rr.Body.String()
	for _, want := range []string{`id="recent-list"`, "Mar 10, 2024", "Travel", "$45.50", "Train"} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q", want)
		}
	}
	if env.ledger.Len() != 1 {
		t.Errorf("ledger size = %d, want 1", env.ledger.Len())
	}
}

func TestCreateExpense_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	values := url.Values{"amount": {"0"}, "category": {""}, "date": {"2024-03-10"}, "description": {"kept"}}
	rr := env.do(formRequest("/expenses", values, true))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{form.MsgAmountPositive, form.MsgSelectCategory, `id="expense-form"`, "kept"} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q", want)
		}
	}
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("HTMX response should be the partial, not the full page")
	}
	if env.ledger.Len() != 0 {
		t.Errorf("ledger size = %d, want 0", env.ledger.Len())
	}
}

func TestCreateExpense_FutureDateRejected(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	rr := env.do(formRequest("/expenses", validExpense("10", "2024-03-16"), false))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "<!DOCTYPE html>") {
		t.Error("plain form failure should render the full page")
	}
}

func TestCreateExpense_PlainFormRedirects(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	rr := env.do(formRequest("/expenses", validExpense("12", "2024-03-01"), false))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/?tab=list" {
		t.Errorf("Location = %q", got)
	}
}

func TestCreateExpense_PersistFailureWarns(t *testing.T) {
	env := newTestEnv(t, failingStore{}, Options{})

	rr := env.do(formRequest("/expenses", validExpense("5", "2024-03-14"), true))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"type":"warning"`) {
		t.Errorf("HX-Trigger = %s, want warning", rr.Header().Get("HX-Trigger"))
	}
	if !strings.Contains(rr.Body.String(), "notice-warning") {
		t.Error("body missing warning notice")
	}
	if env.ledger.Len() != 1 || !env.ledger.Dirty() {
		t.Errorf("record should be kept and ledger dirty: len=%d dirty=%v", env.ledger.Len(), env.ledger.Dirty())
	}
}

func TestCreateExpense_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/expenses", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRecentListShowsFive(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})
	for i := 1; i <= 7; i++ {
		date := time.Date(2024, 3, i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		if rr := env.do(formRequest("/expenses", validExpense("1", date), true)); rr.Code != http.StatusOK {
			t.Fatalf("submit %d: status=%d", i, rr.Code)
		}
	}

	rr := env.do(httptest.NewRequest(http.MethodGet, "/ui/recent", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if got := strings.Count(body, "<td>Travel</td>"); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}
	if !strings.Contains(body, "Mar 7, 2024") || strings.Contains(body, "Mar 2, 2024") {
		t.Error("list should hold the five newest submissions")
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/ui/total", nil))
	if !strings.Contains(rr.Body.String(), "$7.00") {
		t.Errorf("total partial = %s", rr.Body.String())
	}
}

func TestChartTab(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})
	env.do(formRequest("/expenses", validExpense("10.00", "2024-03-10"), true))
	env.do(formRequest("/expenses", validExpense("5.25", "2024-03-10"), true))

	rr := env.do(httptest.NewRequest(http.MethodGet, "/ui/app?tab=chart", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"<svg", "03/10: $15.25", "$15.25"} {
		if !strings.Contains(body, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}

func TestUnknownTabFallsBackToForm(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/?tab=bogus", nil))
	if !strings.Contains(rr.Body.String(), `id="expense-form"`) {
		t.Error("unknown tab should show the entry form")
	}
}

func TestAPI(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader(`{"amount":"45.5","category":"Travel","date":"2024-03-10"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := env.do(req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		Expense expenseJSON `json:"expense"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Expense.Amount != "45.50" || created.Expense.Date != "2024-03-10" {
		t.Errorf("created = %+v", created.Expense)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(`{"amount":"-1","category":"Nope","date":"2024-03-10"}`))
	rr = env.do(req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid status=%d", rr.Code)
	}
	var invalid struct {
		Errors map[string]string `json:"errors"`
		Fields []string          `json:"fields"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &invalid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(invalid.Fields) != 2 || invalid.Fields[0] != "amount" || invalid.Fields[1] != "category" {
		t.Errorf("fields = %v", invalid.Fields)
	}

	env.do(formRequest("/api/expenses", validExpense("4.50", "2024-03-11"), false))

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/expenses?limit=1", nil))
	var list []expenseJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Date != "2024-03-11" {
		t.Errorf("list = %+v", list)
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	var summary summaryJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Total != "50.00" || summary.Count != 2 || len(summary.Trend) != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Trend[0].Label != "03/11" {
		t.Errorf("trend order = %+v", summary.Trend)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{RateLimitPerMinute: 1})

	if rr := env.do(formRequest("/expenses", validExpense("1", "2024-03-01"), true)); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := env.do(formRequest("/expenses", validExpense("1", "2024-03-01"), true))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "htmx:beforeSwap") {
		t.Error("unexpected static body")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := env.srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := env.srv.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}

func TestAPI_RejectsHugeExponent(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader(`{"amount":1e2000000000,"category":"Other","date":"2024-03-10"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := env.do(req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), form.MsgAmountPositive) {
		t.Errorf("body = %s", rr.Body.String())
	}
	if env.ledger.Len() != 0 {
		t.Errorf("ledger size = %d, want 0", env.ledger.Len())
	}
}

func TestRecentLimitIsClampedToFive(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{RecentLimit: 50})
	for i := 1; i <= 7; i++ {
		date := time.Date(2024, 3, i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		env.do(formRequest("/expenses", validExpense("1", date), true))
	}

	rr := env.do(httptest.NewRequest(http.MethodGet, "/ui/recent", nil))
	if got := strings.Count(rr.Body.String(), "<td>Travel</td>"); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}
}

func TestCreateExpense_FormValuesAreTrimmed(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore(), Options{})

	values := validExpense("3", "2024-03-02")
	values.Set("category", "  Travel ")
	rr := env.do(formRequest("/expenses", values, true))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	if got := env.ledger.All()[0].Category; got != "Travel" {
		t.Errorf("category = %q", got)
	}
}
