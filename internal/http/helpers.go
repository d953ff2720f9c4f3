package http

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"strings"

	"expenses/internal/core"
	"expenses/internal/form"
	applog "expenses/internal/log"
)

var templateFuncs = template.FuncMap{
	"currency": core.FormatCurrency,
	"fieldError": func(errs form.FieldErrors, field string) string {
		return errs[field]
	},
}

// clientKey identifies a caller for rate limiting. RealIP has already
// rewritten RemoteAddr from trusted forwarding headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// renderTemplate executes name into a buffer so a failed render never leaves
// a half-written response.
func (s *Server) renderTemplate(ctx context.Context, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Template render failed",
			"template", name, applog.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeTemplate renders name and writes it with status.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := s.renderTemplate(r.Context(), name, data)
	if err != nil {
		InternalServerError("Unable to render page").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(string(body)).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseLimit reads a positive ?limit, falling back to def.
func parseLimit(r *http.Request, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, clientKey(r))
	if wantsJSON(r) || strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Too many requests, try again shortly").
		BodyHTML(`<div class="error">Too many requests</div>`).
		Write(w)
}
