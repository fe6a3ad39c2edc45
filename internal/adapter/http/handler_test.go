package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type healthBody struct {
	Status       string            `json:"status"`
	Time         string            `json:"time"`
	Dependencies map[string]string `json:"dependencies"`
}

func serveHealth(t *testing.T, h *Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v; raw=%s", err, rec.Body.String())
	}
	return rec, body
}

func TestHealth_OKWithoutChecks(t *testing.T) {
	start := time.Now().UTC()
	rec, body := serveHealth(t, NewHandler())

	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", rec.Code, body.Status)
	}
	if body.Dependencies != nil {
		t.Fatalf("expected no dependency report, got %v", body.Dependencies)
	}
	// RFC3339Nano in UTC, stamped during the call
	at, err := time.Parse(time.RFC3339Nano, body.Time)
	if err != nil {
		t.Fatalf("time not RFC3339Nano: %v (value=%q)", err, body.Time)
	}
	if at.Location() != time.UTC || at.Before(start.Add(-time.Second)) || at.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("unexpected time %v", at)
	}
}

func TestHealth_DependencyReport(t *testing.T) {
	up := Check{Name: "db", Fn: func(context.Context) error { return nil }}
	down := Check{Name: "redis", Fn: func(context.Context) error { return errors.New("dial tcp: refused") }}

	cases := []struct {
		name   string
		checks []Check
		code   int
		status string
	}{
		{"all up", []Check{up}, http.StatusOK, "ok"},
		{"one down", []Check{up, down}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := serveHealth(t, NewHandler(tc.checks...))
			if rec.Code != tc.code || body.Status != tc.status {
				t.Fatalf("expected %d %q, got %d %q", tc.code, tc.status, rec.Code, body.Status)
			}
			if body.Dependencies["db"] != "ok" {
				t.Fatalf("db should report ok: %v", body.Dependencies)
			}
			if len(tc.checks) == 2 && !strings.Contains(body.Dependencies["redis"], "refused") {
				t.Fatalf("redis failure not reported: %v", body.Dependencies)
			}
		})
	}
}
