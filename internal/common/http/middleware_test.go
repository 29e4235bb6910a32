package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
)

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Stop()

	handler := rl.Middleware("login", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusNoContent {
		t.Errorf("a different client should have its own bucket, got %d", rec.Code)
	}
}

func TestStrictRateLimiter_UnknownKindFallsBackToGeneral(t *testing.T) {
	srl := NewStrictRateLimiter(func(r *http.Request) string { return "k" })
	defer srl.Stop()

	handler := srl.Middleware("nope")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMaxRequestSizeMiddleware(t *testing.T) {
	handler := MaxRequestSizeMiddleware(8, 64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("identifier=abcdef")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for form body, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", strings.NewReader("identifier=abcdef"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("multipart should use the larger limit, got %d", rec.Code)
	}
}

func TestTraceIDMiddleware(t *testing.T) {
	var seen string
	handler := TraceIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(constants.TraceIDKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "given")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "given" || rec.Header().Get("X-Trace-ID") != "given" {
		t.Errorf("expected propagated trace id, got ctx=%q header=%q", seen, rec.Header().Get("X-Trace-ID"))
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 32 {
		t.Errorf("expected generated 32-char trace id, got %q", seen)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/user/profile/abc", nil)
	req.SetPathValue("id", "abc")
	if _, err := PathID(req, "id"); err == nil {
		t.Error("expected invalid id error")
	}

	req.SetPathValue("id", "3fa85f64-5717-4562-b3fc-2c963f66afa6")
	id, err := PathID(req, "id")
	if err != nil || id != "3fa85f64-5717-4562-b3fc-2c963f66afa6" {
		t.Errorf("unexpected result %q %v", id, err)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthHandler(logger.Discard(), map[string]Pinger{"database": healthy})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("expected ok, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	HealthHandler(logger.Discard(), map[string]Pinger{"database": healthy, "sessions": down})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sessions":"down"`) || strings.Contains(rec.Body.String(), "refused") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
