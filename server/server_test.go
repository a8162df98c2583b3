package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/category-notifier/monitor"
	"github.com/onnwee/category-notifier/telemetry"
)

type fakeStatusSource struct {
	status monitor.Status
}

func (f *fakeStatusSource) Status() monitor.Status { return f.status }

func newTestMux() http.Handler {
	telemetry.Init()
	return NewMux(&fakeStatusSource{status: monitor.Status{
		Channels:          []string{"alice", "bob"},
		LiveChannels:      1,
		CyclesCompleted:   7,
		NotificationsSent: 3,
		LastCycleStart:    time.Now(),
		StateFile:         "state.json",
	}})
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
}

func TestStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var got monitor.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("status body is not JSON: %v", err)
	}
	if got.CyclesCompleted != 7 || got.NotificationsSent != 3 || got.LiveChannels != 1 {
		t.Errorf("status = %+v, want the source snapshot", got)
	}
	if len(got.Channels) != 2 {
		t.Errorf("channels = %v, want [alice bob]", got.Channels)
	}
}

func TestStatusRejectsNonGet(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /status = %d, want 405", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rec.Code)
	}
}

func TestCorrelationIDHeader(t *testing.T) {
	mux := newTestMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("response missing generated X-Correlation-ID header")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	mux.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Errorf("X-Correlation-ID = %q, want the caller-provided corr-123", got)
	}
}
