package monitor

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

func TestSnapshotReportsExceededAndUnseen(t *testing.T) {
	m, _ := newTestMonitor(t, true)
	m.notifier.SetThreshold("cpu", 80)
	m.notifier.SetThreshold("mem", 90, notify.WithSeverity(notify.Warning))

	m.observe(msg("cpu", 85))
	m.observe(msg("cpu", 95))

	snapshot := m.snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 thresholds, got %d", len(snapshot))
	}
	cpu, mem := snapshot[0], snapshot[1]

	if !cpu.Exceeded || cpu.TriggerCount != 2 || !cpu.Delivered {
		t.Fatalf("expected cpu exceeded twice, got %+v", cpu)
	}
	if cpu.LastValue == nil || *cpu.LastValue != 95 {
		t.Fatalf("expected cpu last value 95, got %v", cpu.LastValue)
	}
	if cpu.Host != "host-a" || cpu.Severity != "ALERT" {
		t.Fatalf("unexpected cpu host/severity %s/%s", cpu.Host, cpu.Severity)
	}

	if mem.LastValue != nil || mem.LastSeen != nil || mem.Exceeded {
		t.Fatalf("expected mem to be unseen, got %+v", mem)
	}
	if mem.Severity != "WARNING" || mem.Threshold != 90 {
		t.Fatalf("unexpected mem definition %+v", mem)
	}
}

func TestStatusEndpoint(t *testing.T) {
	m, _ := newTestMonitor(t, true)
	m.notifier.SetThreshold("cpu", 80)
	m.observe(msg("cpu", 81))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Thresholds) != 1 || !resp.Thresholds[0].Exceeded {
		t.Fatalf("unexpected status %+v", resp)
	}
	if resp.ObservedAt.IsZero() {
		t.Fatalf("expected observed_at to be set")
	}
}

func TestThresholdsEndpoint(t *testing.T) {
	m, _ := newTestMonitor(t, true)
	m.notifier.SetThreshold("cpu", 80, notify.WithSeverity(notify.Error))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thresholds", nil))

	var got []notify.Threshold
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "cpu" || got[0].Severity != notify.Error {
		t.Fatalf("unexpected thresholds %+v", got)
	}
}

func TestNotifyEndpoint(t *testing.T) {
	m, ch := newTestMonitor(t, true)
	h := m.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(`{"message":"deploy finished","severity":"warning"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp["delivered"] {
		t.Fatalf("expected delivered=true")
	}
	if len(ch.messages) != 1 || ch.messages[0] != "deploy finished" {
		t.Fatalf("expected manual message to be sent, got %v", ch.messages)
	}
	if m.Log().Count("notify") != 1 {
		t.Fatalf("expected manual notification to be logged")
	}
}

func TestNotifyEndpointRejectsBadInput(t *testing.T) {
	m, ch := newTestMonitor(t, true)
	h := m.Handler()

	for _, body := range []string{
		`not json`,
		`{"severity":"info"}`,
		`{"message":"x","severity":"loud"}`,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
	if len(ch.messages) != 0 {
		t.Fatalf("expected nothing sent, got %v", ch.messages)
	}
}

func TestLogEndpointFilters(t *testing.T) {
	m, _ := newTestMonitor(t, true)
	m.notifier.SetThreshold("cpu", 80)
	m.observe(msg("cpu", 1))
	m.oplog.Record("notify", nil, true, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log?operation="+OpCheckThreshold, nil))

	var resp struct {
		Count   int `json:"count"`
		Entries []struct {
			Operation string `json:"operation"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Entries[0].Operation != OpCheckThreshold {
		t.Fatalf("unexpected log response %+v", resp)
	}
}

func TestDeleteLogClearsEntries(t *testing.T) {
	m, _ := newTestMonitor(t, true)
	m.notifier.SetThreshold("cpu", 80)
	m.observe(msg("cpu", 1))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/log", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if n := m.Log().Count(""); n != 0 {
		t.Fatalf("expected empty log, got %d entries", n)
	}
}

func TestWriteJSONReportsEncodeErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]notify.Severity{"bad": 0})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(nil, notify.New(&recordingChannel{ok: true}), Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: reg,
	})
	m.notifier.SetThreshold("cpu", 80)
	m.observe(msg("cpu", 90))
	m.observe(msg("unknown", 1))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`threshold_checks_total{outcome="exceeded",threshold="cpu"} 1`,
		`threshold_checks_total{outcome="unknown",threshold="unknown"} 1`,
		`threshold_last_value{threshold="cpu"} 90`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics to contain %q, got:\n%s", want, body)
		}
	}
}

func TestMetricsEndpointAbsentWithoutRegistry(t *testing.T) {
	m, _ := newTestMonitor(t, true)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
