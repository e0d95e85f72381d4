package monitor

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

type statusResponse struct {
	ObservedAt time.Time        `json:"observed_at"`
	Thresholds []thresholdState `json:"thresholds"`
}

type thresholdState struct {
	Name         string     `json:"name"`
	Threshold    float64    `json:"threshold"`
	Severity     string     `json:"severity"`
	Host         string     `json:"host,omitempty"`
	LastValue    *float64   `json:"last_value,omitempty"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	Exceeded     bool       `json:"exceeded"`
	Delivered    bool       `json:"delivered"`
	TriggerCount int        `json:"trigger_count"`
}

type notifyRequest struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Handler serves the monitor's HTTP API.
func (m *Monitor) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", m.handleStatus)
	r.Get("/thresholds", m.handleThresholds)
	r.Get("/log", m.handleLog)
	r.Delete("/log", m.handleClearLog)
	r.Post("/notify", m.handleNotify)
	if m.cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(m.cfg.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

func (m *Monitor) snapshot() []thresholdState {
	thresholds := m.notifier.Thresholds()

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]thresholdState, 0, len(thresholds))
	for _, t := range thresholds {
		ts := thresholdState{
			Name:      t.Name,
			Threshold: t.Value,
			Severity:  t.Severity.String(),
		}
		if st, ok := m.state[t.Name]; ok {
			value, seen := st.lastValue, st.lastSeen
			ts.Host = st.host
			ts.LastValue = &value
			ts.LastSeen = &seen
			ts.Exceeded = st.exceeded
			ts.Delivered = st.delivered
			ts.TriggerCount = st.triggerCount
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		ObservedAt: time.Now().UTC(),
		Thresholds: m.snapshot(),
	})
}

func (m *Monitor) handleThresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.notifier.Thresholds())
}

func (m *Monitor) handleLog(w http.ResponseWriter, r *http.Request) {
	entries := m.oplog.Entries(r.URL.Query().Get("operation"))
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (m *Monitor) handleClearLog(w http.ResponseWriter, r *http.Request) {
	m.oplog.Clear()
	m.logger.Info("check log cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}
	severity := notify.Info
	if req.Severity != "" {
		s, err := notify.ParseSeverity(req.Severity)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		severity = s
	}

	delivered := m.notifier.Notify(req.Message, severity)
	m.oplog.Record("notify", map[string]any{"message": req.Message, "severity": severity.String()}, delivered, nil)
	m.logger.Info("manual notification", "severity", severity, "delivered", delivered)

	writeJSON(w, http.StatusOK, map[string]bool{"delivered": delivered})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
