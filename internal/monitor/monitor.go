package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/venkytv/nats-threshold/internal/config"
	"github.com/venkytv/nats-threshold/pkg/notify"
	"github.com/venkytv/nats-threshold/pkg/oplog"
	"github.com/venkytv/nats-threshold/pkg/sample"
)

// OpCheckThreshold is the oplog operation recorded for every sample checked.
const OpCheckThreshold = "check_threshold"

// DefaultLogRetention bounds the check log when Config.LogRetention is zero.
const DefaultLogRetention = 10000

type Config struct {
	Prefix      string
	PrimeStream string
	StatusAddr  string
	Debug       bool
	Logger      *slog.Logger

	// LogRetention caps the number of oplog entries kept. Zero uses
	// DefaultLogRetention, negative keeps everything.
	LogRetention int

	// Registry, when set, receives the monitor's metrics and is served on /metrics.
	Registry *prometheus.Registry

	// Updates delivers reloaded threshold files.
	Updates <-chan *config.Config

	// BuildChannels, when set, turns the channels section of an applied
	// config into delivery channels. The notifier's channels are replaced
	// whenever that section changes. On error the current channels stay.
	BuildChannels func(config.ChannelsConfig) ([]notify.Channel, error)
}

type Monitor struct {
	cfg      Config
	nc       *nats.Conn
	notifier *notify.Notifier
	oplog    *oplog.Log
	metrics  *metrics
	logger   *slog.Logger

	mu       sync.Mutex
	state    map[string]*state
	channels *config.ChannelsConfig
}

func New(nc *nats.Conn, n *notify.Notifier, cfg Config) *Monitor {
	cfg.Prefix = strings.TrimSuffix(cfg.Prefix, ".")
	logger := cfg.Logger
	if logger == nil {
		level := slog.LevelInfo
		if cfg.Debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
	}
	if n == nil {
		n = notify.New()
	}
	retention := cfg.LogRetention
	if retention == 0 {
		retention = DefaultLogRetention
	}
	m := &Monitor{
		cfg:      cfg,
		nc:       nc,
		notifier: n,
		oplog:    oplog.New(oplog.WithMaxEntries(retention)),
		logger:   logger,
		state:    make(map[string]*state),
	}
	if cfg.Registry != nil {
		m.metrics = newMetrics(cfg.Registry)
	}
	return m
}

// Log exposes the record of every check the monitor has made.
func (m *Monitor) Log() *oplog.Log { return m.oplog }

func (m *Monitor) Start(ctx context.Context) error {
	if m.nc == nil {
		return errors.New("nats connection is required")
	}
	if m.cfg.PrimeStream != "" {
		if err := m.primeCache(ctx); err != nil {
			m.logger.Warn("prime cache failed", "err", err)
		}
	}

	subject := m.subscribeSubject()
	sub, err := m.nc.Subscribe(subject, func(msg *nats.Msg) {
		m.handleMessage(msg)
	})
	if err != nil {
		return err
	}
	m.logger.Info("monitor subscribed", "subject", subject, "prime_stream", m.cfg.PrimeStream)
	defer sub.Unsubscribe()

	errCh := make(chan error, 1)
	if m.cfg.StatusAddr != "" {
		srv := &http.Server{
			Addr:              m.cfg.StatusAddr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			m.logger.Info("status server listening", "addr", m.cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("status server: %w", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping")
			return nil
		case err := <-errCh:
			return err
		case cfg := <-m.cfg.Updates:
			if cfg != nil {
				m.ApplyConfig(cfg)
			}
		}
	}
}

// ApplyConfig installs the thresholds in cfg and drops any registered
// threshold the file no longer mentions. Channels are rebuilt when the
// channels section differs from the last one applied.
func (m *Monitor) ApplyConfig(cfg *config.Config) {
	m.applyChannels(cfg.Channels)

	keep := make(map[string]bool, len(cfg.Thresholds))
	for _, tc := range cfg.Thresholds {
		t := tc.Threshold()
		keep[t.Name] = true
		m.notifier.SetThreshold(t.Name, t.Value, notify.WithSeverity(t.Severity), notify.WithTemplate(t.Template))
	}

	var dropped []string
	for _, t := range m.notifier.Thresholds() {
		if !keep[t.Name] {
			m.notifier.DeleteThreshold(t.Name)
			dropped = append(dropped, t.Name)
		}
	}

	m.mu.Lock()
	for _, name := range dropped {
		delete(m.state, name)
		m.metrics.forget(name)
	}
	m.mu.Unlock()

	m.logger.Info("thresholds applied", "count", len(keep), "dropped", dropped)
}

func (m *Monitor) applyChannels(cc config.ChannelsConfig) {
	if m.cfg.BuildChannels == nil {
		return
	}
	m.mu.Lock()
	unchanged := m.channels != nil && reflect.DeepEqual(*m.channels, cc)
	m.mu.Unlock()
	if unchanged {
		return
	}

	channels, err := m.cfg.BuildChannels(cc)
	if err != nil {
		m.logger.Error("channel config rejected, keeping current channels", "err", err)
		return
	}
	m.notifier.SetChannels(channels...)

	m.mu.Lock()
	m.channels = &cc
	m.mu.Unlock()

	if len(channels) == 0 {
		m.logger.Warn("no delivery channels configured; notifications will be dropped")
		return
	}
	m.logger.Info("delivery channels applied", "count", len(channels))
}

func (m *Monitor) handleMessage(msg *nats.Msg) {
	s, err := sample.Unmarshal(msg.Data)
	if err != nil {
		m.logger.Error("failed to decode sample", "subject", msg.Subject, "err", err)
		return
	}
	m.observe(s)
}

// observe checks one sample against its threshold and records the outcome.
func (m *Monitor) observe(s sample.Message) {
	th, ok := m.notifier.Threshold(s.Name)
	if !ok {
		m.metrics.unknown(s.Name)
		m.logger.Debug("no threshold for sample", "name", s.Name, "host", s.Host)
		return
	}

	// the whole check works from this one copy of the threshold
	exceeded := th.Exceeded(s.Value)
	delivered := false
	if exceeded {
		delivered = m.notifier.Notify(th.Format(s.Value), th.Severity)
	}

	m.oplog.Record(OpCheckThreshold,
		map[string]any{"name": s.Name, "value": s.Value},
		delivered,
		map[string]any{"threshold": th.Value, "host": s.Host},
	)
	m.metrics.observe(s.Name, s.Value, exceeded)

	m.mu.Lock()
	st, ok := m.state[s.Name]
	if !ok {
		fresh := newState(s)
		st = &fresh
		m.state[s.Name] = st
	}
	st.update(s, exceeded, delivered)
	m.mu.Unlock()

	switch {
	case exceeded && !delivered:
		m.logger.Warn("threshold exceeded but no channel accepted the notification", "name", s.Name, "value", s.Value, "threshold", th.Value)
	case exceeded:
		m.logger.Debug("threshold exceeded", "name", s.Name, "value", s.Value, "threshold", th.Value, "severity", th.Severity)
	default:
		m.logger.Debug("sample within threshold", "name", s.Name, "value", s.Value, "threshold", th.Value)
	}
}

// remember seeds state from a historical sample without notifying.
func (m *Monitor) remember(s sample.Message) {
	th, ok := m.notifier.Threshold(s.Name)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state[s.Name]; ok {
		return
	}
	st := newState(s)
	st.exceeded = th.Exceeded(s.Value)
	m.state[s.Name] = &st
}

func (m *Monitor) primeCache(ctx context.Context) error {
	js, err := m.nc.JetStream()
	if err != nil {
		return err
	}

	subject := m.subscribeSubject()
	m.logger.Info("priming cache from stream", "stream", m.cfg.PrimeStream, "subject", subject)
	sub, err := js.SubscribeSync(subject,
		nats.BindStream(m.cfg.PrimeStream),
		nats.ManualAck(),
		nats.DeliverLastPerSubject(),
		nats.MaxDeliver(1),
	)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for {
		msg, err := sub.NextMsgWithContext(timeoutCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if s, err := sample.Unmarshal(msg.Data); err == nil {
			m.remember(s)
		} else {
			m.logger.Warn("skipping undecodable primed sample", "subject", msg.Subject, "err", err)
		}
		_ = msg.Ack()
	}
}

func (m *Monitor) subscribeSubject() string {
	if m.cfg.Prefix == "" {
		return ">"
	}
	return fmt.Sprintf("%s.>", m.cfg.Prefix)
}
