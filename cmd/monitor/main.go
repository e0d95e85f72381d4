package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/venkytv/nats-threshold/internal/config"
	"github.com/venkytv/nats-threshold/internal/monitor"
	"github.com/venkytv/nats-threshold/internal/notifier"
	"github.com/venkytv/nats-threshold/pkg/notify"
)

func main() {
	var (
		natsURL       = flag.String("nats-url", envDefault("NATS_URL", nats.DefaultURL), "NATS server URL")
		prefix        = flag.String("subject-prefix", envDefault("SUBJECT_PREFIX", "metrics."), "Subject prefix to monitor")
		primeStream   = flag.String("prime-stream", envDefault("PRIME_STREAM", ""), "Optional JetStream stream to prime state from")
		configPath    = flag.String("config", envDefault("THRESHOLDS_FILE", "thresholds.yaml"), "Threshold and channel definitions (YAML)")
		watch         = flag.Bool("watch", envBool("WATCH_CONFIG", true), "Reload the config file when it changes")
		statusAddr    = flag.String("status-addr", envDefault("STATUS_ADDR", "127.0.0.1:8080"), "Listen address for HTTP status (empty to disable)")
		poUser        = flag.String("pushover-user", os.Getenv("PUSHOVER_USER"), "Pushover user key")
		poToken       = flag.String("pushover-token", os.Getenv("PUSHOVER_TOKEN"), "Pushover app token")
		webhookURL    = flag.String("webhook-url", os.Getenv("WEBHOOK_URL"), "Optional webhook receiving notifications as JSON")
		notifySubject = flag.String("notify-subject", os.Getenv("NOTIFY_SUBJECT"), "Optional NATS subject to republish notifications on")
		sendTimeout   = flag.Duration("send-timeout", envDuration("SEND_TIMEOUT", 10*time.Second), "Timeout for HTTP delivery channels")
		logRetention  = flag.Int("log-retention", envInt("LOG_RETENTION", monitor.DefaultLogRetention), "Checks kept in the in-memory log (negative keeps all)")
		debug         = flag.Bool("debug", envBool("DEBUG", false), "Enable debug logging")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	if *debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	cfgMgr := config.NewManager(*configPath, logger)
	cfg, err := cfgMgr.Load()
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("config file not found, starting without thresholds", "path", *configPath)
		cfg = &config.Config{}
	} else if err != nil {
		log.Fatalf("load config: %v", err)
	}

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatalf("connect to nats: %v", err)
	}
	defer nc.Drain()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	fc := flagChannels{
		pushoverUser:  *poUser,
		pushoverToken: *poToken,
		webhookURL:    *webhookURL,
		notifySubject: *notifySubject,
	}
	if err := checkNotifySubject(*prefix, fc.merge(cfg.Channels)); err != nil {
		log.Fatalf("channels: %v", err)
	}
	deps := channelDeps{
		conn:    nc,
		logger:  logger,
		metrics: notifier.NewMetrics(reg),
		timeout: *sendTimeout,
	}

	mcfg := monitor.Config{
		Prefix:       *prefix,
		PrimeStream:  *primeStream,
		StatusAddr:   *statusAddr,
		Debug:        *debug,
		Logger:       logger,
		LogRetention: *logRetention,
		Registry:     reg,
		BuildChannels: func(cc config.ChannelsConfig) ([]notify.Channel, error) {
			cc = fc.merge(cc)
			if err := checkNotifySubject(*prefix, cc); err != nil {
				return nil, err
			}
			return buildChannels(cc, deps), nil
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *watch {
		mcfg.Updates = cfgMgr.Subscribe(1)
		go func() {
			if err := cfgMgr.Watch(ctx); err != nil {
				logger.Error("config watch stopped", "err", err)
			}
		}()
	}

	m := monitor.New(nc, notify.New(), mcfg)
	m.ApplyConfig(cfg)

	if err := m.Start(ctx); err != nil {
		log.Fatalf("monitor failed: %v", err)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || v == "true" || v == "TRUE" || v == "yes" || v == "on"
	}
	return fallback
}
