package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/venkytv/nats-threshold/pkg/sample"
)

func main() {
	var (
		natsURL  = flag.String("nats-url", envDefault("NATS_URL", nats.DefaultURL), "NATS server URL")
		prefix   = flag.String("subject-prefix", envDefault("SUBJECT_PREFIX", "metrics."), "Subject prefix samples are published under")
		name     = flag.String("name", envDefault("NAME", ""), "Sample name, matching a threshold (required)")
		value    = flag.String("value", envDefault("VALUE", ""), "Sample value (required)")
		interval = flag.Duration("interval", envDuration("INTERVAL", 0), "Republish the value at this interval instead of once")
		timeout  = flag.Duration("timeout", envDuration("TIMEOUT", 5*time.Second), "Publish timeout")
		debug    = flag.Bool("debug", envBool("DEBUG", false), "Enable debug logging")
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

	if *name == "" || *value == "" {
		log.Fatal("name and value are required")
	}
	v, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		log.Fatalf("invalid value %q: %v", *value, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	nc, err := connectWithRetry(ctx, logger, *natsURL)
	if err != nil {
		logger.Error("connect to nats failed", "err", err)
		return
	}
	defer nc.Drain()

	pub := sample.NewPublisher(nc, *prefix)

	publish := func() error {
		pctx, pcancel := context.WithTimeout(ctx, *timeout)
		defer pcancel()
		msg := sample.Message{Name: *name, Value: v, GeneratedAt: time.Now().UTC()}
		if err := pub.Publish(pctx, msg); err != nil {
			return err
		}
		if err := nc.FlushWithContext(pctx); err != nil {
			return err
		}
		logger.Debug("sample published", "name", msg.Name, "value", msg.Value)
		return nil
	}

	if *interval <= 0 {
		if err := publish(); err != nil {
			logger.Error("publish sample failed", "err", err, "name", *name)
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		if err := publish(); err != nil {
			logger.Error("publish sample failed", "err", err, "name", *name)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || v == "true" || v == "TRUE" || v == "yes" || v == "on"
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

func connectWithRetry(ctx context.Context, logger *slog.Logger, url string) (*nats.Conn, error) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		nc, err := nats.Connect(
			url,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					logger.Warn("nats disconnected", "err", err)
					return
				}
				logger.Warn("nats disconnected")
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats reconnected")
			}),
		)
		if err == nil {
			return nc, nil
		}

		logger.Error("connect to nats failed", "err", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}
