package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

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

func main() {
	statusURL := flag.String("url", envDefault("STATUS_URL", "http://127.0.0.1:8080/"), "Status endpoint URL")
	timeout := flag.Duration("timeout", envDuration("STATUS_TIMEOUT", 3*time.Second), "HTTP request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := fetchStatus(ctx, *statusURL)
	if err != nil {
		log.Fatalf("fetch status: %v", err)
	}

	printStatus(resp, os.Stdout)
}

func fetchStatus(ctx context.Context, url string) (statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return statusResponse{}, fmt.Errorf("build request: %w", err)
	}

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return statusResponse{}, fmt.Errorf("request status: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return statusResponse{}, fmt.Errorf("unexpected status %s: %s", res.Status, strings.TrimSpace(string(body)))
	}

	var status statusResponse
	if err := json.NewDecoder(res.Body).Decode(&status); err != nil {
		return statusResponse{}, fmt.Errorf("decode response: %w", err)
	}

	return status, nil
}

func printStatus(resp statusResponse, w io.Writer) {
	if resp.ObservedAt.IsZero() {
		resp.ObservedAt = time.Now()
	}
	fmt.Fprintf(w, "Observed at: %s\n", resp.ObservedAt.Format(time.RFC3339))

	if len(resp.Thresholds) == 0 {
		fmt.Fprintln(w, "No thresholds configured.")
		return
	}

	alerting := 0
	fmt.Fprintln(w)

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tNAME\tSEVERITY\tHOST\tLAST SEEN\tDETAILS")
	for _, s := range resp.Thresholds {
		if s.Exceeded {
			alerting++
		}
		status, details := summarizeThreshold(s)

		lastSeen := "-"
		if s.LastSeen != nil && !s.LastSeen.IsZero() {
			lastSeen = s.LastSeen.Format(time.RFC3339)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", status, s.Name, s.Severity, fallback(s.Host, "-"), lastSeen, details)
	}
	_ = tw.Flush()

	out := buf.String()
	if shouldColor(w) {
		out = colorizeStatuses(out)
	}

	fmt.Fprint(w, out)
	fmt.Fprintf(w, "\n%d threshold(s) exceeded out of %d\n", alerting, len(resp.Thresholds))
}

func summarizeThreshold(s thresholdState) (string, string) {
	limit := notify.FormatValue(s.Threshold)
	if s.LastValue == nil {
		return "NODATA", fmt.Sprintf("limit %s, no samples yet", limit)
	}

	details := fmt.Sprintf("%s <= %s", notify.FormatValue(*s.LastValue), limit)
	status := "OK"
	if s.Exceeded {
		status = "ALERT!"
		details = fmt.Sprintf("%s > %s, triggered %d time(s)", notify.FormatValue(*s.LastValue), limit, s.TriggerCount)
		if !s.Delivered {
			status = "UNSENT"
			details += ", last alert not delivered"
		}
	}
	return status, details
}

func fallback(v, defaultVal string) string {
	if strings.TrimSpace(v) == "" {
		return defaultVal
	}
	return v
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

func shouldColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func applyColor(s string, colorize bool, code int) string {
	if !colorize {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, s)
}

func colorizeStatuses(out string) string {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "STATUS") {
			continue
		}
		spaceIdx := strings.IndexByte(line, ' ')
		if spaceIdx <= 0 {
			continue
		}
		status := line[:spaceIdx]
		rest := line[spaceIdx:]

		switch status {
		case "ALERT!":
			status = applyColor(status, true, 31)
		case "UNSENT", "NODATA":
			status = applyColor(status, true, 33)
		case "OK":
			status = applyColor(status, true, 32)
		default:
			// leave as-is
		}
		lines[i] = status + rest
	}
	return strings.Join(lines, "\n")
}
