// Package config loads the threshold and channel definitions file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/venkytv/nats-threshold/pkg/notify"
)

// Config is the root of the YAML file.
type Config struct {
	Thresholds []ThresholdConfig `yaml:"thresholds"`
	Channels   ChannelsConfig    `yaml:"channels"`
}

type ThresholdConfig struct {
	Name     string  `yaml:"name"`
	Value    float64 `yaml:"value"`
	Severity string  `yaml:"severity,omitempty"`
	Template string  `yaml:"template,omitempty"`
}

type ChannelsConfig struct {
	// Console defaults to true when no other channel is configured.
	Console  *bool           `yaml:"console,omitempty"`
	Pushover *PushoverConfig `yaml:"pushover,omitempty"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
	NATS     *NATSConfig     `yaml:"nats,omitempty"`
}

type PushoverConfig struct {
	Token string `yaml:"token"`
	User  string `yaml:"user"`
}

type WebhookConfig struct {
	URL    string `yaml:"url"`
	Method string `yaml:"method,omitempty"`
}

type NATSConfig struct {
	Subject string `yaml:"subject"`
}

// ConsoleEnabled reports whether console output should be installed.
func (c ChannelsConfig) ConsoleEnabled() bool {
	if c.Console != nil {
		return *c.Console
	}
	return c.Pushover == nil && len(c.Webhooks) == 0 && c.NATS == nil
}

// Parse decodes YAML, rejecting unknown fields. Empty input is an empty config.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Thresholds))
	for i, t := range c.Thresholds {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("thresholds[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("thresholds[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		if t.Severity != "" {
			if _, err := notify.ParseSeverity(t.Severity); err != nil {
				return fmt.Errorf("thresholds[%d]: %w", i, err)
			}
		}
	}
	if p := c.Channels.Pushover; p != nil && (p.Token == "" || p.User == "") {
		return errors.New("channels.pushover: token and user are required")
	}
	for i, w := range c.Channels.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("channels.webhooks[%d]: url is required", i)
		}
	}
	if n := c.Channels.NATS; n != nil && n.Subject == "" {
		return errors.New("channels.nats: subject is required")
	}
	return nil
}

// Threshold converts the entry into a notify.Threshold, defaulting severity
// to Alert and the template to notify.DefaultTemplate.
func (t ThresholdConfig) Threshold() notify.Threshold {
	sev := notify.Alert
	if t.Severity != "" {
		if s, err := notify.ParseSeverity(t.Severity); err == nil {
			sev = s
		}
	}
	tmpl := t.Template
	if tmpl == "" {
		tmpl = notify.DefaultTemplate
	}
	return notify.Threshold{
		Name:     strings.TrimSpace(t.Name),
		Value:    t.Value,
		Severity: sev,
		Template: tmpl,
	}
}
