package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envIMAPHost = "MAILWATCH_IMAP_HOST"
	envIMAPPort = "MAILWATCH_IMAP_PORT"
	envIMAPUser = "MAILWATCH_IMAP_USER"
	envIMAPPass = "MAILWATCH_IMAP_PASS"
	envOTLPDSN  = "MAILWATCH_OTLP_DSN"
)

const (
	defaultWatchInterval     = 60 * time.Second
	defaultReconnectInterval = 60 * time.Second
	defaultSettleDelay       = time.Second
	defaultStatusAddr        = ":8035"
)

// Config holds non-secret configuration loaded from YAML.
type Config struct {
	Watch     Watch     `yaml:"watch"`
	Logging   bool      `yaml:"logging"`
	Status    Status    `yaml:"status"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// IMAPEnv holds the IMAP connection details from environment variables.
type IMAPEnv struct {
	Host string
	Port int
	User string
	Pass string
}

// Watch configures which mailboxes are polled and how often.
type Watch struct {
	Mailboxes         []string `yaml:"mailboxes"`
	Interval          string   `yaml:"interval"`
	ReconnectInterval string   `yaml:"reconnect_interval"`
	SettleDelay       string   `yaml:"settle_delay"`
}

// Status configures the read-only HTTP surface.
type Status struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Telemetry toggles the OpenTelemetry pipeline.
type Telemetry struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate performs basic validation on non-secret config.
func Validate(cfg Config) error {
	if _, err := cfg.WatchInterval(); err != nil {
		return fmt.Errorf("invalid watch.interval: %w", err)
	}
	if _, err := cfg.ReconnectInterval(); err != nil {
		return fmt.Errorf("invalid watch.reconnect_interval: %w", err)
	}
	if _, err := cfg.SettleDelay(); err != nil {
		return fmt.Errorf("invalid watch.settle_delay: %w", err)
	}
	for i, path := range cfg.Watch.Mailboxes {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("watch.mailboxes[%d] must not be blank", i)
		}
	}
	return nil
}

// WatchInterval returns the poll interval, defaulting to one minute.
func (cfg Config) WatchInterval() (time.Duration, error) {
	return parseInterval(cfg.Watch.Interval, defaultWatchInterval)
}

// ReconnectInterval returns the restart delay, defaulting to one minute.
func (cfg Config) ReconnectInterval() (time.Duration, error) {
	return parseInterval(cfg.Watch.ReconnectInterval, defaultReconnectInterval)
}

// SettleDelay returns how long the initial-load batch is held after startup.
func (cfg Config) SettleDelay() (time.Duration, error) {
	return parseInterval(cfg.Watch.SettleDelay, defaultSettleDelay)
}

// StatusAddr returns the listen address for the status server.
func (cfg Config) StatusAddr() string {
	if strings.TrimSpace(cfg.Status.Addr) == "" {
		return defaultStatusAddr
	}
	return cfg.Status.Addr
}

func parseInterval(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if dur <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return dur, nil
}

// IMAPEnvFromEnv loads IMAP connection details and validates required entries.
func IMAPEnvFromEnv() (IMAPEnv, error) {
	missing := []string{}

	host := strings.TrimSpace(os.Getenv(envIMAPHost))
	if host == "" {
		missing = append(missing, envIMAPHost)
	}

	portRaw := strings.TrimSpace(os.Getenv(envIMAPPort))
	if portRaw == "" {
		missing = append(missing, envIMAPPort)
	}

	user := strings.TrimSpace(os.Getenv(envIMAPUser))
	if user == "" {
		missing = append(missing, envIMAPUser)
	}

	pass := strings.TrimSpace(os.Getenv(envIMAPPass))
	if pass == "" {
		missing = append(missing, envIMAPPass)
	}

	if len(missing) > 0 {
		return IMAPEnv{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return IMAPEnv{}, fmt.Errorf("invalid %s: %w", envIMAPPort, err)
	}

	return IMAPEnv{
		Host: host,
		Port: port,
		User: user,
		Pass: pass,
	}, nil
}

// OTLPDSN returns the telemetry export DSN, empty when unset.
func OTLPDSN() string {
	return strings.TrimSpace(os.Getenv(envOTLPDSN))
}

// Summary returns a concise config summary for validation runs.
func Summary(cfg Config) string {
	status := "disabled"
	if cfg.Status.Enabled {
		status = cfg.StatusAddr()
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- watched mailboxes: %d\n"+
			"- status server: %s\n"+
			"- telemetry: %t",
		len(cfg.Watch.Mailboxes),
		status,
		cfg.Telemetry.Enabled,
	)
}
