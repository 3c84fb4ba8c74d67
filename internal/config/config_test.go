package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIMAPEnvMissing(t *testing.T) {
	t.Setenv(envIMAPHost, "")
	t.Setenv(envIMAPPort, "")
	t.Setenv(envIMAPUser, "")
	t.Setenv(envIMAPPass, "")

	if _, err := IMAPEnvFromEnv(); err == nil {
		t.Fatalf("expected error for missing environment variables")
	} else if !strings.Contains(err.Error(), "missing required environment variables") {
		t.Fatalf("expected missing env var error, got: %v", err)
	}
}

func TestIMAPEnvInvalidPort(t *testing.T) {
	t.Setenv(envIMAPHost, "imap.example.org")
	t.Setenv(envIMAPPort, "not-a-port")
	t.Setenv(envIMAPUser, "user")
	t.Setenv(envIMAPPass, "pass")

	if _, err := IMAPEnvFromEnv(); err == nil {
		t.Fatalf("expected error for invalid port")
	}
}

func TestIMAPEnvComplete(t *testing.T) {
	t.Setenv(envIMAPHost, "imap.example.org")
	t.Setenv(envIMAPPort, "993")
	t.Setenv(envIMAPUser, "user")
	t.Setenv(envIMAPPass, "pass")

	env, err := IMAPEnvFromEnv()
	if err != nil {
		t.Fatalf("expected env to load, got error: %v", err)
	}
	if env.Host != "imap.example.org" || env.Port != 993 {
		t.Fatalf("unexpected env: %+v", env)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTempFile(t, "not: [valid_yaml")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid YAML")
	}
}

func TestDefaultsApply(t *testing.T) {
	path := writeTempFile(t, `
watch:
  mailboxes:
    - INBOX
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected config to validate, got error: %v", err)
	}

	interval, _ := cfg.WatchInterval()
	if interval != 60*time.Second {
		t.Fatalf("expected default watch interval, got %v", interval)
	}
	reconnect, _ := cfg.ReconnectInterval()
	if reconnect != 60*time.Second {
		t.Fatalf("expected default reconnect interval, got %v", reconnect)
	}
	settle, _ := cfg.SettleDelay()
	if settle != time.Second {
		t.Fatalf("expected default settle delay, got %v", settle)
	}
	if cfg.StatusAddr() != ":8035" {
		t.Fatalf("expected default status addr, got %s", cfg.StatusAddr())
	}
}

func TestValidateRejectsBadInterval(t *testing.T) {
	path := writeTempFile(t, `
watch:
  mailboxes:
    - INBOX
  interval: "soon"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected validation error for bad interval")
	}
}

func TestValidateRejectsBlankMailbox(t *testing.T) {
	path := writeTempFile(t, `
watch:
  mailboxes:
    - INBOX
    - "  "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected validation error for blank mailbox")
	}
}

func TestValidateCompleteConfig(t *testing.T) {
	path := writeTempFile(t, `
watch:
  mailboxes:
    - INBOX
    - Lists/golang
  interval: "30s"
  reconnect_interval: "2m"
  settle_delay: "500ms"
logging: true
status:
  enabled: true
  addr: ":9090"
telemetry:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected config to validate, got error: %v", err)
	}

	interval, _ := cfg.WatchInterval()
	if interval != 30*time.Second {
		t.Fatalf("expected 30s interval, got %v", interval)
	}
	if cfg.StatusAddr() != ":9090" {
		t.Fatalf("expected configured status addr, got %s", cfg.StatusAddr())
	}
	if !cfg.Logging {
		t.Fatalf("expected logging enabled")
	}
}

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
