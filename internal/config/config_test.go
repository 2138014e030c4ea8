package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDispatchDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: outbound-dispatch
  env: test
dispatch:
  webhook_url: https://hooks.example.com/send
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Dispatch.BatchSize != DefaultBatchSize {
		t.Errorf("batch size = %d, want %d", cfg.Dispatch.BatchSize, DefaultBatchSize)
	}
	if cfg.Dispatch.PacingInterval != time.Second {
		t.Errorf("pacing interval = %v, want 1s", cfg.Dispatch.PacingInterval)
	}
	if cfg.Dispatch.DeliveryTimeout != 10*time.Second {
		t.Errorf("delivery timeout = %v, want 10s", cfg.Dispatch.DeliveryTimeout)
	}
	if cfg.Dispatch.WebhookURL != "https://hooks.example.com/send" {
		t.Errorf("webhook url = %q", cfg.Dispatch.WebhookURL)
	}
}

func TestWebhookEnvFallbackFirstPresentWins(t *testing.T) {
	path := writeConfig(t, `
app:
  name: outbound-dispatch
`)

	t.Setenv("DISPATCH_WEBHOOK_URL", "https://primary.example.com")
	t.Setenv("WEBHOOK_URL", "https://secondary.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dispatch.WebhookURL != "https://primary.example.com" {
		t.Errorf("webhook url = %q, want primary", cfg.Dispatch.WebhookURL)
	}
}

func TestWebhookEnvFallbackSecondName(t *testing.T) {
	path := writeConfig(t, `
app:
  name: outbound-dispatch
`)

	t.Setenv("DISPATCH_WEBHOOK_URL", "")
	t.Setenv("WEBHOOK_URL", "https://secondary.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dispatch.WebhookURL != "https://secondary.example.com" {
		t.Errorf("webhook url = %q, want secondary", cfg.Dispatch.WebhookURL)
	}
}

func TestWebhookAbsentLeavesDispatchDisabled(t *testing.T) {
	path := writeConfig(t, `
app:
  name: outbound-dispatch
`)

	t.Setenv("DISPATCH_WEBHOOK_URL", "")
	t.Setenv("WEBHOOK_URL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dispatch.WebhookURL != "" {
		t.Errorf("webhook url = %q, want empty", cfg.Dispatch.WebhookURL)
	}
}
