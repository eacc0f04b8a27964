package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := &Config{}
	if err := Normalize(cfg); err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: " 123:abc ", RunMode: "polling"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token not trimmed: %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if got := cfg.Health.Addr(); got != "0.0.0.0:5000" {
		t.Fatalf("health addr = %q", got)
	}
}

func TestNormalizeHealthDisabledKeepsZeroPort(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t"},
		Health:   HealthConfig{Disabled: true},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Health.Port != 0 {
		t.Fatalf("disabled health should not get a default port, got %d", cfg.Health.Port)
	}
}

func TestNormalizeWebhookPortConflict(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
		Webhook:  WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443},
		Health:   HealthConfig{Port: 8443},
	}
	if err := Normalize(cfg); err == nil || !strings.Contains(err.Error(), "health.port") {
		t.Fatalf("expected port conflict error, got %v", err)
	}
}

func TestNormalizeRejectsUnknownRunMode(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected run mode error")
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "telegram:\n  token: from-yaml\n  admin_id: 7\nhealth:\n  port: 8080\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("env should override yaml token, got %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 7 {
		t.Fatalf("admin id = %d, want 7", cfg.Telegram.AdminID)
	}
	if cfg.Health.Port != 8080 {
		t.Fatalf("health port = %d, want 8080", cfg.Health.Port)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-only")
	t.Setenv("PORT", "9000")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-only" || cfg.Health.Port != 9000 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestNormalizeRunModes(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		mode    string
		wantErr string
	}{
		{name: "polling alias", cfg: Config{Telegram: TelegramConfig{RunMode: " Polling "}}, mode: RunModeLongpoll},
		{name: "webhook needs url", cfg: Config{Telegram: TelegramConfig{RunMode: "webhook"}}, wantErr: "webhook.url"},
		{name: "webhook needs port", cfg: Config{
			Telegram: TelegramConfig{RunMode: "webhook"},
			Webhook:  WebhookConfig{URL: "https://bot.example", Listen: "0.0.0.0"},
		}, wantErr: "webhook.port"},
		{name: "webhook ok", cfg: Config{
			Telegram: TelegramConfig{RunMode: "WEBHOOK"},
			Webhook:  WebhookConfig{URL: "https://bot.example", Listen: "0.0.0.0", Port: 8443},
		}, mode: RunModeWebhook},
		{name: "negative timeout", cfg: Config{Telegram: TelegramConfig{LongPollTimeoutSeconds: -1}}, wantErr: "longpoll_timeout_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Telegram.Token = "t"
			err := Normalize(&cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if cfg.Telegram.RunMode != tt.mode {
				t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, tt.mode)
			}
		})
	}
}
