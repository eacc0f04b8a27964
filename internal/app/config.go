// Package app is the composition root of the gatekeeper bot.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/gatekeeper/core/config"
	coredatabase "github.com/m3rciful/gatekeeper/core/database"
	"github.com/m3rciful/gatekeeper/internal/membership"
)

// ErrChannelRequired is returned when no gate channel is configured.
var ErrChannelRequired = errors.New("config: CHANNEL_ID is required")

// ChannelConfig describes the channel users must join.
type ChannelConfig struct {
	// ID is an @username or a numeric chat id.
	ID  string `yaml:"id" envconfig:"CHANNEL_ID"`
	URL string `yaml:"url" envconfig:"CHANNEL_URL"`
	// WarningImageURL is attached to the subscription warning when set.
	WarningImageURL string `yaml:"warning_image_url" envconfig:"WARNING_IMAGE_URL"`
	CheckTimeoutMS  int    `yaml:"check_timeout_ms" envconfig:"CHECK_TIMEOUT_MS"`
}

// CheckTimeout bounds a single membership lookup.
func (c ChannelConfig) CheckTimeout() time.Duration {
	if c.CheckTimeoutMS <= 0 {
		return membership.DefaultTimeout
	}
	return time.Duration(c.CheckTimeoutMS) * time.Millisecond
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Channel  ChannelConfig       `yaml:"channel"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path (optional) and the environment, then validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Channel.ID = strings.TrimSpace(cfg.Channel.ID)
	cfg.Channel.URL = strings.TrimSpace(cfg.Channel.URL)
	cfg.Channel.WarningImageURL = strings.TrimSpace(cfg.Channel.WarningImageURL)
	if cfg.Channel.ID == "" {
		return ErrChannelRequired
	}
	if cfg.Channel.CheckTimeoutMS < 0 {
		return fmt.Errorf("config: CHECK_TIMEOUT_MS must not be negative, got %d", cfg.Channel.CheckTimeoutMS)
	}
	if cfg.Channel.CheckTimeoutMS == 0 {
		cfg.Channel.CheckTimeoutMS = int(membership.DefaultTimeout / time.Millisecond)
	}

	return cfg.Database.Normalize()
}
