// Package database connects to the optional Postgres store and applies migrations.
package database

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// Config holds database connection settings. The store is optional: with
// Enabled unset the bot keeps its counter in memory.
type Config struct {
	Enabled        bool   `yaml:"enabled" envconfig:"DB_ENABLED"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir is resolved against the working directory when relative.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
	// ReadyTimeoutSeconds bounds how long Connect waits for Postgres to accept connections.
	ReadyTimeoutSeconds int `yaml:"ready_timeout_seconds" envconfig:"DB_READY_TIMEOUT_SECONDS"`
}

const (
	defaultPort           = "5432"
	defaultSSLMode        = "disable"
	defaultMaxConnections = 5
	defaultMigrationsDir  = "migrations"
	defaultReadyTimeout   = 30
)

// Normalize fills defaults and validates an enabled configuration.
func (c *Config) Normalize() error {
	if !c.Enabled {
		return nil
	}
	if c.Host == "" || c.User == "" || c.Name == "" {
		return fmt.Errorf("database: host, user and name are required when DB_ENABLED is set")
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = defaultSSLMode
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = defaultMaxConnections
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = defaultMigrationsDir
	}
	if c.ReadyTimeoutSeconds <= 0 {
		c.ReadyTimeoutSeconds = defaultReadyTimeout
	}
	return nil
}

// ReadyTimeout returns the readiness bound as a duration.
func (c Config) ReadyTimeout() time.Duration {
	if c.ReadyTimeoutSeconds <= 0 {
		return defaultReadyTimeout * time.Second
	}
	return time.Duration(c.ReadyTimeoutSeconds) * time.Second
}

// DSN returns the key/value connection string used by lib/pq.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		quoteDSN(c.User), quoteDSN(c.Password), c.Host, c.Port, quoteDSN(c.Name), c.SSLMode,
	)
}

// URL returns the postgres:// form expected by golang-migrate.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func quoteDSN(v string) string {
	if v == "" {
		return "''"
	}
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			return "'" + escapeDSN(v) + "'"
		}
	}
	return v
}

func escapeDSN(v string) string {
	out := make([]rune, 0, len(v))
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
