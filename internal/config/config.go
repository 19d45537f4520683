// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// GoogleConfig holds the OAuth client credentials.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
}

// IsConfigured returns true if both client credentials are present.
func (c GoogleConfig) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// EmailConfig controls the diagnostics notification mail.
type EmailConfig struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	From           string `env:"EMAIL_FROM"    envDefault:"notifications@example.com"`
	Workers        int    `env:"EMAIL_WORKERS" envDefault:"2"`
}

// IsConfigured returns true if mail can actually be sent.
func (c EmailConfig) IsConfigured() bool {
	return c.SendGridAPIKey != ""
}

type Config struct {
	Host    string `env:"HOST"    envDefault:"127.0.0.1"`
	Port    int    `env:"PORT"    envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	BaseURL string `env:"APP_BASE_URL"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/wapidou.db"`
	StaticDir    string `env:"STATIC_DIR"    envDefault:"web/public"`

	// OAuthStateSecret signs the OAuth state cookie. Empty means a random
	// per-process key.
	OAuthStateSecret string `env:"OAUTH_STATE_SECRET"`
	// TokenEncryptionKey is 64 hex characters. Empty stores tokens as is.
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	Google GoogleConfig
	Email  EmailConfig
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.CORSAllowedOrigins = trimCSV(cfg.CORSAllowedOrigins)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://" + cfg.displayAddr()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.AppEnv != EnvDevelopment && c.AppEnv != EnvProduction {
		return fmt.Errorf("config: APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.AppEnv)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	}
	if c.DatabasePath == "" {
		return errors.New("config: DATABASE_PATH must not be empty")
	}
	if c.Email.Workers < 1 {
		return fmt.Errorf("config: EMAIL_WORKERS must be positive, got %d", c.Email.Workers)
	}
	if k := c.TokenEncryptionKey; k != "" && len(k) != 64 {
		return errors.New("config: TOKEN_ENCRYPTION_KEY must be 64 hex characters")
	}
	return nil
}

// Production reports whether cookies must be marked Secure.
func (c *Config) Production() bool {
	return c.AppEnv == EnvProduction
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GoogleCallbackURL is the redirect URI registered with Google.
func (c *Config) GoogleCallbackURL() string {
	return c.BaseURL + "/auth/google/callback"
}

// displayAddr swaps a wildcard host for localhost so the derived base URL is
// something a browser can open.
func (c *Config) displayAddr() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// trimCSV removes empty entries from a split list.
func trimCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
