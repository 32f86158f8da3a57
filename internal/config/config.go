package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Delivery providers.
const (
	ProviderNone    = ""
	ProviderSMTP    = "smtp"
	ProviderWebhook = "webhook"
)

// Config holds all legacy configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SweepConfig controls the inactivity sweep scheduler.
type SweepConfig struct {
	// Interval between sweep cycles.
	Interval time.Duration `yaml:"interval"`

	// CandidateTimeout bounds the time spent delivering and committing
	// one principal's episode.
	CandidateTimeout time.Duration `yaml:"candidate_timeout"`

	// Workers is the number of candidates processed concurrently.
	Workers int `yaml:"workers"`

	// RunOnStart runs one cycle immediately when the scheduler starts.
	RunOnStart bool `yaml:"run_on_start"`
}

type DeliveryConfig struct {
	Provider string        `yaml:"provider"` // "", "smtp", "webhook"
	SMTP     SMTPConfig    `yaml:"smtp"`
	Webhook  WebhookConfig `yaml:"webhook"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"` // 465 uses implicit TLS, anything else STARTTLS
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"` // defaults to Username
}

type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"` // sent as a bearer token when set
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Sweep: SweepConfig{
			Interval:         time.Hour,
			CandidateTimeout: 2 * time.Minute,
			Workers:          4,
			RunOnStart:       true,
		},
		Delivery: DeliveryConfig{
			Provider: ProviderNone,
			SMTP: SMTPConfig{
				Host: "smtp.gmail.com",
				Port: 465,
			},
			Webhook: WebhookConfig{
				Timeout: 30 * time.Second,
			},
		},
		Auth: AuthConfig{
			Issuer: "legacy",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the config.
// GMAIL_USER and GMAIL_APP_PASSWORD select the smtp provider when no
// provider was configured explicitly.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LEGACY_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("LEGACY_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("LEGACY_DELIVERY"); v != "" {
		c.Delivery.Provider = v
	}
	if v := os.Getenv("LEGACY_WEBHOOK_URL"); v != "" {
		c.Delivery.Webhook.URL = v
	}

	user, pass := os.Getenv("GMAIL_USER"), os.Getenv("GMAIL_APP_PASSWORD")
	if user != "" && pass != "" {
		c.Delivery.SMTP.Username = user
		c.Delivery.SMTP.Password = pass
		if c.Delivery.Provider == ProviderNone {
			c.Delivery.Provider = ProviderSMTP
		}
	}
}

// Validate reports configuration that would make the scheduler or the
// server misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Sweep.Interval <= 0 {
		errs = append(errs, fmt.Errorf("sweep.interval must be positive, got %s", c.Sweep.Interval))
	}
	if c.Sweep.CandidateTimeout <= 0 {
		errs = append(errs, fmt.Errorf("sweep.candidate_timeout must be positive, got %s", c.Sweep.CandidateTimeout))
	}
	if c.Sweep.Workers <= 0 {
		errs = append(errs, fmt.Errorf("sweep.workers must be positive, got %d", c.Sweep.Workers))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Delivery.Provider {
	case ProviderNone, ProviderSMTP, ProviderWebhook:
	default:
		errs = append(errs, fmt.Errorf("unknown delivery provider: %q", c.Delivery.Provider))
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level: %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
