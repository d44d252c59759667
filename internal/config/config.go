package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Application ApplicationConfig `yaml:"application"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	EmailClient EmailClientConfig `yaml:"email_client"`
	Redelivery  RedeliveryConfig  `yaml:"redelivery"`
	Logging     LoggingConfig     `yaml:"logging"`
	CORS        CORSConfig        `yaml:"cors"`
}

// ApplicationConfig holds HTTP server configuration
type ApplicationConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	// BaseURL is the externally reachable address embedded in confirmation links.
	BaseURL string `yaml:"base_url"`
}

// Addr returns host:port for the listener.
func (c ApplicationConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL                   string `yaml:"url"`
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	Username              string `yaml:"username"`
	Password              string `yaml:"password"`
	DatabaseName          string `yaml:"database_name"`
	RequireSSL            bool   `yaml:"require_ssl"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	MaxOpenConns          int    `yaml:"max_open_conns"`
	MaxIdleConns          int    `yaml:"max_idle_conns"`
}

// ConnectTimeout returns the connection timeout as a duration
func (c DatabaseConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// DSN returns a lib/pq connection string. An explicit URL wins over the
// individual fields; connect_timeout is added when missing.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		if strings.Contains(c.URL, "connect_timeout") {
			return c.URL
		}
		sep := "?"
		if strings.Contains(c.URL, "?") {
			sep = "&"
		}
		return c.URL + sep + "connect_timeout=" + strconv.Itoa(c.ConnectTimeoutSeconds)
	}

	sslMode := "disable"
	if c.RequireSSL {
		sslMode = "require"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.DatabaseName,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("connect_timeout", strconv.Itoa(c.ConnectTimeoutSeconds))
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig holds Redis settings. Redis is optional: with no URL the
// redelivery queue and worker are disabled.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// EmailClientConfig holds the transactional email API configuration
type EmailClientConfig struct {
	BaseURL            string `yaml:"base_url"`
	SenderEmail        string `yaml:"sender_email"`
	AuthorizationToken string `yaml:"authorization_token"`
	TimeoutMillis      int    `yaml:"timeout_milliseconds"`
}

// Timeout returns the configured per-request timeout as a duration
func (c EmailClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// RedeliveryConfig controls the worker that retries failed confirmation emails.
type RedeliveryConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	BatchSize       int  `yaml:"batch_size"`
	MaxAttempts     int  `yaml:"max_attempts"`
	HTTPRetries     int  `yaml:"http_retries"`
}

// Interval returns the sweep interval as a duration
func (c RedeliveryConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// RedeliveryMaxBackoff caps the wait between the worker's HTTP retries.
const RedeliveryMaxBackoff = 5 * time.Second

// EmailClient returns the email client settings for the redelivery worker.
// The client deadline bounds the whole send, so it is widened to fit every
// attempt plus the longest backoff between them. Each attempt is still
// bounded by base.Timeout() at the transport.
func (c RedeliveryConfig) EmailClient(base EmailClientConfig) EmailClientConfig {
	retries := max(c.HTTPRetries, 0)
	budget := base.Timeout()*time.Duration(retries+1) + RedeliveryMaxBackoff*time.Duration(retries)
	out := base
	out.TimeoutMillis = int(budget / time.Millisecond)
	return out
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Name      string `yaml:"name"`
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// CORSConfig lists origins allowed to post the subscription form from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultEmailTimeout is the total per-request bound for email delivery.
const DefaultEmailTimeout = 10 * time.Second

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Application.Port == 0 {
		cfg.Application.Port = 8000
	}
	if cfg.Application.Host == "" {
		cfg.Application.Host = "127.0.0.1"
	}
	if cfg.Application.BaseURL == "" {
		cfg.Application.BaseURL = "http://" + cfg.Application.Host
	}
	cfg.Application.BaseURL = strings.TrimRight(cfg.Application.BaseURL, "/")

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.DatabaseName == "" {
		cfg.Database.DatabaseName = "newsletter"
	}
	if cfg.Database.ConnectTimeoutSeconds == 0 {
		cfg.Database.ConnectTimeoutSeconds = 2
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}

	if cfg.EmailClient.TimeoutMillis == 0 {
		cfg.EmailClient.TimeoutMillis = int(DefaultEmailTimeout / time.Millisecond)
	}
	cfg.EmailClient.BaseURL = strings.TrimRight(cfg.EmailClient.BaseURL, "/")

	if cfg.Redelivery.IntervalSeconds == 0 {
		cfg.Redelivery.IntervalSeconds = 60
	}
	if cfg.Redelivery.BatchSize == 0 {
		cfg.Redelivery.BatchSize = 50
	}
	if cfg.Redelivery.MaxAttempts == 0 {
		cfg.Redelivery.MaxAttempts = 5
	}
	if cfg.Redelivery.HTTPRetries <= 0 {
		cfg.Redelivery.HTTPRetries = 2
	}

	if cfg.Logging.Name == "" {
		cfg.Logging.Name = "newsletter"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.RedactPII == nil {
		redact := true
		cfg.Logging.RedactPII = &redact
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("APP_HOST"); v != "" {
		cfg.Application.Host = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("APP_PORT: %w", err)
		}
		cfg.Application.Port = port
	}
	if v := os.Getenv("APP_BASE_URL"); v != "" {
		cfg.Application.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("EMAIL_BASE_URL"); v != "" {
		cfg.EmailClient.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("EMAIL_SENDER"); v != "" {
		cfg.EmailClient.SenderEmail = v
	}
	if v := os.Getenv("EMAIL_AUTHORIZATION_TOKEN"); v != "" {
		cfg.EmailClient.AuthorizationToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
