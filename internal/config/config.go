package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Slack     SlackConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// JWTConfig holds bearer-token settings. An empty secret disables authentication.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// DatabaseConfig holds PostgreSQL connection settings for the invocation
// audit log. An empty Host disables the audit log.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis settings for event publishing. An empty Addr
// disables publishing and the live stream.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// SlackConfig holds the incoming-webhook alert settings.
type SlackConfig struct {
	WebhookURL    string
	AlertInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	readTimeout, err := getEnvDuration("DOCEXPORT_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("DOCEXPORT_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("DOCEXPORT_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("DOCEXPORT_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbPort, err := getEnvInt("DOCEXPORT_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("DOCEXPORT_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("DOCEXPORT_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	alertInterval, err := getEnvDuration("DOCEXPORT_SLACK_ALERT_INTERVAL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:         getEnv("DOCEXPORT_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("DOCEXPORT_CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             burst,
		},
		JWT: JWTConfig{
			Secret: getEnv("DOCEXPORT_JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DOCEXPORT_DB_HOST", ""),
			Port:     dbPort,
			User:     getEnv("DOCEXPORT_DB_USER", "docexport"),
			Password: getEnv("DOCEXPORT_DB_PASSWORD", ""),
			DBName:   getEnv("DOCEXPORT_DB_NAME", "docexport"),
			SSLMode:  getEnv("DOCEXPORT_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("DOCEXPORT_REDIS_ADDR", ""),
			Password: getEnv("DOCEXPORT_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Slack: SlackConfig{
			WebhookURL:    getEnv("DOCEXPORT_SLACK_WEBHOOK_URL", ""),
			AlertInterval: alertInterval,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks value bounds and optional-integration consistency.
func (c *Config) validate() error {
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("DOCEXPORT_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("DOCEXPORT_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("DOCEXPORT_RATE_LIMIT_RPS must be positive, got %g", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("DOCEXPORT_RATE_LIMIT_BURST must be >= 1, got %d", c.RateLimit.Burst)
	}

	if c.JWT.Secret == "" {
		log.Warn().Msg("DOCEXPORT_JWT_SECRET is not set; API routes are unauthenticated")
	} else if len(c.JWT.Secret) < 32 {
		return errors.New("DOCEXPORT_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.Enabled() {
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("DOCEXPORT_DB_PORT must be 1-65535, got %d", c.Database.Port)
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("DOCEXPORT_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
		}
		if c.Database.SSLMode == "disable" {
			log.Warn().Msg("DOCEXPORT_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
		}
	}

	if c.Redis.Enabled() && c.Redis.DB < 0 {
		return fmt.Errorf("DOCEXPORT_REDIS_DB must be >= 0, got %d", c.Redis.DB)
	}

	if c.Slack.Enabled() {
		u, err := url.Parse(c.Slack.WebhookURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return errors.New("DOCEXPORT_SLACK_WEBHOOK_URL must be an https URL")
		}
		if c.Slack.AlertInterval <= 0 {
			return fmt.Errorf("DOCEXPORT_SLACK_ALERT_INTERVAL must be positive, got %s", c.Slack.AlertInterval)
		}
	}

	return nil
}

// AuthEnabled reports whether API routes require a bearer token.
func (c *Config) AuthEnabled() bool { return c.JWT.Secret != "" }

func (c *DatabaseConfig) Enabled() bool { return c.Host != "" }

func (c *RedisConfig) Enabled() bool { return c.Addr != "" }

func (c *SlackConfig) Enabled() bool { return c.WebhookURL != "" }

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
