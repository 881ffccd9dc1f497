package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port        string
	DBConn      string
	StoreDriver string
	LogLevel    string
	JWTSecret   string
	CBRURL      string

	// SMTP settings; email notifications are disabled when SMTPHost is empty
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// Redis is optional; when set it backs the score cache and settlement events
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventsStream  string

	ScoreCacheTTL  time.Duration
	ScoreCacheSize int

	SettlementSchedule   string
	OverdueSweepSchedule string
	SettlementPageSize   int
	PaymentTimeout       time.Duration
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBConn:      getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=bank sslmode=disable"),
		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		CBRURL:      getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@bank.local"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		EventsStream:  getEnv("EVENTS_STREAM", "settlement.events"),

		SettlementSchedule:   getEnv("SETTLEMENT_SCHEDULE", "@every 15m"),
		OverdueSweepSchedule: getEnv("OVERDUE_SWEEP_SCHEDULE", "0 1 * * *"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ScoreCacheSize, err = getEnvInt("SCORE_CACHE_SIZE", 10000); err != nil {
		return nil, err
	}
	if cfg.SettlementPageSize, err = getEnvInt("SETTLEMENT_PAGE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.ScoreCacheTTL, err = getEnvDuration("SCORE_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PaymentTimeout, err = getEnvDuration("PAYMENT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBConn == "" {
			return fmt.Errorf("DB_CONN is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.SettlementPageSize <= 0 {
		return fmt.Errorf("SETTLEMENT_PAGE_SIZE must be positive")
	}
	if c.ScoreCacheSize <= 0 {
		return fmt.Errorf("SCORE_CACHE_SIZE must be positive")
	}
	if c.PaymentTimeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be positive")
	}
	return nil
}

// EmailEnabled reports whether SMTP notifications are configured
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
