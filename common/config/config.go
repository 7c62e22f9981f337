package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Webhook  WebhookConfig
	Email    EmailConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// WebhookConfig holds inbound commerce-webhook settings
type WebhookConfig struct {
	// Shared secret used to verify the X-Shopify-Hmac-Sha256 header.
	// Empty is only acceptable in the development environment.
	ShopifySecret string

	// Optional expected shop domain. When set, events carrying a different
	// X-Shopify-Shop-Domain header are rejected.
	ShopDomain string

	// TTL for the duplicate-delivery marker keys in Redis.
	DedupTTL time.Duration
}

// EmailConfig holds outbound transactional email settings
type EmailConfig struct {
	APIKey    string
	BaseURL   string
	From      string
	Operators []string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "drops"),
			User:        getEnv("POSTGRES_USER", "drops"),
			Password:    getEnv("POSTGRES_PASSWORD", "drops"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Webhook: WebhookConfig{
			ShopifySecret: getEnv("SHOPIFY_WEBHOOK_SECRET", ""),
			ShopDomain:    getEnv("SHOPIFY_SHOP_DOMAIN", ""),
			DedupTTL:      getEnvDuration("WEBHOOK_DEDUP_TTL", 48*time.Hour),
		},
		Email: EmailConfig{
			APIKey:    getEnv("RESEND_API_KEY", ""),
			BaseURL:   getEnv("RESEND_BASE_URL", "https://api.resend.com"),
			From:      getEnv("EMAIL_FROM", "orders@atelierclub.com"),
			Operators: getEnvSlice("EMAIL_OPERATORS", []string{"ops@atelierclub.com"}),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	// Fail closed: an unset webhook secret is only tolerated in development.
	if c.Webhook.ShopifySecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("SHOPIFY_WEBHOOK_SECRET is required outside development")
	}

	if c.Email.APIKey != "" && c.Email.From == "" {
		return fmt.Errorf("EMAIL_FROM is required when RESEND_API_KEY is set")
	}

	return nil
}

// IsDevelopment reports whether the service runs in the development environment
func (c *Config) IsDevelopment() bool {
	return c.Service.Environment == "development"
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
