package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	CORS      CORSConfig
	Perimeter PerimeterConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	S3        S3Config
}

// AppConfig holds deployment-mode configuration.
type AppConfig struct {
	Env       string
	StaticDir string
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
	File   string // optional rotated log file
}

// CORSConfig holds cross-origin configuration.
type CORSConfig struct {
	AllowedOrigins []string
}

// PerimeterConfig holds admission check configuration.
type PerimeterConfig struct {
	Enabled       bool
	Mode          string // "live" or "dry_run"
	SignatureFile []string
	VerifiedBots  string
}

// RateLimitConfig holds token bucket configuration.
type RateLimitConfig struct {
	Backend     string // "local" or "redis"
	Capacity    int
	Refill      int
	Interval    time.Duration
	FailureMode string // "fail_open" or "fail_closed"
}

// RedisConfig holds Redis connection configuration for the shared limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// S3Config holds AWS S3 configuration for remote bot signature lists.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "perimeter/")
}

// DefaultVerifiedBots lists crawler tokens and the networks they are trusted from.
const DefaultVerifiedBots = "googlebot=66.249.64.0/19;bingbot=157.55.39.0/24,207.46.13.0/24,40.77.167.0/24"

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:       getEnv("APP_ENV", getEnv("NODE_ENV", "development")),
			StaticDir: getEnv("STATIC_DIR", "frontend/dist"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("PORT", 3000),
		},
		Database: DatabaseConfig{
			Host:            getEnv("PGHOST", "localhost"),
			Port:            getEnvAsInt("PGPORT", 5432),
			User:            getEnv("PGUSER", "postgres"),
			Password:        getEnv("PGPASSWORD", ""),
			Database:        getEnv("PGDATABASE", "products"),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 1),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Perimeter: PerimeterConfig{
			Enabled:       getEnvAsBool("PERIMETER_ENABLED", true),
			Mode:          getEnv("PERIMETER_MODE", "live"),
			SignatureFile: getEnvAsList("BOT_SIGNATURE_FILES", nil),
			VerifiedBots:  getEnv("BOT_VERIFIED", DefaultVerifiedBots),
		},
		RateLimit: RateLimitConfig{
			Backend:     getEnv("RATE_LIMIT_BACKEND", "local"),
			Capacity:    getEnvAsInt("RATE_LIMIT_CAPACITY", 10),
			Refill:      getEnvAsInt("RATE_LIMIT_REFILL", 5),
			Interval:    getEnvAsDuration("RATE_LIMIT_INTERVAL", 10*time.Second),
			FailureMode: getEnv("RATE_LIMIT_FAILURE_MODE", "fail_open"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "perimeter/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 0 {
		return fmt.Errorf("database min connections cannot be negative")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Perimeter.Mode != "live" && c.Perimeter.Mode != "dry_run" {
		return fmt.Errorf("invalid perimeter mode: %s (must be live or dry_run)", c.Perimeter.Mode)
	}

	if c.RateLimit.Backend != "local" && c.RateLimit.Backend != "redis" {
		return fmt.Errorf("invalid rate limit backend: %s (must be local or redis)", c.RateLimit.Backend)
	}

	if c.RateLimit.FailureMode != "fail_open" && c.RateLimit.FailureMode != "fail_closed" {
		return fmt.Errorf("invalid rate limit failure mode: %s (must be fail_open or fail_closed)", c.RateLimit.FailureMode)
	}

	if c.RateLimit.Capacity < 1 || c.RateLimit.Refill < 1 || c.RateLimit.Interval <= 0 {
		return fmt.Errorf("rate limit capacity, refill and interval must be positive")
	}

	if c.RateLimit.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when the redis rate limit backend is selected")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// IsProduction reports whether the static frontend should be served.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// ConnectionString returns the PostgreSQL connection string. User and
// password are escaped, so any characters are allowed in them.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated environment variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
