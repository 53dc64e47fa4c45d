package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key"

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Worker    WorkerConfig    `json:"worker"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Mail      MailConfig      `json:"mail"`
	Log       LogConfig       `json:"log"`
	CORS      CORSConfig      `json:"cors"`
}

type ServerConfig struct {
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Environment  string        `json:"environment"`
	// ExposeErrors adds internal error causes to 500 responses.
	ExposeErrors bool `json:"expose_errors"`
}

// DatabaseConfig selects the store backend. Driver is one of postgres,
// sqlite or mongo.
type DatabaseConfig struct {
	Driver          string        `json:"driver"`
	Host            string        `json:"host"`
	Port            string        `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	Name            string        `json:"name"`
	SSLMode         string        `json:"ssl_mode"`
	SQLitePath      string        `json:"sqlite_path"`
	MongoURI        string        `json:"mongo_uri"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	CacheTTL     time.Duration `json:"cache_ttl"`
}

type WorkerConfig struct {
	Concurrency  int           `json:"concurrency"`
	PollInterval time.Duration `json:"poll_interval"`
	Queues       []string      `json:"queues"`
}

type AuthConfig struct {
	JWTSecret    string        `json:"-"`
	Issuer       string        `json:"issuer"`
	SessionTTL   time.Duration `json:"session_ttl"`
	ResetTTL     time.Duration `json:"reset_ttl"`
	BCryptCost   int           `json:"bcrypt_cost"`
	CookieName   string        `json:"cookie_name"`
	CookieDomain string        `json:"cookie_domain"`
}

// RateLimitConfig governs the login throttle. Backend is memory or redis.
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	Backend         string        `json:"backend"`
	LoginAttempts   int           `json:"login_attempts"`
	LoginWindow     time.Duration `json:"login_window"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

type MailConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Username     string        `json:"username"`
	Password     string        `json:"-"`
	From         string        `json:"from"`
	ResetURL     string        `json:"reset_url"`
	Async        bool          `json:"async"`
	BreakerTrips int           `json:"breaker_trips"`
	BreakerReset time.Duration `json:"breaker_reset"`
}

type LogConfig struct {
	Level    string `json:"level"`
	Encoding string `json:"encoding"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Host:         getEnv("HOST", "localhost"),
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ExposeErrors: getEnvAsBool("EXPOSE_ERROR_DETAILS", false),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "task_tracker"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "task_tracker.db"),
			MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getEnvAsDuration("REDIS_CACHE_TTL", 10*time.Minute),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 2),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", 5*time.Second),
			Queues:       getEnvAsSlice("WORKER_QUEUES", []string{"mail", "retry_queue"}),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer:       getEnv("JWT_ISSUER", "task-tracker"),
			SessionTTL:   getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			ResetTTL:     getEnvAsDuration("RESET_TOKEN_TTL", time.Hour),
			BCryptCost:   getEnvAsInt("BCRYPT_COST", 10),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "session_token"),
			CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Backend:         strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			LoginAttempts:   getEnvAsInt("RATE_LIMIT_LOGIN_ATTEMPTS", 5),
			LoginWindow:     getEnvAsDuration("RATE_LIMIT_LOGIN_WINDOW", 10*time.Minute),
			CleanupInterval: getEnvAsDuration("RATE_LIMIT_CLEANUP", 10*time.Minute),
		},
		Mail: MailConfig{
			Host:         getEnv("SMTP_HOST", "localhost"),
			Port:         getEnvAsInt("SMTP_PORT", 587),
			Username:     getEnv("SMTP_USERNAME", ""),
			Password:     getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("MAIL_FROM", "no-reply@task-tracker.local"),
			ResetURL:     getEnv("RESET_PASSWORD_URL", "http://localhost:3000/reset-password"),
			Async:        getEnvAsBool("MAIL_ASYNC", false),
			BreakerTrips: getEnvAsInt("MAIL_BREAKER_MAX_FAILURES", 5),
			BreakerReset: getEnvAsDuration("MAIL_BREAKER_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "mongo":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported rate limit backend %q", c.RateLimit.Backend)
	}

	if c.RateLimit.Backend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("redis rate limit backend requires REDIS_ENABLED")
	}

	if c.Mail.Async && !c.Redis.Enabled {
		return fmt.Errorf("asynchronous mail requires REDIS_ENABLED")
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	if c.Server.ExposeErrors && c.IsProduction() {
		return fmt.Errorf("error details cannot be exposed in production")
	}

	if c.Auth.JWTSecret == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret must be set in production")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
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
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
