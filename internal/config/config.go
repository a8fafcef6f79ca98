package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
)

type Config struct {
	AppPort  string
	BindAddr string
	AppEnv   string
	LogLevel string
	LogDir   string

	StoreDriver string
	StorePath   string

	MySQL MySQLConfig
	Redis RedisConfig
	Mongo MongoConfig

	IdentityAPIKey   string
	IdentityEndpoint string

	AuthRateLimit float64
	AuthRateBurst int

	// AllowedOrigins lists the browser origins CORS answers for. "*" is rejected since the
	// profile session is not bound to a token.
	AllowedOrigins []string
}

type MySQLConfig struct {
	User    string
	Pass    string
	Host    string
	Port    string
	Name    string
	FullDSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Enabled reports whether a remote document store was configured.
func (m MongoConfig) Enabled() bool {
	return m.URI != ""
}

// Load reads .env files (if present) and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if err := gotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env variables: %w", err)
	}

	appPort := GetEnvAsString("APP_PORT", "8080")

	cfg := Config{
		AppPort:  appPort,
		BindAddr: GetEnvAsString("BIND_ADDR", "127.0.0.1"),
		AppEnv:   GetEnvAsString("APP_ENV", "development"),
		LogLevel: GetEnvAsString("LOG_LEVEL", "info"),
		LogDir:   GetEnvAsString("LOG_DIR", "./logging/logs"),

		StoreDriver: strings.ToLower(GetEnvAsString("STORE_DRIVER", DriverFile)),
		StorePath:   GetEnvAsString("STORE_PATH", "./data/profile.json"),

		MySQL: MySQLConfig{
			User:    os.Getenv("DB_USER"),
			Pass:    os.Getenv("DB_PASS"),
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			Name:    GetEnvAsString("DB_NAME", "expense_manager"),
			FullDSN: os.Getenv("FULL_DSN"),
		},
		Redis: RedisConfig{
			Addr:     GetEnvAsString("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       GetEnvAsInt("REDIS_DB", 0),
			Prefix:   GetEnvAsString("REDIS_PREFIX", "expense_manager:"),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: GetEnvAsString("MONGO_DATABASE", "expense_manager"),
			Timeout:  GetEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		},

		IdentityAPIKey:   os.Getenv("IDENTITY_API_KEY"),
		IdentityEndpoint: GetEnvAsString("IDENTITY_ENDPOINT", "https://identitytoolkit.googleapis.com/v1"),

		AuthRateLimit: GetEnvAsFloat("AUTH_RATE_LIMIT", 1),
		AuthRateBurst: GetEnvAsInt("AUTH_RATE_BURST", 5),

		AllowedOrigins: GetEnvAsList("ALLOWED_ORIGINS", []string{
			"http://localhost:" + appPort,
			"http://127.0.0.1:" + appPort,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverFile, DriverSQLite, DriverMySQL, DriverRedis:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if (c.StoreDriver == DriverFile || c.StoreDriver == DriverSQLite) && c.StorePath == "" {
		return fmt.Errorf("STORE_PATH is required for the %s driver", c.StoreDriver)
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	for _, origin := range c.AllowedOrigins {
		if strings.Contains(origin, "*") {
			return fmt.Errorf("ALLOWED_ORIGINS must list exact origins, got %q", origin)
		}
	}
	return nil
}

// GetEnvAsInt gets environment variable as int with default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration gets environment variable as duration with default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvAsList splits a comma separated variable, dropping blank items.
func GetEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// GetEnvAsString gets environment variable as string with default value
func GetEnvAsString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
