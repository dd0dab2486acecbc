package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RemoteDriverPostgres = "postgres"
	RemoteDriverMemory   = "memory"
)

type Config struct {
	Database DatabaseConfig
	Remote   RemoteConfig
	Cache    CacheConfig
	Sync     SyncConfig
	JWT      JWTConfig
	App      AppConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RemoteConfig selects the remote record store.
type RemoteConfig struct {
	// Driver is "postgres" or "memory".
	Driver string
	// RemoteFirst refuses offline registration.
	RemoteFirst bool
	// RangeQueryTimeout bounds date-range queries before the equality-only retry.
	RangeQueryTimeout time.Duration
}

// CacheConfig locates the local cache.
type CacheConfig struct {
	Path   string
	Prefix string
}

type SyncConfig struct {
	DrainDelay   time.Duration
	RestoreDelay time.Duration
	Interval     time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

// Load reads the environment, after loading envFiles (".env" when none are
// given). A missing env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("env file not found, using environment only", "file", file)
				continue
			}
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "shramsathi"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Remote store configuration
	remoteFirst, err := strconv.ParseBool(getEnv("REMOTE_FIRST", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMOTE_FIRST: %w", err)
	}
	rangeTimeout, err := getEnvDuration("REMOTE_RANGE_QUERY_TIMEOUT", "2s")
	if err != nil {
		return nil, err
	}
	config.Remote = RemoteConfig{
		Driver:            strings.ToLower(getEnv("REMOTE_DRIVER", RemoteDriverPostgres)),
		RemoteFirst:       remoteFirst,
		RangeQueryTimeout: rangeTimeout,
	}

	config.Cache = CacheConfig{
		Path:   getEnv("LOCAL_CACHE_PATH", "shramsathi-cache.db"),
		Prefix: getEnv("LOCAL_CACHE_PREFIX", "shramsathi_temp_"),
	}

	// Sync queue configuration
	if config.Sync.DrainDelay, err = getEnvDuration("SYNC_DRAIN_DELAY", "1s"); err != nil {
		return nil, err
	}
	if config.Sync.RestoreDelay, err = getEnvDuration("SYNC_RESTORE_DELAY", "2s"); err != nil {
		return nil, err
	}
	if config.Sync.Interval, err = getEnvDuration("SYNC_INTERVAL", "5m"); err != nil {
		return nil, err
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	accessExpiration, err := getEnvDuration("JWT_ACCESS_EXPIRATION_TIME", "24h")
	if err != nil {
		return nil, err
	}
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks what every binary needs. The API server also calls ValidateServer.
func (c *Config) Validate() error {
	switch c.Remote.Driver {
	case RemoteDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case RemoteDriverMemory:
	default:
		return fmt.Errorf("REMOTE_DRIVER must be %q or %q, got %q", RemoteDriverPostgres, RemoteDriverMemory, c.Remote.Driver)
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("LOCAL_CACHE_PATH is required")
	}
	if c.Cache.Prefix == "" {
		return fmt.Errorf("LOCAL_CACHE_PREFIX is required")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) ValidateServer() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, info when unknown.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
