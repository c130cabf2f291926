package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	devJWTSecret = "dev_secret"
)

type Config struct {
	Port            string
	Environment     string
	LogLevel        string
	StorageDriver   string
	MongoDBURI      string
	MongoDBPassword string
	MongoDBDatabase string
	JWTSecret       string
	JWTTTL          time.Duration
	FrontendOrigin  string
	RedisURL        string
	ProfileCacheTTL time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnvWithDefault("PORT", "8080"),
		Environment:     getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:        getEnvWithDefault("LOG_LEVEL", "info"),
		StorageDriver:   strings.ToLower(getEnvWithDefault("STORAGE_DRIVER", StorageMongo)),
		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBPassword: os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase: getEnvWithDefault("MONGODB_DATABASE", "eventdb"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		FrontendOrigin:  getEnvWithDefault("FRONTEND_ORIGIN", "http://localhost:3000"),
		RedisURL:        os.Getenv("REDIS_URL"),
	}

	var err error
	if cfg.JWTTTL, err = getDurationWithDefault("JWT_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ProfileCacheTTL, err = getDurationWithDefault("PROFILE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case StorageMongo:
		if cfg.MongoDBURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMongo, StorageMemory, cfg.StorageDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, value)
	}
	return d, nil
}

// MongoURI returns MONGODB_URI with its <password> placeholder filled in.
func (c *Config) MongoURI() string {
	return strings.Replace(c.MongoDBURI, "<password>", c.MongoDBPassword, 1)
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
