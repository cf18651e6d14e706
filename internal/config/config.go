// Package config centralizes environment configuration for the server binary.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yourusername/quotaguard/pkg/quotaguard"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	RateLimiter RateLimiterConfig
}

type ServerConfig struct {
	Port string
}

type StorageConfig struct {
	// Type selects the counter store backend: "redis" or "memory"
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimiterConfig struct {
	// ConfigFile optionally points at a YAML rules file
	ConfigFile string
	// Fallback overrides the YAML fallback setting when set
	Fallback quotaguard.FallbackMode
}

func Load() (Config, error) {
	_ = godotenv.Load()

	storageType := getEnv("STORE_TYPE", "memory")
	switch storageType {
	case "memory", "redis":
	default:
		return Config{}, fmt.Errorf("unsupported STORE_TYPE: %s", storageType)
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	var fallback quotaguard.FallbackMode
	if raw := strings.TrimSpace(os.Getenv("FALLBACK_MODE")); raw != "" {
		fallback = quotaguard.FallbackMode(raw)
		if err := fallback.Validate(); err != nil {
			return Config{}, fmt.Errorf("invalid FALLBACK_MODE %q: %w", raw, err)
		}
	}

	return Config{
		Server: ServerConfig{Port: getEnv("SERVER_PORT", "8080")},
		Storage: StorageConfig{
			Type: storageType,
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       db,
			},
		},
		RateLimiter: RateLimiterConfig{
			ConfigFile: strings.TrimSpace(os.Getenv("RATE_LIMIT_CONFIG")),
			Fallback:   fallback,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
