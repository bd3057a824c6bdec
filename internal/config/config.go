// Package config loads the portal's runtime configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for the durable scope.
const (
	StorageBBolt  = "bbolt"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Storage StorageConfig
	Redis   RedisConfig
	Logger  LoggerConfig
}

// ServerConfig controls the portal's HTTP listener.
type ServerConfig struct {
	Addr         string
	SecureCookie bool
	// TrustedProxies lists the peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the peer address is the client.
	TrustedProxies []netip.Prefix
}

// BackendConfig locates the REST backend.
type BackendConfig struct {
	// BaseURL is the API root, for example http://localhost:8080/api.
	BaseURL string
	// AssetBaseURL is prepended to image paths the backend returns.
	// Defaults to the origin of BaseURL.
	AssetBaseURL string
	// TimeoutSeconds bounds each backend request. Zero means no limit.
	TimeoutSeconds int
}

// StorageConfig selects where client state is kept.
type StorageConfig struct {
	Backend           string
	DataDir           string
	Secret            string
	PendingTTLMinutes int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("PORTAL_REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORTAL_REDIS_DB: %w", err)
	}

	proxies, err := ParseTrustedProxies(os.Getenv("PORTAL_TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORTAL_TRUSTED_PROXIES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:           getEnv("PORTAL_ADDR", ":3000"),
			SecureCookie:   getEnvAsBool("PORTAL_SECURE_COOKIE", false),
			TrustedProxies: proxies,
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("PORTAL_API_BASE_URL", "http://localhost:8080/api"),
			AssetBaseURL:   os.Getenv("PORTAL_ASSET_BASE_URL"),
			TimeoutSeconds: getEnvAsInt("PORTAL_HTTP_TIMEOUT_SECONDS", 0),
		},
		Storage: StorageConfig{
			Backend:           getEnv("PORTAL_STORAGE", StorageBBolt),
			DataDir:           getEnv("PORTAL_DATA_DIR", "./data"),
			Secret:            os.Getenv("PORTAL_STORAGE_SECRET"),
			PendingTTLMinutes: getEnvAsInt("PORTAL_PENDING_TTL_MINUTES", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("PORTAL_REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("PORTAL_REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
	return cfg, nil
}

// Validate checks values that flags may have overridden after Load and
// fills in derived defaults.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBBolt, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s or %s)", c.Storage.Backend, StorageBBolt, StorageRedis, StorageMemory)
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL %q", c.Backend.BaseURL)
	}
	if c.Backend.AssetBaseURL == "" {
		c.Backend.AssetBaseURL = u.Scheme + "://" + u.Host
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid HTTP timeout %d", c.Backend.TimeoutSeconds)
	}
	if c.Storage.PendingTTLMinutes <= 0 {
		return fmt.Errorf("invalid pending redirect TTL %d", c.Storage.PendingTTLMinutes)
	}
	return nil
}

// ParseTrustedProxies parses a comma-separated list of CIDR ranges. A bare
// address is taken as a single-host range.
func ParseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			addr, err := netip.ParseAddr(part)
			if err != nil {
				return nil, err
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, err
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

// HTTPTimeout returns the per-request backend timeout.
func (b BackendConfig) HTTPTimeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// PendingTTL returns how long short-lived client state is kept.
func (s StorageConfig) PendingTTL() time.Duration {
	return time.Duration(s.PendingTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
