package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"genesis-api/pkg/identity"
)

const (
	AuthModeKeycloak = "keycloak"
	AuthModeEmbedded = "embedded"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	APIVersion              string
	LogLevel                string
	LogFormat               string
	DatabaseURL             string
	DBMaxConns              int32
	DBMinConns              int32
	RedisURL                string
	AuthMode                string
	KeycloakURL             string
	KeycloakPublicURL       string
	KeycloakRealm           string
	KeycloakClientID        string
	JWKSCacheTTL            time.Duration
	JWTSecret               string
	JWTIssuer               string
	JWTAccessTTL            time.Duration
	AdminEmail              string
	AdminPassword           string
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	PaginationDefaultLimit  int
	PaginationMaxLimit      int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8000"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		APIVersion:              getEnv("API_VERSION", "1.0.0"),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		RedisURL:                strings.TrimSpace(os.Getenv("REDIS_URL")),
		AuthMode:                strings.ToLower(getEnv("AUTH_MODE", AuthModeKeycloak)),
		KeycloakURL:             strings.TrimRight(getEnv("KEYCLOAK_URL", "http://localhost:8080"), "/"),
		KeycloakRealm:           getEnv("KEYCLOAK_REALM", "genesis"),
		KeycloakClientID:        getEnv("KEYCLOAK_CLIENT_ID", "genesis-app"),
		JWKSCacheTTL:            getDuration("JWKS_CACHE_TTL", time.Hour),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:               getEnv("JWT_ISSUER", "genesis-api"),
		JWTAccessTTL:            getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		AdminEmail:              strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:           strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		PaginationDefaultLimit:  getInt("PAGINATION_DEFAULT_LIMIT", 20),
		PaginationMaxLimit:      getInt("PAGINATION_MAX_LIMIT", 100),
	}
	cfg.KeycloakPublicURL = strings.TrimRight(getEnv("KEYCLOAK_PUBLIC_URL", cfg.KeycloakURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.AuthMode {
	case AuthModeKeycloak:
		if c.KeycloakURL == "" || c.KeycloakRealm == "" {
			return fmt.Errorf("KEYCLOAK_URL and KEYCLOAK_REALM are required in keycloak mode")
		}
		if c.JWKSCacheTTL <= 0 {
			return fmt.Errorf("JWKS_CACHE_TTL must be positive")
		}
	case AuthModeEmbedded:
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET is required in embedded mode")
		}
		if c.JWTAccessTTL <= identity.ExpiryBuffer {
			return fmt.Errorf("JWT_ACCESS_TTL must be longer than %s", identity.ExpiryBuffer)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q", AuthModeKeycloak, AuthModeEmbedded)
	}

	if c.PaginationDefaultLimit < 1 || c.PaginationMaxLimit < c.PaginationDefaultLimit {
		return fmt.Errorf("pagination limits must satisfy 1 <= PAGINATION_DEFAULT_LIMIT <= PAGINATION_MAX_LIMIT")
	}

	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

// JWKSURL is where the realm publishes its signing keys.
func (c *Config) JWKSURL() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", c.KeycloakURL, c.KeycloakRealm)
}

// KeycloakIssuer is the iss claim tokens from the realm carry.
func (c *Config) KeycloakIssuer() string {
	return fmt.Sprintf("%s/realms/%s", c.KeycloakPublicURL, c.KeycloakRealm)
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
