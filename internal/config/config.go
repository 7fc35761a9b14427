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

// Config holds all gateway configuration loaded from environment variables.
type Config struct {
	Port string
	Env  string

	Catalog   CatalogConfig
	Auth      AuthConfig
	DB        DatabaseConfig
	Redis     RedisConfig
	Workspace WorkspaceConfig
	CORS      CORSConfig
}

// CatalogConfig points at the upstream catalog backend.
type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig configures the session provider integration and access guard.
type AuthConfig struct {
	PublishableKey string
	// JWTPublicKeyPEM, when set, enables local RS256 verification of bearer
	// tokens before the identity lookup.
	JWTPublicKeyPEM string
	AllowedRoles    []string
	IdentityTTL     time.Duration
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WorkspaceConfig controls per-session dashboard state lifetime.
type WorkspaceConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	MaxUploadMB   int
}

// CORSConfig lists dashboard origins allowed to call the gateway.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from the environment, loading a .env file first
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),
	}

	cfg.Catalog = CatalogConfig{
		BaseURL: strings.TrimRight(getEnv("CATALOG_API_BASE_URL", "https://solidoro-backend-production.up.railway.app/api"), "/"),
	}

	cfg.Auth = AuthConfig{
		PublishableKey:  getEnv("AUTH_PUBLISHABLE_KEY", ""),
		JWTPublicKeyPEM: getEnv("AUTH_JWT_PUBLIC_KEY", ""),
		AllowedRoles:    getEnvList("ADMIN_ROLES", "admin,builder"),
	}

	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
	}

	var err error
	if cfg.Catalog.Timeout, err = parseDurationEnv("CATALOG_API_TIMEOUT", "0s"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_API_TIMEOUT: %w", err)
	}
	if cfg.Auth.IdentityTTL, err = parseDurationEnv("IDENTITY_CACHE_TTL", "12h"); err != nil {
		return nil, fmt.Errorf("invalid IDENTITY_CACHE_TTL: %w", err)
	}
	if cfg.Workspace.IdleTTL, err = parseDurationEnv("WORKSPACE_IDLE_TTL", "30m"); err != nil {
		return nil, fmt.Errorf("invalid WORKSPACE_IDLE_TTL: %w", err)
	}
	if cfg.Workspace.SweepInterval, err = parseDurationEnv("WORKSPACE_SWEEP_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid WORKSPACE_SWEEP_INTERVAL: %w", err)
	}
	cfg.Workspace.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 32)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.PublishableKey == "" {
		return errors.New("AUTH_PUBLISHABLE_KEY must be set")
	}
	if len(c.Auth.AllowedRoles) == 0 {
		return errors.New("ADMIN_ROLES must list at least one role")
	}
	if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
		return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if c.Workspace.SweepInterval <= 0 {
		return errors.New("WORKSPACE_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// IsProduction reports whether the gateway runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key, def string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, def), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, def))
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
