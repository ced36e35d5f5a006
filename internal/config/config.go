package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds the process-wide configuration for the timetabling engine.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Engine   EngineConfig
	Auth     AuthConfig
}

// DatabaseConfig configures the PostgreSQL project store.
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port             string
	Env              string // development, production
	ProductionDomain string
	TrustedProxies   []string // direct-connection IPs allowed to set X-Forwarded-For
}

// EngineConfig carries engine settings read from the environment. The server
// uses MaxSeconds to size its HTTP write timeout; request payloads take their
// solve defaults from models.DefaultSolveConfig, not from these values.
type EngineConfig struct {
	MaxSeconds           int
	RandomSeed           int64
	ForbiddenPeriodsHard bool
}

// AuthConfig configures the admin API key that every /api/v1 route requires
// as a bearer token.
type AuthConfig struct {
	AdminAPIKey string
}

// validateAPIKeySecret checks the admin API key for minimum length,
// character diversity, and common weak patterns, with stricter thresholds
// in production.
func validateAPIKeySecret(secret string, isProduction bool) error {
	const minLength = 32

	if len(secret) < minLength {
		return fmt.Errorf("ADMIN_API_KEY must be at least %d characters (got %d)", minLength, len(secret))
	}

	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("ADMIN_API_KEY cannot be only whitespace")
	}

	for i := 0; i < len(secret)-4; i++ {
		if secret[i] == secret[i+1] && secret[i+1] == secret[i+2] &&
			secret[i+2] == secret[i+3] && secret[i+3] == secret[i+4] {
			return fmt.Errorf("ADMIN_API_KEY has too many repeated characters in a row")
		}
	}

	sequentialPatterns := []string{
		"01234567", "12345678", "23456789", "34567890",
		"abcdefgh", "bcdefghi", "cdefghij", "defghijk",
	}
	lowerSeq := strings.ToLower(secret)
	for _, pattern := range sequentialPatterns {
		if strings.Contains(lowerSeq, pattern) {
			return fmt.Errorf("ADMIN_API_KEY contains a sequential run of characters")
		}
	}

	weakPatterns := []string{"password", "secret", "apikey", "admin123", "test123"}
	for _, pattern := range weakPatterns {
		if strings.Contains(lowerSeq, pattern) {
			return fmt.Errorf("ADMIN_API_KEY contains a common weak pattern: %q", pattern)
		}
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	const specialChars = "!@#$%^&*()_+-=[]{};:'\"\\|,.<>?/~`"
	for _, ch := range secret {
		switch {
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, ch):
			hasSpecial = true
		}
	}
	typeCount := 0
	for _, has := range []bool{hasLower, hasUpper, hasDigit, hasSpecial} {
		if has {
			typeCount++
		}
	}
	if typeCount < 3 {
		return fmt.Errorf("ADMIN_API_KEY must mix at least 3 character classes (got %d)", typeCount)
	}

	if isProduction {
		if typeCount < 4 {
			return fmt.Errorf("ADMIN_API_KEY must mix all 4 character classes in production (got %d)", typeCount)
		}
		const productionMinLength = 48
		if len(secret) < productionMinLength {
			return fmt.Errorf("ADMIN_API_KEY must be at least %d characters in production (got %d)", productionMinLength, len(secret))
		}
	}

	return nil
}

// maskSecret shows only the first and last 3 characters of secret.
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 6 {
		return "***"
	}
	return secret[:3] + "..." + secret[len(secret)-3:]
}

// generateSecureSecret returns a base64-encoded cryptographically random
// secret of the given byte length.
func generateSecureSecret(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bytes), nil
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	env := getEnv("ENV", "development")
	isProduction := env == "production"

	maxSeconds, err := strconv.Atoi(getEnv("ENGINE_MAX_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_MAX_SECONDS: %w", err)
	}

	randomSeed, err := strconv.ParseInt(getEnv("ENGINE_RANDOM_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_RANDOM_SEED: %w", err)
	}

	adminKey := getEnv("ADMIN_API_KEY", "")
	if adminKey == "" {
		if isProduction {
			return nil, fmt.Errorf("ADMIN_API_KEY is required in production. Generate with: openssl rand -base64 48")
		}
		log.Println("[WARN] ADMIN_API_KEY not set in development. Generating a temporary key.")
		generated, err := generateSecureSecret(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ADMIN_API_KEY: %w", err)
		}
		adminKey = generated
		log.Printf("[WARN] generated temporary ADMIN_API_KEY: %s\n", maskSecret(adminKey))
	}

	if err := validateAPIKeySecret(adminKey, isProduction); err != nil {
		return nil, fmt.Errorf("ADMIN_API_KEY validation failed: %w", err)
	}

	trustedProxies := []string{}
	if proxiesStr := getEnv("TRUSTED_PROXIES", ""); proxiesStr != "" {
		for _, proxy := range strings.Split(proxiesStr, ",") {
			if trimmed := strings.TrimSpace(proxy); trimmed != "" {
				trustedProxies = append(trustedProxies, trimmed)
			}
		}
	}
	if len(trustedProxies) == 0 && !isProduction {
		trustedProxies = []string{"127.0.0.1", "localhost", "::1"}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			Name:     getEnv("DB_NAME", "timetable_engine"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  getEnv("DB_SSL_MODE", "require"),
		},
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			Env:              env,
			ProductionDomain: getEnv("PRODUCTION_DOMAIN", ""),
			TrustedProxies:   trustedProxies,
		},
		Engine: EngineConfig{
			MaxSeconds:           maxSeconds,
			RandomSeed:           randomSeed,
			ForbiddenPeriodsHard: getEnv("ENGINE_FORBIDDEN_PERIODS_HARD", "true") == "true",
		},
		Auth: AuthConfig{
			AdminAPIKey: adminKey,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks structural invariants and production-only requirements.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.IsProduction() {
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must not be empty in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database SSL must be enabled in production")
		}
		if c.Server.ProductionDomain == "" {
			return fmt.Errorf("PRODUCTION_DOMAIN is required in production mode")
		}
	}

	if c.IsDevelopment() {
		if c.Database.Host != "localhost" && c.Database.Host != "127.0.0.1" && c.Database.Host != "postgres" {
			return fmt.Errorf("cannot connect to remote database %s in development mode", c.Database.Host)
		}
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Engine.MaxSeconds <= 0 {
		return fmt.Errorf("ENGINE_MAX_SECONDS must be greater than 0")
	}

	if c.Auth.AdminAPIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required")
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	if c.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Name, c.SSLMode)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsProduction reports whether Server.Env is "production".
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment reports whether Server.Env is "development".
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// GetBaseURL returns the externally visible base URL for the API.
func (c *Config) GetBaseURL() string {
	if c.IsProduction() && c.Server.ProductionDomain != "" {
		return "https://" + c.Server.ProductionDomain
	}
	return "http://localhost:" + c.Server.Port
}

// String renders the configuration with all secrets masked, safe for logs.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Database:{Host:%s Port:%d Name:%s User:%s Password:%s SSLMode:%s} "+
			"Server:{Port:%s Env:%s ProductionDomain:%s TrustedProxies:%v} "+
			"Engine:{MaxSeconds:%d RandomSeed:%d ForbiddenPeriodsHard:%v} "+
			"Auth:{AdminAPIKey:%s}}",
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.User,
		maskSecret(c.Database.Password),
		c.Database.SSLMode,
		c.Server.Port,
		c.Server.Env,
		c.Server.ProductionDomain,
		c.Server.TrustedProxies,
		c.Engine.MaxSeconds,
		c.Engine.RandomSeed,
		c.Engine.ForbiddenPeriodsHard,
		maskSecret(c.Auth.AdminAPIKey),
	)
}

// getEnv returns the value of the environment variable key, or defaultValue
// if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
