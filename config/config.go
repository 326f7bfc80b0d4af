// Package config loads storefront settings from STOREFRONT_* environment
// variables. Command line flags override the loaded values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/goliatone/go-storefront-auth/persistence"
)

const envPrefix = "STOREFRONT_"

// Config holds the application configuration
type Config struct {
	// Server bind address (host:port)
	ServerAddr string `json:"server_addr"`

	// Database connection string, postgres:// or a SQLite path
	DatabaseURL string `json:"database_url"`

	// Maximum database connection pool size
	MaxDBConnections int `json:"max_db_connections"`

	// HS256 secret used to sign access tokens
	SigningKey string `json:"-"`

	// kid header of newly signed tokens
	SigningKeyID string `json:"signing_key_id"`

	// Previous keys still accepted for verification, kid=secret pairs
	RetiredSigningKeys map[string]string `json:"-"`

	Issuer   string        `json:"issuer"`
	Audience []string      `json:"audience"`
	TokenTTL time.Duration `json:"token_ttl"`

	BcryptCost    int `json:"bcrypt_cost"`
	RoleCacheSize int `json:"role_cache_size"`

	// Router locals key holding the caller
	ContextKey  string `json:"context_key"`
	TokenLookup string `json:"token_lookup"`
	AuthScheme  string `json:"auth_scheme"`

	// Derive user ids from the email with hashid
	HashedUserIDs bool `json:"hashed_user_ids"`

	// File the audit trail is appended to, empty means stdout
	AuditLogPath string `json:"audit_log_path"`

	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// Enable debug logging
	Debug bool `json:"debug"`
}

var _ auth.Config = (*Config)(nil)

// Defaults returns a Config with every field at its default value
func Defaults() *Config {
	return &Config{
		ServerAddr:         "localhost:8080",
		DatabaseURL:        "storefront.db",
		MaxDBConnections:   persistence.DefaultMaxOpenConns,
		SigningKeyID:       auth.DefaultSigningKeyID,
		RetiredSigningKeys: map[string]string{},
		Issuer:             auth.DefaultTokenIssuer,
		Audience:           []string{auth.DefaultTokenAudience},
		TokenTTL:           auth.DefaultTokenTTL,
		ContextKey:         auth.DefaultContextKey,
		TokenLookup:        "header:Authorization",
		AuthScheme:         "Bearer",
		ShutdownTimeout:    10 * time.Second,
	}
}

// Load reads configuration from environment variables with fallback defaults
func Load() (*Config, error) {
	def := Defaults()

	retired, err := ParseKeyPairs(getEnv("RETIRED_SIGNING_KEYS", ""))
	if err != nil {
		return nil, fmt.Errorf("%sRETIRED_SIGNING_KEYS: %w", envPrefix, err)
	}

	cfg := &Config{
		ServerAddr:         getEnv("SERVER_ADDR", def.ServerAddr),
		DatabaseURL:        getEnv("DATABASE_URL", def.DatabaseURL),
		MaxDBConnections:   getEnvInt("MAX_DB_CONNECTIONS", def.MaxDBConnections),
		SigningKey:         getEnv("JWT_SIGNING_KEY", ""),
		SigningKeyID:       getEnv("JWT_KEY_ID", def.SigningKeyID),
		RetiredSigningKeys: retired,
		Issuer:             strings.TrimSpace(getEnv("JWT_ISSUER", def.Issuer)),
		Audience:           splitList(getEnv("JWT_AUDIENCE", strings.Join(def.Audience, ","))),
		TokenTTL:           getEnvDuration("TOKEN_TTL", def.TokenTTL),
		BcryptCost:         getEnvInt("BCRYPT_COST", 0),
		RoleCacheSize:      getEnvInt("ROLE_CACHE_SIZE", auth.DefaultRoleCacheSize),
		ContextKey:         getEnv("CONTEXT_KEY", def.ContextKey),
		TokenLookup:        getEnv("TOKEN_LOOKUP", def.TokenLookup),
		AuthScheme:         getEnv("AUTH_SCHEME", def.AuthScheme),
		HashedUserIDs:      getEnvBool("HASHED_USER_IDS", false),
		AuditLogPath:       getEnv("AUDIT_LOG", ""),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", def.ShutdownTimeout),
		Debug:              getEnvBool("DEBUG", false),
	}

	return cfg, nil
}

// Validate fails when a setting the server cannot start without is
// missing or out of range
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SigningKey) == "" {
		return fmt.Errorf("%sJWT_SIGNING_KEY is required", envPrefix)
	}

	if strings.TrimSpace(c.Issuer) == "" {
		return fmt.Errorf("%sJWT_ISSUER is required", envPrefix)
	}

	if len(splitList(strings.Join(c.Audience, ","))) == 0 {
		return fmt.Errorf("%sJWT_AUDIENCE is required", envPrefix)
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("%sDATABASE_URL is required", envPrefix)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("%sTOKEN_TTL must be positive, got %s", envPrefix, c.TokenTTL)
	}

	if _, clash := c.RetiredSigningKeys[c.GetSigningKeyID()]; clash {
		return fmt.Errorf("retired signing key reuses active key id %q", c.GetSigningKeyID())
	}

	return nil
}

func (c *Config) GetSigningKey() string {
	return c.SigningKey
}

func (c *Config) GetSigningKeyID() string {
	if c.SigningKeyID == "" {
		return auth.DefaultSigningKeyID
	}
	return c.SigningKeyID
}

func (c *Config) GetRetiredSigningKeys() map[string]string {
	return c.RetiredSigningKeys
}

func (c *Config) GetTokenTTL() time.Duration {
	if c.TokenTTL <= 0 {
		return auth.DefaultTokenTTL
	}
	return c.TokenTTL
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Audience
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *Config) GetBcryptCost() int {
	return c.BcryptCost
}

// ParseKeyPairs parses "kid=secret,kid2=secret2"
func ParseKeyPairs(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range splitList(raw) {
		kid, secret, ok := strings.Cut(pair, "=")
		kid = strings.TrimSpace(kid)
		if !ok || kid == "" || secret == "" {
			return nil, fmt.Errorf("invalid key pair %q, expected kid=secret", pair)
		}
		out[kid] = secret
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if result, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45m") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(envPrefix + key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
