// Package config loads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is built once at startup and passed by value or pointer to the
// components that need it. Nothing mutates it after Load.
type Config struct {
	Env  string
	Port string

	DatabaseURL string
	RedisURL    string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	BcryptCost         int

	CookieDomain string
	CookieSecure bool

	UploadDir string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadDotEnv reads .env.local and falls back to .env. Missing files are not an error.
func LoadDotEnv() bool {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			return false
		}
	}
	return true
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config using lookup instead of the process environment.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		Env:                get("APP_ENV", "development"),
		Port:               get("PORT", "8080"),
		DatabaseURL:        get("DATABASE_URL", ""),
		RedisURL:           get("REDIS_URL", "redis://localhost:6379/0"),
		AccessTokenSecret:  get("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: get("REFRESH_TOKEN_SECRET", ""),
		CookieDomain:       get("COOKIE_DOMAIN", ""),
		UploadDir:          get("UPLOAD_DIR", "./public/temp"),
		S3Endpoint:         get("S3_ENDPOINT", "http://127.0.0.1:9000"),
		S3Region:           get("S3_REGION", "us-east-1"),
		S3Bucket:           get("S3_BUCKET", "vidtube"),
		S3AccessKey:        get("S3_ACCESS_KEY", ""),
		S3SecretKey:        get("S3_SECRET_KEY", ""),
	}
	cfg.S3PublicURL = get("S3_PUBLIC_URL", cfg.S3Endpoint)

	var err error
	if cfg.AccessTokenExpiry, err = ParseExpiry(get("ACCESS_TOKEN_EXPIRY", "1d")); err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRY: %w", err)
	}
	if cfg.RefreshTokenExpiry, err = ParseExpiry(get("REFRESH_TOKEN_EXPIRY", "10d")); err != nil {
		return nil, fmt.Errorf("REFRESH_TOKEN_EXPIRY: %w", err)
	}

	if cfg.BcryptCost, err = strconv.Atoi(get("BCRYPT_COST", "10")); err != nil {
		return nil, fmt.Errorf("BCRYPT_COST: %w", err)
	}

	// Secure cookies unless explicitly disabled for local development.
	cfg.CookieSecure = get("COOKIE_SECURE", "true") != "false"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is not set"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is not set"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return errors.Join(errs...)
}

// ParseExpiry accepts Go durations ("15m", "1h30m") and whole days ("10d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
