// Package config loads process configuration from the environment
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"Gallery/internal/auth"
	"Gallery/internal/session"
)

// Config is the full process configuration
type Config struct {
	Port    string
	BaseURL string

	AWSRegion string

	CognitoPoolID       string
	CognitoDomain       string
	CognitoClientID     string
	CognitoClientSecret string
	JWKSURL             string
	JWKSTimeout         time.Duration
	TokenTimeout        time.Duration

	SessionSecret string

	DatabaseURL string

	PhotosBucket string

	// S3Endpoint, S3AccessKey and S3SecretKey target an S3-compatible
	// server such as MinIO; empty means AWS with the default credential chain.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	PresignTTL  time.Duration

	IMDSEnabled  bool
	IMDSEndpoint string

	// CORSAllowedOrigins applies to the login callback only
	CORSAllowedOrigins []string

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Only set it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// SecureCookies reports whether cookies should be HTTPS-only
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// LoadDotEnv reads .env files into the environment. Missing files are ignored
// and variables already set win.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads and validates the configuration
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		BaseURL:         strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		CognitoPoolID:   getEnv("COGNITO_POOL_ID", ""),
		CognitoDomain:   getEnv("COGNITO_DOMAIN", ""),
		CognitoClientID: getEnv("COGNITO_CLIENT_ID", ""),
		JWKSURL:         getEnv("JWKS_URL", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		PhotosBucket:    getEnv("PHOTOS_BUCKET", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		IMDSEndpoint:    getEnv("IMDS_ENDPOINT", ""),
	}

	var errs []error
	var err error

	if cfg.CognitoClientSecret, err = GetEnvBase64OrPlain("COGNITO_CLIENT_SECRET"); err != nil {
		errs = append(errs, err)
	}
	if cfg.SessionSecret, err = GetEnvBase64OrPlain("SESSION_SECRET"); err != nil {
		errs = append(errs, err)
	}
	if cfg.S3SecretKey, err = GetEnvBase64OrPlain("S3_SECRET_KEY"); err != nil {
		errs = append(errs, err)
	}
	if cfg.JWKSTimeout, err = getEnvDuration("JWKS_TIMEOUT", auth.DefaultJWKSTimeout); err != nil {
		errs = append(errs, err)
	}
	if cfg.TokenTimeout, err = getEnvDuration("TOKEN_TIMEOUT", auth.DefaultTokenTimeout); err != nil {
		errs = append(errs, err)
	}
	if cfg.PresignTTL, err = getEnvDuration("PRESIGN_TTL", time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.IMDSEnabled, err = getEnvBool("IMDS_ENABLED", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.TrustProxyHeaders, err = getEnvBool("TRUST_PROXY_HEADERS", false); err != nil {
		errs = append(errs, err)
	}

	required := []struct{ name, value string }{
		{"COGNITO_DOMAIN", cfg.CognitoDomain},
		{"COGNITO_CLIENT_ID", cfg.CognitoClientID},
		{"COGNITO_CLIENT_SECRET", cfg.CognitoClientSecret},
		{"DATABASE_URL", cfg.DatabaseURL},
		{"PHOTOS_BUCKET", cfg.PhotosBucket},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}

	if cfg.JWKSURL == "" {
		if cfg.CognitoPoolID == "" {
			errs = append(errs, fmt.Errorf("COGNITO_POOL_ID is required when JWKS_URL is not set"))
		} else {
			cfg.JWKSURL = auth.CognitoJWKSURL(cfg.AWSRegion, cfg.CognitoPoolID)
		}
	}

	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS")
	if len(cfg.CORSAllowedOrigins) == 0 && cfg.CognitoDomain != "" {
		origin := cfg.CognitoDomain
		if !strings.Contains(origin, "://") {
			origin = "https://" + origin
		}
		cfg.CORSAllowedOrigins = []string{strings.TrimRight(origin, "/")}
	}

	if len(cfg.SessionSecret) < session.MinSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", session.MinSecretLength))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}
