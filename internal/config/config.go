// Package config loads all runtime settings from the environment once at
// startup. The resulting Config is passed explicitly to every component;
// nothing in the codebase reads os.Getenv after boot.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Mail holds outgoing-email settings. Provider selects between direct SMTP
// ("smtp", the default) and the Plunk HTTP API ("plunk").
type Mail struct {
	Provider     string
	From         string
	ReplyTo      string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	PlunkAPIKey  string
	PlunkAPIURL  string
}

// Storage holds image-storage settings. Backend is "disk" or "s3".
type Storage struct {
	Backend       string
	UploadDir     string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	PublicBaseURL string
}

type Config struct {
	Env            string
	Port           string
	AppURL         string
	DatabaseDSN    string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	RedisAddr      string
	Mail           Mail
	Storage        Storage
}

// Production reports whether the process runs with production hardening
// (Secure cookies, real CORS origins).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load builds the Config from environment variables. It fails when a setting
// without a safe default is missing; per the design, a missing JWT secret is
// a fatal configuration error at startup, never a per-request one.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getenv("APP_ENV", "development"),
		Port:     getenv("PORT", "5001"),
		AppURL:   getenv("APP_URL", "http://localhost:5001"),
		TokenTTL: 30 * 24 * time.Hour,
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS",
			"http://localhost:5173,http://localhost:5001")),
		RedisAddr: getenv("REDIS_ADDR", "127.0.0.1:6379"),
		Mail: Mail{
			Provider:     getenv("MAIL_PROVIDER", "smtp"),
			From:         os.Getenv("SMTP_FROM"),
			ReplyTo:      os.Getenv("MAIL_REPLY_TO"),
			SMTPHost:     os.Getenv("SMTP_HOST"),
			SMTPPort:     getenv("SMTP_PORT", "465"),
			SMTPUsername: os.Getenv("SMTP_USER"),
			SMTPPassword: os.Getenv("SMTP_PASS"),
			PlunkAPIKey:  os.Getenv("PLUNK_API_KEY"),
			PlunkAPIURL:  getenv("PLUNK_API_URL", "https://api.useplunk.com/v1/send"),
		},
		Storage: Storage{
			Backend:       getenv("STORAGE_BACKEND", "disk"),
			UploadDir:     getenv("UPLOAD_DIR", "uploads"),
			S3Bucket:      os.Getenv("S3_BUCKET"),
			S3Region:      getenv("S3_REGION", "us-east-1"),
			S3Endpoint:    os.Getenv("S3_ENDPOINT"),
			S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		},
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	if cfg.DatabaseDSN == "" {
		// Fall back to discrete DB_* variables.
		host := getenv("DB_HOST", "localhost")
		port := getenv("DB_PORT", "5432")
		user := getenv("DB_USER", "postgres")
		pass := getenv("DB_PASSWORD", "postgres")
		name := getenv("DB_NAME", "plateful")
		cfg.DatabaseDSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	if cfg.Storage.Backend == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, fmt.Errorf("STORAGE_BACKEND=s3 requires S3_BUCKET")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
