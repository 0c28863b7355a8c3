// Package config centralizes how filecrate reads environment variables and
// exposes them as strongly typed Go values.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anstrom/filecrate/internal/model"
)

// Config represents runtime configuration for the API server and the worker.
type Config struct {
	Address     string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// StorageProvider selects where new uploads land. Files written under the
	// other provider stay readable; the selector only steers Put.
	StorageProvider model.Provider
	UploadDir       string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	// AppBaseURL is used to compose public file and share link URLs.
	AppBaseURL string

	JWTSecret []byte
	JWTTTL    time.Duration

	MaxFileSize int64

	// InviteAdminEmails is the allowlist of accounts permitted to issue invite
	// codes. RequireInvite gates registration on presenting a valid code.
	InviteAdminEmails []string
	RequireInvite     bool

	WorkerConcurrency int
}

const (
	defaultAddress     = ":8080"
	defaultRedisAddr   = "127.0.0.1:6379"
	defaultUploadDir   = "uploads"
	defaultRegion      = "us-east-1"
	defaultBaseURL     = "http://localhost:8080"
	defaultJWTTTL      = 7 * 24 * time.Hour
	defaultMaxFileSize = 500 << 20 // 500 MiB
	defaultWorkers     = 4
)

// Load reads configuration from environment variables falling back to
// defaults. Only a missing JWT secret and a missing database DSN are fatal;
// everything else degrades to a usable local default.
func Load() (*Config, error) {
	cfg := &Config{
		Address:           readEnv("FILECRATE_ADDRESS", defaultAddress),
		DatabaseURL:       readEnv("FILECRATE_DATABASE_URL", ""),
		RedisAddr:         readEnv("FILECRATE_REDIS_ADDR", defaultRedisAddr),
		RedisPassword:     readEnv("FILECRATE_REDIS_PASSWORD", ""),
		RedisDB:           parseInt("FILECRATE_REDIS_DB", 0),
		UploadDir:         readEnv("FILECRATE_UPLOAD_DIR", defaultUploadDir),
		S3Endpoint:        readEnv("FILECRATE_S3_ENDPOINT", ""),
		S3AccessKey:       readEnv("FILECRATE_S3_ACCESS_KEY", ""),
		S3SecretKey:       readEnv("FILECRATE_S3_SECRET_KEY", ""),
		S3Bucket:          readEnv("FILECRATE_S3_BUCKET", ""),
		S3Region:          readEnv("FILECRATE_S3_REGION", defaultRegion),
		S3UseSSL:          parseBool("FILECRATE_S3_USE_SSL", true),
		AppBaseURL:        strings.TrimRight(readEnv("FILECRATE_BASE_URL", defaultBaseURL), "/"),
		JWTSecret:         []byte(readEnv("FILECRATE_JWT_SECRET", "")),
		JWTTTL:            parseDuration("FILECRATE_JWT_TTL", defaultJWTTTL),
		MaxFileSize:       parseInt64("FILECRATE_MAX_FILE_BYTES", defaultMaxFileSize),
		InviteAdminEmails: parseEmails("FILECRATE_INVITE_ADMIN_EMAILS"),
		RequireInvite:     parseBool("FILECRATE_REQUIRE_INVITE", false),
		WorkerConcurrency: parseInt("FILECRATE_WORKERS", defaultWorkers),
	}
	switch strings.ToLower(readEnv("FILECRATE_STORAGE_PROVIDER", string(model.ProviderLocal))) {
	case string(model.ProviderS3):
		cfg.StorageProvider = model.ProviderS3
	default:
		cfg.StorageProvider = model.ProviderLocal
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("FILECRATE_JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("FILECRATE_DATABASE_URL is required")
	}
	if cfg.StorageProvider == model.ProviderS3 && cfg.S3Bucket == "" {
		return nil, errors.New("FILECRATE_S3_BUCKET is required when the s3 provider is active")
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = defaultWorkers
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = defaultJWTTTL
	}
	return cfg, nil
}

// IsInviteAdmin reports whether the e-mail is on the invite allowlist. The
// comparison is case-insensitive, matching how admins tend to type e-mails.
func (c *Config) IsInviteAdmin(email string) bool {
	lowered := strings.ToLower(email)
	for _, admin := range c.InviteAdminEmails {
		if admin == lowered {
			return true
		}
	}
	return false
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseEmails(key string) []string {
	raw := readEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
