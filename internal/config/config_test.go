package config

import (
	"testing"
	"time"

	"github.com/anstrom/filecrate/internal/model"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FILECRATE_JWT_SECRET", "test-secret")
	t.Setenv("FILECRATE_DATABASE_URL", "postgres://localhost:5432/filecrate")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address != ":8080" {
		t.Fatalf("address %q", cfg.Address)
	}
	if cfg.StorageProvider != model.ProviderLocal {
		t.Fatalf("provider %q, want local", cfg.StorageProvider)
	}
	if cfg.MaxFileSize != 500<<20 {
		t.Fatalf("max file size %d", cfg.MaxFileSize)
	}
	if cfg.JWTTTL != 7*24*time.Hour {
		t.Fatalf("jwt ttl %v", cfg.JWTTTL)
	}
	if cfg.RequireInvite {
		t.Fatalf("registration must be open by default")
	}
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("worker concurrency %d", cfg.WorkerConcurrency)
	}
}

func TestLoadRequiresSecretAndDSN(t *testing.T) {
	t.Setenv("FILECRATE_JWT_SECRET", "")
	t.Setenv("FILECRATE_DATABASE_URL", "postgres://localhost:5432/filecrate")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
	t.Setenv("FILECRATE_JWT_SECRET", "test-secret")
	t.Setenv("FILECRATE_DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without database url")
	}
}

func TestLoadS3Provider(t *testing.T) {
	setRequired(t)
	t.Setenv("FILECRATE_STORAGE_PROVIDER", "s3")
	if _, err := Load(); err == nil {
		t.Fatalf("s3 provider without a bucket must fail")
	}
	t.Setenv("FILECRATE_S3_BUCKET", "crate-files")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageProvider != model.ProviderS3 {
		t.Fatalf("provider %q, want s3", cfg.StorageProvider)
	}
	if cfg.S3Region != "us-east-1" {
		t.Fatalf("region %q", cfg.S3Region)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("FILECRATE_ADDRESS", ":9191")
	t.Setenv("FILECRATE_BASE_URL", "https://crate.example.com/")
	t.Setenv("FILECRATE_JWT_TTL", "30m")
	t.Setenv("FILECRATE_MAX_FILE_BYTES", "1024")
	t.Setenv("FILECRATE_REQUIRE_INVITE", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address != ":9191" {
		t.Fatalf("address %q", cfg.Address)
	}
	if cfg.AppBaseURL != "https://crate.example.com" {
		t.Fatalf("base url %q, trailing slash should be stripped", cfg.AppBaseURL)
	}
	if cfg.JWTTTL != 30*time.Minute {
		t.Fatalf("jwt ttl %v", cfg.JWTTTL)
	}
	if cfg.MaxFileSize != 1024 {
		t.Fatalf("max file size %d", cfg.MaxFileSize)
	}
	if !cfg.RequireInvite {
		t.Fatalf("require invite should be on")
	}
}

func TestIsInviteAdmin(t *testing.T) {
	setRequired(t)
	t.Setenv("FILECRATE_INVITE_ADMIN_EMAILS", "Admin@Example.com, ops@example.com ,")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := []struct {
		email string
		want  bool
	}{
		{"admin@example.com", true},
		{"ADMIN@EXAMPLE.COM", true},
		{"ops@example.com", true},
		{"user@example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := cfg.IsInviteAdmin(tc.email); got != tc.want {
			t.Fatalf("IsInviteAdmin(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}
