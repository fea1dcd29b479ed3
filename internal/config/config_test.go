package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/notes_test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.AuditQueueSize != 1024 {
		t.Errorf("expected default audit queue size 1024, got %d", cfg.AuditQueueSize)
	}
	if cfg.BulkWorkers != 4 {
		t.Errorf("expected default bulk workers 4, got %d", cfg.BulkWorkers)
	}
	if !cfg.IsDev() {
		t.Error("expected IsDev to be true by default")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/notes_test")
	os.Setenv("PORT", "9090")
	os.Setenv("BULK_WORKERS", "8")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("PORT")
		os.Unsetenv("BULK_WORKERS")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.BulkWorkers != 8 {
		t.Errorf("expected 8 bulk workers, got %d", cfg.BulkWorkers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid dev", Config{Env: "development", AuditQueueSize: 10, BulkWorkers: 2}, false},
		{"zero audit queue", Config{Env: "development", AuditQueueSize: 0, BulkWorkers: 2}, true},
		{"zero bulk workers", Config{Env: "development", AuditQueueSize: 10, BulkWorkers: 0}, true},
		{"negative rps", Config{Env: "development", AuditQueueSize: 10, BulkWorkers: 2, RateLimitRPS: -1}, true},
		{"production without secret", Config{Env: "production", AuditQueueSize: 10, BulkWorkers: 2}, true},
		{"production with secret", Config{Env: "production", AuditQueueSize: 10, BulkWorkers: 2, ActorTokenSecret: "s"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
