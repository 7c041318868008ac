package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_BASE_URL", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.BaseURL != "http://localhost:9090" {
		t.Fatalf("unexpected base url %q", cfg.App.BaseURL)
	}
	if cfg.Storage.Driver != StorageDriverLocal {
		t.Fatalf("expected local storage, got %q", cfg.Storage.Driver)
	}
	if cfg.Mail.EmailFrom == "" {
		t.Fatalf("expected default sender")
	}
	if cfg.App.Addr() != "127.0.0.1:9090" {
		t.Fatalf("unexpected addr %q", cfg.App.Addr())
	}
}

func TestLoadParsesListsAndFlags(t *testing.T) {
	t.Setenv("APP_ALLOWED_HOSTS", "helpdesk.local, localhost ,,127.0.0.1")
	t.Setenv("AUTH_ENFORCE_PERMISSIONS", "true")
	t.Setenv("APP_BASE_URL", "https://desk.example.com/")
	t.Setenv("STORAGE_DRIVER", "local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"helpdesk.local", "localhost", "127.0.0.1"}
	if len(cfg.App.AllowedHosts) != len(want) {
		t.Fatalf("unexpected hosts %v", cfg.App.AllowedHosts)
	}
	for i := range want {
		if cfg.App.AllowedHosts[i] != want[i] {
			t.Fatalf("host %d: got %q want %q", i, cfg.App.AllowedHosts[i], want[i])
		}
	}
	if !cfg.Auth.EnforcePermissions {
		t.Fatalf("expected permissions enforcement")
	}
	if cfg.App.BaseURL != "https://desk.example.com" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.App.BaseURL)
	}
}

func TestLoadRejectsBadSMTPPort(t *testing.T) {
	t.Setenv("SMTP_PORT", "twenty-five")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid SMTP_PORT")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"local ok", Config{Storage: StorageConfig{Driver: StorageDriverLocal}}, false},
		{"minio without endpoint", Config{Storage: StorageConfig{Driver: StorageDriverMinio}}, true},
		{"minio with endpoint", Config{Storage: StorageConfig{Driver: StorageDriverMinio, MinioEndpoint: "minio:9000"}}, false},
		{"unknown driver", Config{Storage: StorageConfig{Driver: "ftp"}}, true},
		{"production default secret", Config{App: AppConfig{Env: "production"}, Auth: AuthConfig{JWTSecret: "dev-secret"}, Storage: StorageConfig{Driver: StorageDriverLocal}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	if got := (AppConfig{RequestTimeoutSeconds: 0}).RequestTimeout(); got != 0 {
		t.Fatalf("expected disabled timeout, got %v", got)
	}
	if got := (AppConfig{RequestTimeoutSeconds: 5}).RequestTimeout(); got != 5*time.Second {
		t.Fatalf("unexpected timeout %v", got)
	}
	if got := (AuthConfig{}).AccessTokenTTL(); got != time.Hour {
		t.Fatalf("unexpected default ttl %v", got)
	}
	if got := (AppConfig{BodyLimitMB: 2}).BodyLimit(); got != 2*1024*1024 {
		t.Fatalf("unexpected body limit %d", got)
	}
}
