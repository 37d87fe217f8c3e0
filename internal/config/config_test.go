package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORE_DRIVER", "JWT_EXPIRY", "RATE_LIMIT_MAX", "SMTP_PORT", "SMTP_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.StoreDriver != StoreDriverPostgres {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreDriverPostgres)
	}
	if cfg.JWTExpiry != 7*24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 168h", cfg.JWTExpiry)
	}
	if cfg.RateLimitMax != 20 {
		t.Errorf("RateLimitMax = %d, want 20", cfg.RateLimitMax)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.IsEmailEnabled() {
		t.Error("IsEmailEnabled() = true with no SMTP settings")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("SMTP_ENABLED", "true")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "noreply@example.com")
	t.Setenv("ANALYTICS_TIMEOUT", "not-a-duration")

	cfg := Load()

	if cfg.StoreDriver != StoreDriverMemory {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreDriverMemory)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("JWTExpiry = %v, want 2h", cfg.JWTExpiry)
	}
	if cfg.RateLimitMax != 5 {
		t.Errorf("RateLimitMax = %d, want 5", cfg.RateLimitMax)
	}
	if !cfg.IsEmailEnabled() {
		t.Error("IsEmailEnabled() = false, want true")
	}
	if cfg.AnalyticsTimeout != 10*time.Second {
		t.Errorf("AnalyticsTimeout = %v, want fallback 10s", cfg.AnalyticsTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:         "production",
			StoreDriver: StoreDriverPostgres,
			JWTSecret:   "0123456789abcdef0123456789abcdef",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"default secret in production", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"default secret in development", func(c *Config) { c.Env = "development"; c.JWTSecret = defaultJWTSecret }, false},
		{"tls without cert", func(c *Config) { c.TLSEnabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCORSOriginList(t *testing.T) {
	c := &Config{CORSOrigins: " https://a.example , ,https://b.example"}
	got := c.CORSOriginList()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("CORSOriginList() = %v", got)
	}
	if (&Config{}).CORSOriginList() != nil {
		t.Error("CORSOriginList() on empty config should be nil")
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadYAMLConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil || cfg != nil {
			t.Fatalf("LoadYAMLConfig() = %v, %v; want nil, nil", cfg, err)
		}
		if cfg.GetSeedAdmins() != nil {
			t.Error("GetSeedAdmins() on nil config should be nil")
		}
	})

	t.Run("parses", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
marketplace:
  high_performing:
    min_trust_score: 80
    min_monthly_traffic: 50000
pagination:
  default_limit: 20
  max_limit: 50
seed_admins:
  - email: " Root@Example.com "
  - email: ""
    full_name: Nobody
  - email: ops@example.com
    full_name: Ops Team
`
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadYAMLConfig(path)
		if err != nil {
			t.Fatalf("LoadYAMLConfig() error = %v", err)
		}
		if cfg.Marketplace.HighPerforming.MinTrustScore != 80 || cfg.Marketplace.HighPerforming.MinMonthlyTraffic != 50000 {
			t.Errorf("HighPerforming = %+v", cfg.Marketplace.HighPerforming)
		}
		if cfg.Pagination.DefaultLimit != 20 || cfg.Pagination.MaxLimit != 50 {
			t.Errorf("Pagination = %+v", cfg.Pagination)
		}

		admins := cfg.GetSeedAdmins()
		if len(admins) != 2 {
			t.Fatalf("GetSeedAdmins() returned %d, want 2", len(admins))
		}
		if admins[0].Email != "root@example.com" || admins[0].FullName != "Administrator" {
			t.Errorf("admins[0] = %+v", admins[0])
		}
		if admins[1].FullName != "Ops Team" {
			t.Errorf("admins[1] = %+v", admins[1])
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("pagination: [1, 2"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadYAMLConfig(path); err == nil {
			t.Error("LoadYAMLConfig() expected error for malformed YAML")
		}
	})
}
