package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

const defaultJWTSecret = "change-me-in-production-min-32-chars"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string
	ClientURL  string // Frontend origin used in email links

	// Storage
	StoreDriver string // "postgres" or "memory"
	DatabaseURL string

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// Auth
	JWTSecret string
	JWTExpiry time.Duration

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://example.com,https://app.example.com"

	// Rate limiting
	RedisURL     string // Shared limiter storage; in-memory when empty
	RateLimitMax int    // Requests per minute per client on /api/auth and /api/publisher/create

	// SMTP
	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "starttls" or "tls"

	// Email notifications
	EmailNotifyAdminsOnSubmit   bool
	EmailNotifyOwnerOnApproval  bool
	EmailNotifyOwnerOnRejection bool

	// Website analytics service; the heuristic scorer is used when unset
	AnalyticsAPIURL  string
	AnalyticsAPIKey  string
	AnalyticsTimeout time.Duration

	// Jobs
	ReconcileSchedule string // cron spec for the role reconciler, empty disables it

	// Admin seeding from the YAML seed_admins list
	AdminSeedPassword string

	// YAML overlay
	ConfigFile string

	SiteTitle string // env: SITE_TITLE, default: "PubMarket"
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":5000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:5000"),
		ClientURL:   getEnv("CLIENT_URL", "http://localhost:3000"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/pubmarket?sslmode=disable"),
		TLSEnabled:  getEnv("TLS_ENABLED", "") != "",
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),
		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry:   getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),
		CORSOrigins: getEnv("CORS_ORIGINS", ""),

		RedisURL:     getEnv("REDIS_URL", ""),
		RateLimitMax: getEnvInt("RATE_LIMIT_MAX", 20),

		SMTPEnabled:  getEnvBool("SMTP_ENABLED", false),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "PubMarket"),
		SMTPTLS:      strings.ToLower(getEnv("SMTP_TLS", "starttls")),

		EmailNotifyAdminsOnSubmit:   getEnvBool("EMAIL_NOTIFY_ADMINS_ON_SUBMIT", true),
		EmailNotifyOwnerOnApproval:  getEnvBool("EMAIL_NOTIFY_OWNER_ON_APPROVAL", true),
		EmailNotifyOwnerOnRejection: getEnvBool("EMAIL_NOTIFY_OWNER_ON_REJECTION", true),

		AnalyticsAPIURL:  getEnv("ANALYTICS_API_URL", ""),
		AnalyticsAPIKey:  getEnv("ANALYTICS_API_KEY", ""),
		AnalyticsTimeout: getEnvDuration("ANALYTICS_TIMEOUT", 10*time.Second),

		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "@every 15m"),
		AdminSeedPassword: getEnv("ADMIN_SEED_PASSWORD", ""),
		ConfigFile:        getEnv("CONFIG_FILE", "config.yaml"),

		SiteTitle: getEnv("SITE_TITLE", "PubMarket"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return errors.New("STORE_DRIVER must be postgres or memory")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if !c.IsDev() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set outside development")
	}
	if c.TLSEnabled && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required when TLS is enabled")
	}
	return nil
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is switched on and minimally configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsRemoteAnalyticsEnabled returns true if an external analytics service is configured.
func (c *Config) IsRemoteAnalyticsEnabled() bool {
	return c.AnalyticsAPIURL != ""
}

// CORSOriginList splits CORSOrigins into trimmed, non-empty origins.
func (c *Config) CORSOriginList() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
