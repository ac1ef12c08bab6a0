package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Admin auth
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration
	AdminEmails      string
	AdminToken       string

	// Email provider
	EmailAPIKey        string
	EmailAPIURL        string
	EmailFrom          string
	InternalRecipients string
	EmailTimeout       time.Duration

	// Pipedrive
	PipedriveAPIToken string
	PipedriveBaseURL  string
	PipedriveOwnerID  int
	CRMTimeout        time.Duration

	// Rate limiting (lead forms)
	RateLimitMax    int
	RateLimitWindow time.Duration
	ValkeyAddr      string

	// Logging and error tracking
	LogRetention time.Duration
	SentryDSN    string
	AppEnv       string

	// Server
	Port        string
	CORSOrigins string
	SiteURL     string

	// Client IP resolution. ProxyHeader is only read on requests whose peer
	// address is listed in TrustedProxies; with no trusted proxies the peer
	// address is the client IP.
	ProxyHeader    string
	TrustedProxies []string

	// Form catalog
	FormsConfigPath string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first; variables already set win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "intake_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 7*24*time.Hour),
		AdminEmails:      getEnv("ADMIN_EMAILS", ""),
		AdminToken:       getEnv("ADMIN_TOKEN", ""),

		EmailAPIKey:        getEnv("RESEND_API_KEY", ""),
		EmailAPIURL:        getEnv("RESEND_API_URL", "https://api.resend.com/emails"),
		EmailFrom:          getEnv("EMAIL_FROM", "Northgate Advisors <noreply@northgateadvisors.com>"),
		InternalRecipients: getEnv("INTERNAL_RECIPIENTS", "info@northgateadvisors.com"),
		EmailTimeout:       parseDuration(getEnv("EMAIL_TIMEOUT", "15s"), 15*time.Second),

		PipedriveAPIToken: getEnv("PIPEDRIVE_API_TOKEN", ""),
		PipedriveBaseURL:  getEnv("PIPEDRIVE_BASE_URL", "https://api.pipedrive.com/v1"),
		PipedriveOwnerID:  parseInt(getEnv("PIPEDRIVE_OWNER_ID", "0"), 0),
		CRMTimeout:        parseDuration(getEnv("CRM_TIMEOUT", "20s"), 20*time.Second),

		RateLimitMax:    parseInt(getEnv("RATE_LIMIT_MAX", "5"), 5),
		RateLimitWindow: parseDuration(getEnv("RATE_LIMIT_WINDOW", "60s"), time.Minute),
		ValkeyAddr:      getEnv("VALKEY_ADDR", ""),

		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
		AppEnv:       getEnv("APP_ENV", "development"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		SiteURL:     getEnv("SITE_URL", "https://northgateadvisors.com"),

		ProxyHeader:    getEnv("PROXY_HEADER", "X-Real-IP"),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		FormsConfigPath: getEnv("FORMS_CONFIG_PATH", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// EmailEnabled reports whether outbound email is configured.
func (c *Config) EmailEnabled() bool {
	return c.EmailAPIKey != ""
}

// CRMEnabled reports whether the Pipedrive sync is configured.
func (c *Config) CRMEnabled() bool {
	return c.PipedriveAPIToken != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
