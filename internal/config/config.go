package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (optional, enables the reset-request throttle)
	RedisURL string

	// Session tokens
	JWTSecret        string
	SessionMaxAge    time.Duration
	SessionUpdateAge time.Duration
	CookieSecure     bool
	BcryptCost       int

	// Password reset
	ResetThrottleWindow time.Duration

	// Federated sign-in
	GoogleClientID     string
	GoogleClientSecret string
	AppleClientIDs     string

	// External collaborators
	CloudinaryURL    string
	CloudinaryFolder string
	ResendAPIKey     string
	EmailFrom        string

	// Admin
	AdminPathPrefix string

	// Server
	Port        string
	BaseURL     string
	CORSOrigins string
	Environment string
	SentryDSN   string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "goodie"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		SessionMaxAge:    parseDuration(getEnv("SESSION_MAX_AGE", "720h"), 720*time.Hour),
		SessionUpdateAge: parseDuration(getEnv("SESSION_UPDATE_AGE", "24h"), 24*time.Hour),
		CookieSecure:     parseBool(getEnv("COOKIE_SECURE", "false")),
		BcryptCost:       parseInt(getEnv("BCRYPT_COST", "10"), 10),

		ResetThrottleWindow: parseDuration(getEnv("RESET_THROTTLE_WINDOW", "1m"), time.Minute),

		GoogleClientID:     getEnv("AUTH_GOOGLE_ID", ""),
		GoogleClientSecret: getEnv("AUTH_GOOGLE_SECRET", ""),
		AppleClientIDs:     getEnv("APPLE_CLIENT_IDS", ""),

		CloudinaryURL:    getEnv("CLOUDINARY_URL", ""),
		CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "goodie_products"),
		ResendAPIKey:     getEnv("RESEND_API_KEY", ""),
		EmailFrom:        getEnv("EMAIL_FROM", "Goodie <onboarding@resend.dev>"),

		AdminPathPrefix: getEnv("ADMIN_PATH_PREFIX", "/admin"),

		Port:        getEnv("PORT", "8080"),
		BaseURL:     strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		Environment: getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

// DSN is the keyword/value connection string used by gorm.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// MigrationURL is the postgres:// URL form required by golang-migrate.
func (c *Config) MigrationURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// GoogleRedirectURL is the OAuth callback registered with Google.
func (c *Config) GoogleRedirectURL() string {
	return c.BaseURL + "/api/auth/oauth/google/callback"
}

func (c *Config) AppleAudiences() []string {
	return parseCSV(c.AppleClientIDs)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
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

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
