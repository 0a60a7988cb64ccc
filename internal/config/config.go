package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/landing/internal/models"
	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	URL               string
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
	QueryTimeout      time.Duration
	MigrateOnStart    bool
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	SessionSecret      string
	SessionTTL         time.Duration
	SessionCookieName  string
	CookieDomain       string
	CookieSameSite     string
	PasswordHasher     string
	AdminAccounts      []models.AdminAccount
	FailureDelayBase   time.Duration
	FailureDelayJitter time.Duration
	LoginPerMinute     int
}

type RateLimitConfig struct {
	Window           time.Duration
	MaxRequests      int
	SweepProbability float64
	SweepInterval    time.Duration
}

type EmailConfig struct {
	OwnerNotifyEnabled bool
	AWSRegion          string
	FromAddress        string
	OwnerAddress       string
}

type LogConfig struct {
	Level    string
	File     string
	ToStdout bool
}

// IsProduction reports whether ENV=production.
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	// JWT_SECRET is accepted for deployments that predate SESSION_SECRET.
	sessionSecret := getEnv("SESSION_SECRET", getEnv("JWT_SECRET", ""))
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	adminAccounts, err := parseAdminAccounts(getEnv("ADMIN_ACCOUNTS", ""))
	if err != nil {
		return nil, err
	}
	if email, password := getEnv("ADMIN_EMAIL", ""), getEnv("ADMIN_PASSWORD", ""); email != "" && password != "" {
		adminAccounts = append(adminAccounts, models.AdminAccount{
			Email:    strings.ToLower(strings.TrimSpace(email)),
			Password: password,
			Name:     getEnv("ADMIN_NAME", "Administrator"),
		})
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "landing"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 1)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Second),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			ConnectTimeout:    getEnvAsDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
			QueryTimeout:      getEnvAsDuration("DB_QUERY_TIMEOUT", 5*time.Second),
			MigrateOnStart:    getEnvAsBool("DB_MIGRATE_ON_START", true),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", ""), ","),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			SessionSecret:      sessionSecret,
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			SessionCookieName:  getEnv("SESSION_COOKIE_NAME", "app_session_id"),
			CookieDomain:       getEnv("COOKIE_DOMAIN", ""),
			CookieSameSite:     strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
			PasswordHasher:     getEnv("PASSWORD_HASHER", "sha256"),
			AdminAccounts:      adminAccounts,
			FailureDelayBase:   getEnvAsDuration("AUTH_FAILURE_DELAY", 100*time.Millisecond),
			FailureDelayJitter: getEnvAsDuration("AUTH_FAILURE_DELAY_JITTER", 50*time.Millisecond),
			LoginPerMinute:     getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 10),
		},
		RateLimit: RateLimitConfig{
			Window:           getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			MaxRequests:      getEnvAsInt("RATE_LIMIT_MAX", 500),
			SweepProbability: getEnvAsFloat("RATE_LIMIT_SWEEP_PROBABILITY", 0.01),
			SweepInterval:    getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		},
		Email: EmailConfig{
			OwnerNotifyEnabled: getEnvAsBool("OWNER_NOTIFY_ENABLED", false),
			AWSRegion:          getEnv("AWS_REGION", "eu-west-3"),
			FromAddress:        getEnv("EMAIL_FROM", ""),
			OwnerAddress:       getEnv("OWNER_EMAIL", ""),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			File:     getEnv("LOG_FILE", ""),
			ToStdout: getEnvAsBool("LOG_TO_STDOUT", true),
		},
	}

	if cfg.Database.URL == "" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Window <= 0 || cfg.RateLimit.MaxRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW and RATE_LIMIT_MAX must be positive")
	}

	if cfg.Email.OwnerNotifyEnabled && (cfg.Email.FromAddress == "" || cfg.Email.OwnerAddress == "") {
		return nil, fmt.Errorf("EMAIL_FROM and OWNER_EMAIL are required when OWNER_NOTIFY_ENABLED is set")
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum strength for the token signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example", "dev-secret-key",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// parseAdminAccounts reads "email:password[:Display Name]" entries separated
// by ';' or newlines. The email ends at the first ':' and the name starts
// after the last one, so a password containing ':' needs a trailing name
// segment, which may be empty ("a@x.com:pa:ss:").
func parseAdminAccounts(raw string) ([]models.AdminAccount, error) {
	accounts := make([]models.AdminAccount, 0)
	seen := make(map[string]bool)

	entries := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '\n' })
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		email, rest, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("ADMIN_ACCOUNTS entry %d: expected email:password[:name]", i+1)
		}

		email = strings.ToLower(strings.TrimSpace(email))
		password, displayName := rest, ""
		if j := strings.LastIndex(rest, ":"); j >= 0 {
			password, displayName = rest[:j], rest[j+1:]
		}
		if email == "" || password == "" {
			return nil, fmt.Errorf("ADMIN_ACCOUNTS entry %d: email and password are required", i+1)
		}
		if seen[email] {
			return nil, fmt.Errorf("ADMIN_ACCOUNTS entry %d: duplicate email", i+1)
		}
		seen[email] = true

		name := "Administrator"
		if strings.TrimSpace(displayName) != "" {
			name = strings.TrimSpace(displayName)
		}

		accounts = append(accounts, models.AdminAccount{Email: email, Password: password, Name: name})
	}

	return accounts, nil
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the DB_* parts.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(raw, sep string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(raw, sep) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return splitList(getEnv("ALLOWED_ORIGINS", ""), ",")
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
