package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Tickets      TicketsConfig
	Research     ResearchConfig
	Scheduler    SchedulerConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitBytes        int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// TicketsConfig controls ticket lifecycle policy.
type TicketsConfig struct {
	DefaultDueDays    int
	StrictTransitions bool
}

// ResearchConfig configures the retrieval tiers and the page summarizer.
type ResearchConfig struct {
	ProviderURL           string
	ProviderTimeoutSec    int
	ScrapeURL             string
	ScrapeTimeoutSec      int
	SummaryTimeoutSec     int
	UserAgent             string
	DefaultMaxResults     int
	MaxResultsCap         int
	CacheTTLSeconds       int
	MaxAttachmentBytes    int
	SummaryContentLimit   int
	SnippetCharacterLimit int
}

// SchedulerConfig holds cron specs for background jobs.
type SchedulerConfig struct {
	Enabled     bool
	OverdueSpec string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
			BodyLimitBytes:        getEnvAsInt("HTTP_BODY_LIMIT_BYTES", 20<<20),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Tickets: TicketsConfig{
			DefaultDueDays:    getEnvAsInt("TICKETS_DEFAULT_DUE_DAYS", 30),
			StrictTransitions: getEnvAsBool("TICKETS_STRICT_TRANSITIONS", false),
		},
		Research: ResearchConfig{
			ProviderURL:           os.Getenv("RESEARCH_PROVIDER_URL"),
			ProviderTimeoutSec:    getEnvAsInt("RESEARCH_PROVIDER_TIMEOUT_SECONDS", 8),
			ScrapeURL:             getEnv("RESEARCH_SCRAPE_URL", "https://html.duckduckgo.com"),
			ScrapeTimeoutSec:      getEnvAsInt("RESEARCH_SCRAPE_TIMEOUT_SECONDS", 10),
			SummaryTimeoutSec:     getEnvAsInt("RESEARCH_SUMMARY_TIMEOUT_SECONDS", 15),
			UserAgent:             getEnv("RESEARCH_USER_AGENT", defaultUserAgent),
			DefaultMaxResults:     getEnvAsInt("RESEARCH_DEFAULT_MAX_RESULTS", 5),
			MaxResultsCap:         getEnvAsInt("RESEARCH_MAX_RESULTS_CAP", 20),
			CacheTTLSeconds:       getEnvAsInt("RESEARCH_CACHE_TTL_SECONDS", 600),
			MaxAttachmentBytes:    getEnvAsInt("RESEARCH_MAX_ATTACHMENT_BYTES", 15<<20),
			SummaryContentLimit:   getEnvAsInt("RESEARCH_SUMMARY_CONTENT_LIMIT", 1500),
			SnippetCharacterLimit: getEnvAsInt("RESEARCH_SNIPPET_LIMIT", 300),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getEnvAsBool("SCHEDULER_ENABLED", true),
			OverdueSpec: getEnv("SCHEDULER_OVERDUE_SPEC", "*/15 * * * *"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if cfg.Tickets.DefaultDueDays <= 0 {
		return nil, fmt.Errorf("invalid TICKETS_DEFAULT_DUE_DAYS: %d", cfg.Tickets.DefaultDueDays)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns how long search outcomes stay cached.
func (r ResearchConfig) CacheTTL() time.Duration {
	return seconds(r.CacheTTLSeconds)
}

// ProviderTimeout bounds the primary provider tier.
func (r ResearchConfig) ProviderTimeout() time.Duration {
	return seconds(r.ProviderTimeoutSec)
}

// ScrapeTimeout bounds the fallback scrape tier.
func (r ResearchConfig) ScrapeTimeout() time.Duration {
	return seconds(r.ScrapeTimeoutSec)
}

// SummaryTimeout bounds a single page fetch.
func (r ResearchConfig) SummaryTimeout() time.Duration {
	return seconds(r.SummaryTimeoutSec)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
