package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type SchedulerConfig struct {
	Enabled          bool
	DueSchedule      string        // 5-field cron, default midnight
	ReminderSchedule string        // 5-field cron, default 09:00
	ReportSchedule   string        // 5-field cron, default 10:00 on the 1st
	Timeout          time.Duration // per job run
	Concurrency      int           // rules executed in parallel during the due pass
	Timezone         string        // IANA name used for cron and day boundaries

	// HonorNotifyBeforeDays widens the reminder window to each rule's
	// notifyBeforeDays. When false every rule is reminded one day ahead.
	HonorNotifyBeforeDays bool
}

type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string // mailto:email or URL
}

type NotifyConfig struct {
	SMTP               SMTPConfig
	Twilio             TwilioConfig
	VAPID              VAPIDConfig
	Timeout            time.Duration
	MaxAttempts        int
	DefaultCountryCode string
}

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Auth
	JWTSecret string

	// CORS
	AllowedOrigins []string

	Scheduler SchedulerConfig
	AI        AIConfig
	Notify    NotifyConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/wealthapp?sslmode=disable"),
		MigrateOnStart: getBoolEnv("MIGRATE_ON_START", true),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		Scheduler: SchedulerConfig{
			Enabled:               getBoolEnv("SCHEDULER_ENABLED", true),
			DueSchedule:           getEnv("RECURRING_DUE_SCHEDULE", "0 0 * * *"),
			ReminderSchedule:      getEnv("RECURRING_REMINDER_SCHEDULE", "0 9 * * *"),
			ReportSchedule:        getEnv("MONTHLY_REPORT_SCHEDULE", "0 10 1 * *"),
			Timeout:               getDurationEnv("SCHEDULER_TIMEOUT", 10*time.Minute),
			Concurrency:           getIntEnv("SCHEDULER_CONCURRENCY", 4),
			Timezone:              getEnv("SCHEDULER_TIMEZONE", "UTC"),
			HonorNotifyBeforeDays: getBoolEnv("REMINDER_HONOR_NOTIFY_BEFORE_DAYS", true),
		},

		AI: AIConfig{
			APIKey:  os.Getenv("AI_API_KEY"),
			BaseURL: getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("AI_MODEL", "gpt-4o-mini"),
			Timeout: getDurationEnv("AI_TIMEOUT", 30*time.Second),
		},

		Notify: NotifyConfig{
			SMTP: SMTPConfig{
				Host:     os.Getenv("SMTP_HOST"),
				Port:     getIntEnv("SMTP_PORT", 587),
				User:     os.Getenv("SMTP_USER"),
				Password: os.Getenv("SMTP_PASSWORD"),
				From:     getEnv("SMTP_FROM", "alerts@wealthapp.local"),
			},
			Twilio: TwilioConfig{
				AccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
				AuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
				WhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),
			},
			VAPID: VAPIDConfig{
				PublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
				PrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
				Subject:    getEnv("VAPID_SUBJECT", "mailto:alerts@wealthapp.local"),
			},
			Timeout:            getDurationEnv("NOTIFY_TIMEOUT", 20*time.Second),
			MaxAttempts:        getIntEnv("NOTIFY_MAX_ATTEMPTS", 3),
			DefaultCountryCode: getEnv("DEFAULT_PHONE_COUNTRY_CODE", "+91"),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c *SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
