package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	LogLevel slog.Level

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	SQLitePath string

	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioWhatsAppFrom      string
	TwilioValidateSignature bool
	PublicBaseURL           string
	MediaBaseURL            string

	StaffRecipients  []string
	StaffLocale      string
	ChannelRecipient string

	EscalationSchedule string
	EscalationT1       time.Duration
	EscalationT2       time.Duration
	Timezone           string
	DailySummaryAt     string
	ContentPostAt      string
	SessionPurgeAt     string
	MonthlyReportAt    string
	ReportsDir         string
	ReportRetention    time.Duration

	RabbitURL          string
	RabbitContentQueue string

	StaffAPISecret   string
	StaffAPITokenTTL time.Duration
}

// LoadConfig reads the environment, after loading .env if one exists.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var errs []string
	note := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	cfg := Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "orderbot"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "orderbot.db"),

		SessionBackend: getEnv("SESSION_BACKEND", "postgres"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),

		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		MediaBaseURL:       getEnv("MEDIA_BASE_URL", ""),

		StaffRecipients:  getEnvAsList("STAFF_RECIPIENTS"),
		StaffLocale:      getEnv("STAFF_LOCALE", "ru"),
		ChannelRecipient: getEnv("CHANNEL_RECIPIENT", ""),

		EscalationSchedule: getEnv("ESCALATION_SCHEDULE", "@every 1m"),
		Timezone:           getEnv("TIMEZONE", "Asia/Tashkent"),
		DailySummaryAt:     getEnv("DAILY_SUMMARY_AT", "21:00"),
		ContentPostAt:      getEnv("CONTENT_POST_AT", "10:00"),
		SessionPurgeAt:     getEnv("SESSION_PURGE_AT", "03:00"),
		MonthlyReportAt:    getEnv("MONTHLY_REPORT_AT", "23:00"),
		ReportsDir:         getEnv("REPORTS_DIR", "reports"),

		RabbitURL:          getEnv("RABBIT_URL", ""),
		RabbitContentQueue: getEnv("RABBIT_CONTENT_QUEUE", "orderbot.content"),

		StaffAPISecret: getEnv("STAFF_API_SECRET", ""),
	}

	var err error
	cfg.LogLevel, err = getEnvAsLevel("LOG_LEVEL", slog.LevelInfo)
	note(err)
	cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0)
	note(err)
	cfg.SessionTTL, err = getEnvAsDuration("SESSION_TTL", 24*time.Hour)
	note(err)
	cfg.ReportRetention, err = getEnvAsDuration("REPORT_RETENTION", 7*24*time.Hour)
	note(err)
	cfg.EscalationT1, err = getEnvAsDuration("ESCALATION_T1", 15*time.Minute)
	note(err)
	cfg.EscalationT2, err = getEnvAsDuration("ESCALATION_T2", 30*time.Minute)
	note(err)
	cfg.StaffAPITokenTTL, err = getEnvAsDuration("STAFF_API_TOKEN_TTL", 24*time.Hour)
	note(err)
	cfg.TwilioValidateSignature, err = getEnvAsBool("TWILIO_VALIDATE_SIGNATURE", true)
	note(err)

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER: unsupported driver %q", cfg.DBDriver))
	}
	switch cfg.SessionBackend {
	case "postgres", "redis":
	default:
		errs = append(errs, fmt.Sprintf("SESSION_BACKEND: unsupported backend %q", cfg.SessionBackend))
	}
	if cfg.StaffAPISecret == "" {
		errs = append(errs, "STAFF_API_SECRET is required")
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// TwilioEnabled reports whether outbound messages go through Twilio.
func (c Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppFrom != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvAsLevel(key string, fallback slog.Level) (slog.Level, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return level, nil
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
