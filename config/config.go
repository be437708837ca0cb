package config

import (
	"log"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values consulted at boot. Runtime-mutable
// knobs (hold minutes, worker cadences, discounts) live in the settings
// store; the values here are their boot-time defaults.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB     int    `mapstructure:"REDIS_CACHE_DB"`
	RedisNotifyDB    int    `mapstructure:"REDIS_NOTIFY_QUEUE_DB"`
	SettingsCacheTTL int    `mapstructure:"SETTINGS_CACHE_TTL_SECONDS"`

	// Booking lifecycle defaults (overridable via settings).
	ReservationHoldMinutes         int `mapstructure:"RESERVATION_HOLD_MINUTES"`
	ReservationExpireCheckSeconds  int `mapstructure:"RESERVATION_EXPIRE_CHECK_SECONDS"`
	CleanupCheckSeconds            int `mapstructure:"CLEANUP_CHECK_SECONDS"`
	RemindersCheckSeconds          int `mapstructure:"REMINDERS_CHECK_SECONDS"`
	ReminderLeadMinutes            int `mapstructure:"REMINDER_LEAD_MINUTES"`
	NoShowGraceHours               int `mapstructure:"NO_SHOW_GRACE_HOURS"`
	SlotDurationMinutes            int `mapstructure:"SLOT_DURATION_MINUTES"`
	SameDayLeadMinutes             int `mapstructure:"SAME_DAY_LEAD_MINUTES"`
	ClientCancelLockHours          int `mapstructure:"CLIENT_CANCEL_LOCK_HOURS"`
	ClientRescheduleLockHours      int `mapstructure:"CLIENT_RESCHEDULE_LOCK_HOURS"`
	CalendarMaxDaysAhead           int `mapstructure:"CALENDAR_MAX_DAYS_AHEAD"`
	ScheduleMergeGapMinutes        int `mapstructure:"SCHEDULE_MERGE_GAP_MINUTES"`
	OnlinePaymentDiscountPercent   int `mapstructure:"ONLINE_PAYMENT_DISCOUNT_PERCENT"`

	// Locale / presentation.
	DefaultLanguage  string `mapstructure:"DEFAULT_LANGUAGE"`
	DefaultCurrency  string `mapstructure:"DEFAULT_CURRENCY"`
	BusinessTimezone string `mapstructure:"BUSINESS_TIMEZONE"`

	// HTTP rate limiting, per client IP.
	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int `mapstructure:"RATE_LIMIT_BURST"`

	// Admin ids: comma-separated external messaging ids.
	AdminIDs string `mapstructure:"ADMIN_IDS"`

	// Payment provider.
	StripeKey string `mapstructure:"STRIPE_KEY"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "postgres://localhost:5432/salonbook?sslmode=disable")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_NOTIFY_QUEUE_DB", 1)
	viper.SetDefault("SETTINGS_CACHE_TTL_SECONDS", 60)

	viper.SetDefault("RESERVATION_HOLD_MINUTES", 10)
	viper.SetDefault("RESERVATION_EXPIRE_CHECK_SECONDS", 30)
	viper.SetDefault("CLEANUP_CHECK_SECONDS", 900)
	viper.SetDefault("REMINDERS_CHECK_SECONDS", 60)
	viper.SetDefault("REMINDER_LEAD_MINUTES", 1440)
	viper.SetDefault("NO_SHOW_GRACE_HOURS", 2)
	viper.SetDefault("SLOT_DURATION_MINUTES", 60)
	viper.SetDefault("SAME_DAY_LEAD_MINUTES", 0)
	viper.SetDefault("CLIENT_CANCEL_LOCK_HOURS", 3)
	viper.SetDefault("CLIENT_RESCHEDULE_LOCK_HOURS", 3)
	viper.SetDefault("CALENDAR_MAX_DAYS_AHEAD", 365)
	viper.SetDefault("SCHEDULE_MERGE_GAP_MINUTES", 0)
	viper.SetDefault("ONLINE_PAYMENT_DISCOUNT_PERCENT", 5)

	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("RATE_LIMIT_BURST", 30)

	viper.SetDefault("DEFAULT_LANGUAGE", "uk")
	viper.SetDefault("DEFAULT_CURRENCY", "UAH")
	viper.SetDefault("BUSINESS_TIMEZONE", "Europe/Kyiv")
	viper.SetDefault("ADMIN_IDS", "")
	viper.SetDefault("STRIPE_KEY", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// AdminIDList parses ADMIN_IDS into external messaging ids. Tokens that are
// not integers are skipped; both comma and semicolon separators are accepted.
func AdminIDList() []int64 {
	raw := strings.ReplaceAll(AppConfig.AdminIDs, ";", ",")
	var ids []int64
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
