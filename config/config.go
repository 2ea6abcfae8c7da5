package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB   int    `mapstructure:"REDIS_SESSION_DB"`
	RedisDirectoryDB int    `mapstructure:"REDIS_DIRECTORY_DB"`
	RedisQueueDB     int    `mapstructure:"REDIS_QUEUE_DB"`

	// Backends: "redis" or "memory" for sessions, "mongo" or "mock" for busy intervals,
	// "queue" or "direct" for finalized meeting submission.
	SessionBackend      string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	AvailabilityBackend string        `mapstructure:"AVAILABILITY_BACKEND"`
	SubmitMode          string        `mapstructure:"SUBMIT_MODE"`
	SubmitTimeout       time.Duration `mapstructure:"SUBMIT_TIMEOUT"`
	MeetingTimezone     string        `mapstructure:"MEETING_TIMEZONE"`
	ReminderLead        time.Duration `mapstructure:"REMINDER_LEAD"`

	// LINE Messaging API.
	LineChannelSecret string `mapstructure:"LINE_CHANNEL_SECRET"`
	LineChannelToken  string `mapstructure:"LINE_CHANNEL_TOKEN"`

	// Identity verification links.
	VerifyBaseURL string        `mapstructure:"VERIFY_BASE_URL"`
	VerifySecret  string        `mapstructure:"VERIFY_SECRET"`
	VerifyTTL     time.Duration `mapstructure:"VERIFY_TTL"`

	// SMTP for participant notifications.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// Comma separated list of participant emails known at startup.
	SeedParticipants string `mapstructure:"SEED_PARTICIPANTS"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "meetbot")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_DIRECTORY_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("SESSION_BACKEND", "redis")
	viper.SetDefault("SESSION_TTL", 24*time.Hour)
	viper.SetDefault("AVAILABILITY_BACKEND", "mongo")
	viper.SetDefault("SUBMIT_MODE", "queue")
	viper.SetDefault("SUBMIT_TIMEOUT", 10*time.Second)
	viper.SetDefault("MEETING_TIMEZONE", "Asia/Bangkok")
	viper.SetDefault("REMINDER_LEAD", 30*time.Minute)
	viper.SetDefault("LINE_CHANNEL_SECRET", "")
	viper.SetDefault("LINE_CHANNEL_TOKEN", "")
	viper.SetDefault("VERIFY_BASE_URL", "http://localhost:8080")
	viper.SetDefault("VERIFY_SECRET", "")
	viper.SetDefault("VERIFY_TTL", 30*time.Minute)
	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_FROM", "")
	viper.SetDefault("SEED_PARTICIPANTS", "")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// SeedParticipantList splits SEED_PARTICIPANTS into trimmed, non-empty emails.
func SeedParticipantList() []string {
	var out []string
	for _, p := range strings.Split(AppConfig.SeedParticipants, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MeetingLocation resolves MEETING_TIMEZONE, falling back to UTC.
func MeetingLocation() *time.Location {
	loc, err := time.LoadLocation(AppConfig.MeetingTimezone)
	if err != nil {
		log.Printf("Unknown MEETING_TIMEZONE %q, using UTC", AppConfig.MeetingTimezone)
		return time.UTC
	}
	return loc
}
