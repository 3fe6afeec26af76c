package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration loaded from an optional YAML file and environment variables.
type Config struct {
	Port                    string        `yaml:"port"`
	TwilioAccountSID        string        `yaml:"twilio_account_sid"`
	TwilioAuthToken         string        `yaml:"twilio_auth_token"`
	TwilioWhatsAppNumber    string        `yaml:"twilio_whatsapp_number"`
	TwilioValidateSignature bool          `yaml:"twilio_validate_signature"`
	PublicWebhookURL        string        `yaml:"public_webhook_url"`
	OpenAIAPIKey            string        `yaml:"openai_api_key"`
	DatabaseURL             string        `yaml:"database_url"`
	SQLitePath              string        `yaml:"sqlite_path"`
	TimezoneName            string        `yaml:"local_timezone"`
	ReminderInterval        time.Duration `yaml:"reminder_interval"`
	ReminderMaxAttempts     int           `yaml:"reminder_max_attempts"`
	RedisURL                string        `yaml:"redis_url"`
	SessionTTL              time.Duration `yaml:"session_ttl"`
	LogLevel                string        `yaml:"log_level"`
	LogFormat               string        `yaml:"log_format"`

	LocalTimezone *time.Location `yaml:"-"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Port:                "8080",
		SQLitePath:          "notes.db",
		TimezoneName:        "Local",
		ReminderInterval:    time.Minute,
		ReminderMaxAttempts: 30,
		SessionTTL:          24 * time.Hour,
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// Load reads configuration values and prepares defaults where applicable.
// Values from CONFIG_FILE are applied first, environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.TwilioAccountSID = getenvDefault("TWILIO_ACCOUNT_SID", cfg.TwilioAccountSID)
	cfg.TwilioAuthToken = getenvDefault("TWILIO_AUTH_TOKEN", cfg.TwilioAuthToken)
	cfg.TwilioWhatsAppNumber = getenvDefault("TWILIO_WHATSAPP_NUMBER", cfg.TwilioWhatsAppNumber)
	cfg.TwilioValidateSignature = ParseBoolEnv("TWILIO_VALIDATE_SIGNATURE", cfg.TwilioValidateSignature)
	cfg.PublicWebhookURL = getenvDefault("PUBLIC_WEBHOOK_URL", cfg.PublicWebhookURL)
	cfg.OpenAIAPIKey = getenvDefault("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", cfg.SQLitePath)
	cfg.TimezoneName = getenvDefault("LOCAL_TIMEZONE", cfg.TimezoneName)
	cfg.ReminderInterval = ParseDurationEnv("REMINDER_INTERVAL", cfg.ReminderInterval)
	cfg.ReminderMaxAttempts = ParseIntEnv("REMINDER_MAX_ATTEMPTS", cfg.ReminderMaxAttempts)
	cfg.RedisURL = getenvDefault("REDIS_URL", cfg.RedisURL)
	cfg.SessionTTL = ParseDurationEnv("SESSION_TTL", cfg.SessionTTL)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvDefault("LOG_FORMAT", cfg.LogFormat)

	cfg.resolveTimezone()

	if cfg.ReminderInterval <= 0 {
		return nil, fmt.Errorf("config: REMINDER_INTERVAL must be positive, got %s", cfg.ReminderInterval)
	}
	if cfg.TwilioValidateSignature && cfg.PublicWebhookURL == "" {
		return nil, fmt.Errorf("config: PUBLIC_WEBHOOK_URL is required when TWILIO_VALIDATE_SIGNATURE is set")
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) resolveTimezone() {
	location, err := time.LoadLocation(c.TimezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", c.TimezoneName, err)
		location = time.Local
	}
	c.LocalTimezone = location
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}

// ParseBoolEnv returns the boolean value for an environment variable or the provided default.
func ParseBoolEnv(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as bool: %v", key, value, err)
		return def
	}
	return parsed
}

// ParseDurationEnv returns the duration value for an environment variable or the provided default.
func ParseDurationEnv(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as duration: %v", key, value, err)
		return def
	}
	return parsed
}
