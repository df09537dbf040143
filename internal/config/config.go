package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrConfigurationMissing is returned when a required setting is absent
var ErrConfigurationMissing = errors.New("required configuration missing")

// MinHTTPTimeout is the shortest accepted provider request timeout
const MinHTTPTimeout = time.Second

// Config holds all application configuration
type Config struct {
	ServiceName string
	LogLevel    string
	Telegram    TelegramConfig
	Octopus     Octopus
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
}

// TelegramConfig holds bot settings
type TelegramConfig struct {
	Token          string
	AllowedChatIDs []int64
	PollTimeout    int
}

// Octopus holds the provider account identity and API settings
type Octopus struct {
	APIKey        string
	MPAN          string
	SerialNumber  string
	AccountNumber string
	BaseURL       string
	HTTPTimeout   time.Duration
	PageSize      int
}

// DatabaseConfig holds the optional report log database settings
type DatabaseConfig struct {
	URL string
}

// RabbitMQConfig holds the optional report event publisher settings
type RabbitMQConfig struct {
	URL              string
	ReportExchange   string
	ReportRoutingKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration through v, binding it to the environment
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	allowed, err := parseChatIDs(v.GetString("TELEGRAM_ALLOWED_CHAT_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_ALLOWED_CHAT_IDS is invalid: %w", err)
	}

	cfg := &Config{
		ServiceName: v.GetString("SERVICE_NAME"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Telegram: TelegramConfig{
			Token:          v.GetString("TELEGRAM_BOT_TOKEN"),
			AllowedChatIDs: allowed,
			PollTimeout:    v.GetInt("TELEGRAM_POLL_TIMEOUT"),
		},
		Octopus: Octopus{
			APIKey:        v.GetString("OCTOPUS_API_KEY"),
			MPAN:          v.GetString("OCTOPUS_MPAN"),
			SerialNumber:  v.GetString("OCTOPUS_SERIAL_NUMBER"),
			AccountNumber: v.GetString("OCTOPUS_ACCOUNT_NUMBER"),
			BaseURL:       strings.TrimRight(v.GetString("OCTOPUS_BASE_URL"), "/"),
			HTTPTimeout:   v.GetDuration("OCTOPUS_HTTP_TIMEOUT"),
			PageSize:      v.GetInt("OCTOPUS_PAGE_SIZE"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("DATABASE_URL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:              v.GetString("RABBITMQ_URL"),
			ReportExchange:   v.GetString("RABBITMQ_REPORT_EXCHANGE"),
			ReportRoutingKey: v.GetString("RABBITMQ_REPORT_ROUTING_KEY"),
		},
	}

	// Validate required fields
	required := []struct {
		key   string
		value string
	}{
		{"OCTOPUS_API_KEY", cfg.Octopus.APIKey},
		{"OCTOPUS_MPAN", cfg.Octopus.MPAN},
		{"OCTOPUS_SERIAL_NUMBER", cfg.Octopus.SerialNumber},
		{"OCTOPUS_ACCOUNT_NUMBER", cfg.Octopus.AccountNumber},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%w: %s is required but not set in environment variables", ErrConfigurationMissing, r.key)
		}
	}

	if cfg.Octopus.HTTPTimeout < MinHTTPTimeout {
		return nil, fmt.Errorf("OCTOPUS_HTTP_TIMEOUT must be at least %s and carry a unit (e.g. 30s), got %s", MinHTTPTimeout, cfg.Octopus.HTTPTimeout)
	}

	if cfg.Octopus.PageSize <= 0 {
		return nil, fmt.Errorf("OCTOPUS_PAGE_SIZE must be positive, got %d", cfg.Octopus.PageSize)
	}

	return cfg, nil
}

// RequireTelegram checks the settings only the bot needs. The one-shot
// report command never talks to Telegram and skips it.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN is required but not set in environment variables", ErrConfigurationMissing)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "octobot")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TELEGRAM_POLL_TIMEOUT", 60)
	v.SetDefault("OCTOPUS_BASE_URL", "https://api.octopus.energy/v1")
	v.SetDefault("OCTOPUS_HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("OCTOPUS_PAGE_SIZE", 1500)
	v.SetDefault("RABBITMQ_REPORT_EXCHANGE", "octobot.reports.exchange")
	v.SetDefault("RABBITMQ_REPORT_ROUTING_KEY", "report.generated")
}

func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chat id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
