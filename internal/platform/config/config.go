package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Chat identity. Token and bot username are required in IRC mode only;
	// the EventSub webhook mode authenticates with the client credentials
	// group below instead.
	Channel     string `env:"TWITCH_CHANNEL"`
	BotUsername string `env:"TWITCH_BOT_USERNAME"`
	Token       string `env:"TWITCH_TOKEN"`

	// Voting rules.
	Commands          string        `env:"COMMANDS"`
	CommandPrefix     string        `env:"BOT_PREFIX" default:"!"`
	VoteWindow        time.Duration `env:"VOTE_WINDOW" default:"10s"`
	MinVotesThreshold int           `env:"MIN_VOTES_THRESHOLD" default:"1"`

	// Optional backends.
	RedisURL     string `env:"REDIS_URL"`
	DatabaseURL  string `env:"DATABASE_URL"`
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" default:"chatplays.outcomes"`

	// EventSub webhook group: all-or-none. Setting WEBHOOK_CALLBACK_URL
	// switches intake from IRC to EventSub.
	TwitchClientID     string `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret string `env:"TWITCH_CLIENT_SECRET"`
	WebhookCallbackURL string `env:"WEBHOOK_CALLBACK_URL"`
	WebhookSecret      string `env:"WEBHOOK_SECRET"`
	BroadcasterUserID  string `env:"TWITCH_BROADCASTER_ID"`
	BotUserID          string `env:"BOT_USER_ID"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.Channel = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.Channel), "#"))

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"TWITCH_CHANNEL": cfg.Channel,
		"COMMANDS":       cfg.Commands,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.CommandList()) == 0 {
		return errors.New("COMMANDS must contain at least one command")
	}
	if cfg.CommandPrefix == "" {
		return errors.New("BOT_PREFIX must not be empty")
	}
	if cfg.VoteWindow <= 0 {
		return fmt.Errorf("VOTE_WINDOW must be positive, got %s", cfg.VoteWindow)
	}
	if cfg.MinVotesThreshold < 1 {
		return fmt.Errorf("MIN_VOTES_THRESHOLD must be at least 1, got %d", cfg.MinVotesThreshold)
	}

	if cfg.WebhookConfigured() {
		if err := validateWebhookGroup(cfg); err != nil {
			return err
		}
	} else {
		if err := validateIRCMode(cfg); err != nil {
			return err
		}
	}

	if cfg.AppEnv == "production" && cfg.DatabaseURL != "" {
		if err := validateProductionSSL(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	return nil
}

// WebhookConfigured reports whether intake runs through EventSub webhooks
// instead of IRC.
func (c *Config) WebhookConfigured() bool {
	return c.WebhookCallbackURL != "" || c.TwitchClientID != "" || c.TwitchClientSecret != "" ||
		c.WebhookSecret != "" || c.BroadcasterUserID != "" || c.BotUserID != ""
}

// CommandList returns the configured commands split, trimmed and lower-cased.
func (c *Config) CommandList() []string {
	var out []string
	for raw := range strings.SplitSeq(c.Commands, ",") {
		cmd := strings.ToLower(strings.TrimSpace(raw))
		if cmd != "" {
			out = append(out, cmd)
		}
	}
	return out
}

// BrokerList returns the configured Kafka brokers, empty when the relay is
// disabled.
func (c *Config) BrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	var out []string
	for raw := range strings.SplitSeq(c.KafkaBrokers, ",") {
		broker := strings.TrimSpace(raw)
		if broker != "" {
			out = append(out, broker)
		}
	}
	return out
}

func validateIRCMode(cfg *Config) error {
	required := map[string]string{
		"TWITCH_TOKEN":        cfg.Token,
		"TWITCH_BOT_USERNAME": cfg.BotUsername,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	// Twitch IRC rejects bare tokens with "Login authentication failed".
	if !strings.HasPrefix(cfg.Token, "oauth:") {
		return errors.New("TWITCH_TOKEN must start with 'oauth:'")
	}

	return nil
}

func validateWebhookGroup(cfg *Config) error {
	required := map[string]string{
		"TWITCH_CLIENT_ID":      cfg.TwitchClientID,
		"TWITCH_CLIENT_SECRET":  cfg.TwitchClientSecret,
		"WEBHOOK_CALLBACK_URL":  cfg.WebhookCallbackURL,
		"WEBHOOK_SECRET":        cfg.WebhookSecret,
		"TWITCH_BROADCASTER_ID": cfg.BroadcasterUserID,
		"BOT_USER_ID":           cfg.BotUserID,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required when EventSub webhooks are configured", name)
		}
	}

	if len(cfg.WebhookSecret) < 10 || len(cfg.WebhookSecret) > 100 {
		return errors.New("WEBHOOK_SECRET must be between 10 and 100 characters")
	}

	return nil
}

func validateProductionSSL(databaseURL string) error {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	sslmode := strings.ToLower(parsed.Query().Get("sslmode"))
	if sslmode == "disable" || sslmode == "allow" {
		return fmt.Errorf("DATABASE_URL has sslmode=%s which is not allowed in production", sslmode)
	}

	return nil
}
