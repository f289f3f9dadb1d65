package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingToken is returned when the selected platform has no credentials configured.
	ErrMissingToken = errors.New("config: authentication token is required")
	// ErrMissingStoragePath is returned when no storage location is configured.
	ErrMissingStoragePath = errors.New("config: storage location is required")
)

const (
	// PlatformDiscord binds the dialogue to a Discord gateway session.
	PlatformDiscord = "discord"
	// PlatformTelegram binds the dialogue to the Telegram Bot API.
	PlatformTelegram = "telegram"
	// PlatformSlack binds the dialogue to a Slack Socket Mode connection.
	PlatformSlack = "slack"
)

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// DriverSQLite stores data in a single file at Storage.Path.
	DriverSQLite = "sqlite"
	// DriverPostgres stores data in the database addressed by Storage.DSN.
	DriverPostgres = "postgres"
)

const (
	// DefaultTrigger is the message body that starts the director dialogue.
	DefaultTrigger = "!director"
	// DefaultPhaseTimeout bounds each waiting phase of a dialogue.
	DefaultPhaseTimeout = 3 * time.Minute
	// DefaultDedupWindow is how long a handled trigger message id is remembered.
	DefaultDedupWindow = 10 * time.Minute
)

// DiscordConfig holds Discord gateway credentials.
type DiscordConfig struct {
	Token string `yaml:"token" envconfig:"DISCORD_TOKEN"`
}

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies Telegram webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// SlackConfig holds Slack Socket Mode credentials.
type SlackConfig struct {
	BotToken string `yaml:"bot_token" envconfig:"SLACK_BOT_TOKEN"`
	AppToken string `yaml:"app_token" envconfig:"SLACK_APP_TOKEN"`
}

// StorageConfig locates the persistent store opened once at startup.
type StorageConfig struct {
	Driver         string `yaml:"driver" envconfig:"DB_DRIVER"`
	Path           string `yaml:"path" envconfig:"DB_FILE"`
	DSN            string `yaml:"dsn" envconfig:"DB_DSN"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// OptionConfig describes one entry of the selection menu.
type OptionConfig struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
	Icon  string `yaml:"icon"`
}

// ActionConfig describes one button of the action row.
type ActionConfig struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

// DialogueConfig tunes the selection-then-action dialogue.
// Empty Options/Actions fall back to the built-in director catalog.
type DialogueConfig struct {
	Trigger          string         `yaml:"trigger" envconfig:"DIALOGUE_TRIGGER"`
	SelectionTimeout time.Duration  `yaml:"selection_timeout" envconfig:"DIALOGUE_SELECTION_TIMEOUT"`
	ActionTimeout    time.Duration  `yaml:"action_timeout" envconfig:"DIALOGUE_ACTION_TIMEOUT"`
	DedupWindow      time.Duration  `yaml:"dedup_window" envconfig:"DIALOGUE_DEDUP_WINDOW"`
	Options          []OptionConfig `yaml:"options" ignored:"true"`
	Actions          []ActionConfig `yaml:"actions" ignored:"true"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// Config aggregates the configuration of the bot process.
type Config struct {
	Platform string         `yaml:"platform" envconfig:"BOT_PLATFORM"`
	Discord  DiscordConfig  `yaml:"discord"`
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Slack    SlackConfig    `yaml:"slack"`
	Storage  StorageConfig  `yaml:"storage"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from an optional YAML file and environment variables.
// An empty path skips the file and relies on the environment alone.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorage is Load for tools that only touch the database: platform
// credentials are neither required nor validated.
func LoadStorage(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := normalizeStorage(&cfg.Storage); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	platform := strings.ToLower(strings.TrimSpace(cfg.Platform))
	if platform == "" {
		platform = PlatformDiscord
	}
	switch platform {
	case PlatformDiscord:
		if strings.TrimSpace(cfg.Discord.Token) == "" {
			return fmt.Errorf("%w: discord.token (DISCORD_TOKEN)", ErrMissingToken)
		}
	case PlatformTelegram:
		if strings.TrimSpace(cfg.Telegram.Token) == "" {
			return fmt.Errorf("%w: telegram.token (BOT_TOKEN)", ErrMissingToken)
		}
		if err := normalizeTelegram(cfg); err != nil {
			return err
		}
	case PlatformSlack:
		if strings.TrimSpace(cfg.Slack.BotToken) == "" || strings.TrimSpace(cfg.Slack.AppToken) == "" {
			return fmt.Errorf("%w: slack.bot_token and slack.app_token (SLACK_BOT_TOKEN, SLACK_APP_TOKEN)", ErrMissingToken)
		}
	default:
		return fmt.Errorf("invalid platform %q; allowed: discord, telegram, slack", cfg.Platform)
	}
	cfg.Platform = platform

	if err := normalizeStorage(&cfg.Storage); err != nil {
		return err
	}
	normalizeDialogue(&cfg.Dialogue)
	return nil
}

func normalizeTelegram(cfg *Config) error {
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizeStorage(s *StorageConfig) error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" || driver == "sqlite3" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverSQLite:
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("%w: storage.path (DB_FILE)", ErrMissingStoragePath)
		}
	case DriverPostgres:
		if strings.TrimSpace(s.DSN) == "" {
			return fmt.Errorf("%w: storage.dsn (DB_DSN)", ErrMissingStoragePath)
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: sqlite, postgres", s.Driver)
	}
	s.Driver = driver
	if s.MaxConnections <= 0 {
		s.MaxConnections = 1
		if driver == DriverPostgres {
			s.MaxConnections = 4
		}
	}
	return nil
}

func normalizeDialogue(d *DialogueConfig) {
	if d.Trigger == "" {
		d.Trigger = DefaultTrigger
	}
	if d.SelectionTimeout <= 0 {
		d.SelectionTimeout = DefaultPhaseTimeout
	}
	if d.ActionTimeout <= 0 {
		d.ActionTimeout = DefaultPhaseTimeout
	}
	if d.DedupWindow <= 0 {
		d.DedupWindow = DefaultDedupWindow
	}
}
