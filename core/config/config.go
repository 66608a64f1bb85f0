package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// SendTimeoutSeconds bounds a single outbound API call.
	SendTimeoutSeconds int `yaml:"send_timeout_seconds" envconfig:"TELEGRAM_SEND_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format    string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder string `yaml:"keys_order"`
	Dir       string `yaml:"dir"`
	BotFile   string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// BotConfig carries school specific bot settings.
type BotConfig struct {
	Username       string `yaml:"username" envconfig:"BOT_USERNAME"`
	DefaultLang    string `yaml:"default_lang" envconfig:"DEFAULT_LANG"`
	PaymentDetails string `yaml:"payment_details" envconfig:"PAYMENT_DETAILS"`
	// Workers bounds the number of updates processed concurrently.
	Workers int `yaml:"workers" envconfig:"BOT_WORKERS"`
}

// AdminsConfig lists chat ids receiving support questions and lead alerts.
type AdminsConfig struct {
	ChatID  int64  `yaml:"chat_id" envconfig:"ADMIN_CHAT_ID"`
	ChatIDs IDList `yaml:"chat_ids" envconfig:"ADMIN_CHAT_IDS"`
}

// IDs merges the single and list forms into a sorted set of positive ids.
func (a AdminsConfig) IDs() []int64 {
	all := append(IDList{a.ChatID}, a.ChatIDs...)
	return all.Normalized()
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir is resolved relative to the working directory when not absolute.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// StorageConfig selects the domain storage backend.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
}

// HTTPConfig configures the lead intake and admin API.
type HTTPConfig struct {
	Listen         string   `yaml:"listen" envconfig:"HTTP_LISTEN"`
	AdminKey       string   `yaml:"admin_key" envconfig:"HTTP_ADMIN_KEY"`
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"HTTP_ALLOWED_ORIGINS"`
}

// DedupConfig tunes duplicate suppression and session lifetime.
type DedupConfig struct {
	TTLSeconds         int `yaml:"ttl_seconds" envconfig:"DEDUP_TTL_SECONDS"`
	StartCooldownMS    int `yaml:"start_cooldown_ms" envconfig:"START_COOLDOWN_MS"`
	SessionIdleMinutes int `yaml:"session_idle_minutes" envconfig:"SESSION_IDLE_MINUTES"`
}

// BroadcastConfig tunes fan-out pacing.
type BroadcastConfig struct {
	PageSize       int `yaml:"page_size" envconfig:"BROADCAST_PAGE_SIZE"`
	SuccessDelayMS int `yaml:"success_delay_ms" envconfig:"BROADCAST_SUCCESS_DELAY_MS"`
	FailureDelayMS int `yaml:"failure_delay_ms" envconfig:"BROADCAST_FAILURE_DELAY_MS"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StorageMemory keeps domain rows in process memory.
	StorageMemory = "memory"
	// StoragePostgres stores domain rows in PostgreSQL.
	StoragePostgres = "postgres"
)

// Config aggregates the application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	Bot       BotConfig       `yaml:"bot"`
	Admins    AdminsConfig    `yaml:"admins"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	HTTP      HTTPConfig      `yaml:"http"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

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
	if cfg.Telegram.SendTimeoutSeconds <= 0 {
		cfg.Telegram.SendTimeoutSeconds = 10
	}

	cfg.Bot.Username = strings.TrimPrefix(strings.TrimSpace(cfg.Bot.Username), "@")
	if cfg.Bot.Username == "" {
		cfg.Bot.Username = "boxing_school_bot"
	}
	lang := strings.ToLower(strings.TrimSpace(cfg.Bot.DefaultLang))
	switch lang {
	case "":
		lang = "ru"
	case "ru", "uz":
	default:
		return fmt.Errorf("invalid bot.default_lang %q; allowed: ru, uz", cfg.Bot.DefaultLang)
	}
	cfg.Bot.DefaultLang = lang
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}

	cfg.Admins.ChatIDs = IDList(cfg.Admins.IDs())

	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = StoragePostgres
	}
	if driver != StoragePostgres && driver != StorageMemory {
		return fmt.Errorf("invalid storage.driver %q; allowed: postgres, memory", cfg.Storage.Driver)
	}
	cfg.Storage.Driver = driver
	if driver == StoragePostgres {
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required for postgres storage")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 10
		}
		if cfg.Database.MigrationsDir == "" {
			cfg.Database.MigrationsDir = "migrations"
		}
	}

	if cfg.Dedup.TTLSeconds <= 0 {
		cfg.Dedup.TTLSeconds = 120
	}
	if cfg.Dedup.StartCooldownMS <= 0 {
		cfg.Dedup.StartCooldownMS = 1000
	}
	if cfg.Dedup.SessionIdleMinutes <= 0 {
		cfg.Dedup.SessionIdleMinutes = 60
	}

	if cfg.Broadcast.PageSize <= 0 {
		cfg.Broadcast.PageSize = 1000
	}
	if cfg.Broadcast.SuccessDelayMS <= 0 {
		cfg.Broadcast.SuccessDelayMS = 50
	}
	if cfg.Broadcast.FailureDelayMS <= 0 {
		cfg.Broadcast.FailureDelayMS = 200
	}

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		cfg.HTTP.Listen = ":8080"
	}
	return nil
}

// DedupTTL returns the duplicate suppression window.
func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.Dedup.TTLSeconds) * time.Second
}

// StartCooldown returns the minimum interval between two /start commands of one user.
func (c *Config) StartCooldown() time.Duration {
	return time.Duration(c.Dedup.StartCooldownMS) * time.Millisecond
}

// SessionIdle returns the idle period after which sessions are swept.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.Dedup.SessionIdleMinutes) * time.Minute
}
