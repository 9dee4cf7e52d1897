package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
// URL is the externally reachable base URL; the bot token is appended as the path.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// RelayConfig describes where shared contacts are forwarded.
type RelayConfig struct {
	// ChannelID accepts a numeric chat id or a public @username.
	ChannelID     string  `yaml:"channel_id" envconfig:"CHANNEL_ID"`
	RatePerSecond float64 `yaml:"rate_per_second" envconfig:"RELAY_RATE_PER_SECOND"`
	Burst         int     `yaml:"burst" envconfig:"RELAY_BURST"`
	QueueSize     int     `yaml:"queue_size" envconfig:"RELAY_QUEUE_SIZE"`
}

// FlowConfig tunes the conversation flows.
type FlowConfig struct {
	GetInfoCooldownMS int `yaml:"getinfo_cooldown_ms" envconfig:"GETINFO_COOLDOWN_MS"`
	FetchDelayMS      int `yaml:"fetch_delay_ms" envconfig:"FETCH_DELAY_MS"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
	Path    string `yaml:"path" envconfig:"METRICS_PATH"`
}

// DatabaseConfig holds the optional journal database connection settings.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"DB_ENABLED"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir defaults to ./migrations relative to the working directory.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// DSN returns the lib/pq keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// URL returns the postgres:// form expected by golang-migrate.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// Dir and File together enable a log file next to stdout.
	Dir  string `yaml:"dir" envconfig:"LOG_DIR"`
	File string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	defaultPort              = 5000
	defaultListen            = "0.0.0.0"
	defaultGetInfoCooldownMS = 5000
	defaultFetchDelayMS      = 2000
	defaultRelayRate         = 1.0
	defaultRelayBurst        = 5
	defaultRelayQueue        = 64
	defaultMetricsPath       = "/metrics"
)

// Config aggregates the bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Relay    RelayConfig    `yaml:"relay"`
	Flow     FlowConfig     `yaml:"flow"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from an optional YAML file and environment variables.
// An empty path means environment only.
func Load(path string) (*Config, error) {
	cfg := Config{Metrics: MetricsConfig{Enabled: true}}

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

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}
	if strings.TrimSpace(cfg.Relay.ChannelID) == "" {
		return fmt.Errorf("relay.channel_id is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeWebhook
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	if strings.TrimSpace(cfg.Webhook.Listen) == "" {
		cfg.Webhook.Listen = defaultListen
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port == 0 {
			cfg.Webhook.Port = defaultPort
		}
		if cfg.Webhook.Port < 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
		if cfg.Webhook.Port < 0 {
			return fmt.Errorf("webhook.port must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	cfg.Webhook.URL = strings.TrimRight(strings.TrimSpace(cfg.Webhook.URL), "/")

	if cfg.Flow.GetInfoCooldownMS == 0 {
		cfg.Flow.GetInfoCooldownMS = defaultGetInfoCooldownMS
	}
	if cfg.Flow.GetInfoCooldownMS < 0 {
		return fmt.Errorf("flow.getinfo_cooldown_ms must be > 0")
	}
	if cfg.Flow.FetchDelayMS < 0 {
		return fmt.Errorf("flow.fetch_delay_ms must be >= 0")
	}
	if cfg.Flow.FetchDelayMS == 0 {
		cfg.Flow.FetchDelayMS = defaultFetchDelayMS
	}

	if cfg.Relay.RatePerSecond <= 0 {
		cfg.Relay.RatePerSecond = defaultRelayRate
	}
	if cfg.Relay.Burst <= 0 {
		cfg.Relay.Burst = defaultRelayBurst
	}
	if cfg.Relay.QueueSize <= 0 {
		cfg.Relay.QueueSize = defaultRelayQueue
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		cfg.Metrics.Path = "/" + cfg.Metrics.Path
	}

	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required when database is enabled")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	}
	return nil
}

// GetInfoCooldown returns the /getinfo cooldown window.
func (c *Config) GetInfoCooldown() time.Duration {
	return time.Duration(c.Flow.GetInfoCooldownMS) * time.Millisecond
}

// FetchDelay returns the artificial lookup delay.
func (c *Config) FetchDelay() time.Duration {
	return time.Duration(c.Flow.FetchDelayMS) * time.Millisecond
}

// WebhookPath is the HTTP path Telegram posts updates to.
func (c *Config) WebhookPath() string {
	return "/" + c.Telegram.Token
}

// WebhookPublicURL is the URL registered with setWebhook.
func (c *Config) WebhookPublicURL() string {
	return c.Webhook.URL + c.WebhookPath()
}

// ListenAddr is the address of the HTTP surface. Empty when no port is configured.
func (c *Config) ListenAddr() string {
	if c.Webhook.Port <= 0 {
		return ""
	}
	return c.Webhook.Listen + ":" + strconv.Itoa(c.Webhook.Port)
}
