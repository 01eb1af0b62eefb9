// Package config loads and validates watcher configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration loaded via Viper.
type Config struct {
	Source     SourceConfig     `mapstructure:"source"`
	State      StateConfig      `mapstructure:"state"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SourceConfig governs the register traversal.
type SourceConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	StartURL     string `mapstructure:"start_url"`
	UserAgent    string `mapstructure:"user_agent"`
	PageDelayMs  int    `mapstructure:"page_delay_ms"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSec   int    `mapstructure:"timeout_seconds"`
	MaxPages     int    `mapstructure:"max_pages"`
	MinRowFields int    `mapstructure:"min_row_fields"`
}

// StateConfig selects and configures the seen-store provider.
type StateConfig struct {
	Provider string `mapstructure:"provider"`

	Gist   GistConfig   `mapstructure:"gist"`
	GCS    GCSConfig    `mapstructure:"gcs"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// GistConfig holds GitHub Gist credentials for the default seen-store.
type GistConfig struct {
	ID       string `mapstructure:"id"`
	Token    string `mapstructure:"token"`
	Filename string `mapstructure:"filename"`
}

// GCSConfig points the seen-store at a Cloud Storage object.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Object string `mapstructure:"object"`
}

// SQLiteConfig locates the local seen-store database.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// EnrichmentConfig controls the attachment extraction and summarization chain.
type EnrichmentConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	MinTextChars int    `mapstructure:"min_text_chars"`
	OCRLanguage  string `mapstructure:"ocr_language"`
	TimeoutSec   int    `mapstructure:"timeout_seconds"`

	Summarizer SummarizerConfig `mapstructure:"summarizer"`
}

// SummarizerConfig configures the chat-completions summarization endpoint.
type SummarizerConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_seconds"`
}

// NotifyConfig selects and configures the notification provider.
type NotifyConfig struct {
	Provider        string `mapstructure:"provider"`
	DispatchDelayMs int    `mapstructure:"dispatch_delay_ms"`

	Telegram TelegramConfig `mapstructure:"telegram"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
}

// TelegramConfig holds Bot API credentials.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// PubSubConfig holds metadata for the Pub/Sub notification provider.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// WatchConfig controls the long-running watch mode.
type WatchConfig struct {
	IntervalMin int `mapstructure:"interval_minutes"`
	Port        int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ALBOWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys without a meaningful default still get registered so that
	// environment-only overrides survive Unmarshal.
	v.SetDefault("source.base_url", "")
	v.SetDefault("source.start_url", "")
	v.SetDefault("state.gist.id", "")
	v.SetDefault("state.gist.token", "")
	v.SetDefault("state.gcs.bucket", "")
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("notify.pubsub.project_id", "")
	v.SetDefault("notify.pubsub.topic_name", "")
	v.SetDefault("enrichment.summarizer.api_key", "")

	v.SetDefault("source.user_agent", "Mozilla/5.0")
	v.SetDefault("source.page_delay_ms", 1000)
	v.SetDefault("source.max_retries", 2)
	v.SetDefault("source.timeout_seconds", 20)
	v.SetDefault("source.max_pages", 50)
	v.SetDefault("source.min_row_fields", 5)
	v.SetDefault("state.provider", "gist")
	v.SetDefault("state.gist.filename", "processed_data_montecorvino.json")
	v.SetDefault("state.gcs.object", "processed_data_montecorvino.json")
	v.SetDefault("state.sqlite.path", "albowatch.db")
	v.SetDefault("enrichment.enabled", false)
	v.SetDefault("enrichment.min_text_chars", 100)
	v.SetDefault("enrichment.ocr_language", "ita")
	v.SetDefault("enrichment.timeout_seconds", 60)
	v.SetDefault("enrichment.summarizer.endpoint", "https://api.openai.com/v1")
	v.SetDefault("enrichment.summarizer.model", "gpt-4o-mini")
	v.SetDefault("enrichment.summarizer.timeout_seconds", 45)
	v.SetDefault("notify.provider", "telegram")
	v.SetDefault("notify.dispatch_delay_ms", 2000)
	v.SetDefault("watch.interval_minutes", 30)
	v.SetDefault("watch.port", 8080)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values. Missing credentials are the only
// errors that abort a run before any work begins.
func (c Config) Validate() error {
	if c.Source.StartURL == "" {
		return fmt.Errorf("source.start_url must be set")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must be set")
	}
	if c.Source.MinRowFields < 5 {
		return fmt.Errorf("source.min_row_fields must be >= 5")
	}

	switch c.State.Provider {
	case "gist":
		if c.State.Gist.ID == "" || c.State.Gist.Token == "" {
			return fmt.Errorf("state provider is 'gist' but state.gist.id or state.gist.token is not set")
		}
	case "gcs":
		if c.State.GCS.Bucket == "" {
			return fmt.Errorf("state provider is 'gcs' but state.gcs.bucket is not set")
		}
	case "sqlite":
		if c.State.SQLite.Path == "" {
			return fmt.Errorf("state provider is 'sqlite' but state.sqlite.path is not set")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown state provider: %s", c.State.Provider)
	}

	switch c.Notify.Provider {
	case "telegram":
		if c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify provider is 'telegram' but notify.telegram.bot_token or notify.telegram.chat_id is not set")
		}
	case "pubsub":
		if c.Notify.PubSub.ProjectID == "" || c.Notify.PubSub.TopicName == "" {
			return fmt.Errorf("notify provider is 'pubsub' but notify.pubsub.project_id or notify.pubsub.topic_name is not set")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown notify provider: %s", c.Notify.Provider)
	}

	if c.Enrichment.Enabled {
		if c.Enrichment.Summarizer.APIKey == "" {
			return fmt.Errorf("enrichment is enabled but enrichment.summarizer.api_key is not set")
		}
		if c.Enrichment.MinTextChars <= 0 {
			return fmt.Errorf("enrichment.min_text_chars must be > 0")
		}
	}

	if c.Watch.IntervalMin <= 0 {
		return fmt.Errorf("watch.interval_minutes must be > 0")
	}
	if c.Watch.Port <= 0 {
		return fmt.Errorf("watch.port must be > 0")
	}
	return nil
}

// PageDelay converts the configured pacing into a duration.
func (c SourceConfig) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMs) * time.Millisecond
}

// Timeout converts the configured fetch timeout into a duration.
func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Timeout converts the summarizer call timeout into a duration.
func (c SummarizerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// DispatchDelay converts the configured dispatch pacing into a duration.
func (c NotifyConfig) DispatchDelay() time.Duration {
	return time.Duration(c.DispatchDelayMs) * time.Millisecond
}

// Interval converts the watch interval into a duration.
func (c WatchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMin) * time.Minute
}
