package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validYAML = `
source:
  base_url: "https://comune.example.test"
  start_url: "https://comune.example.test/albo"
state:
  provider: sqlite
  sqlite:
    path: "/tmp/albowatch-test.db"
notify:
  provider: noop
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	require.Equal(t, "Mozilla/5.0", cfg.Source.UserAgent)
	require.Equal(t, time.Second, cfg.Source.PageDelay())
	require.Equal(t, 2, cfg.Source.MaxRetries)
	require.Equal(t, 50, cfg.Source.MaxPages)
	require.Equal(t, 5, cfg.Source.MinRowFields)
	require.Equal(t, "processed_data_montecorvino.json", cfg.State.Gist.Filename)
	require.False(t, cfg.Enrichment.Enabled)
	require.Equal(t, 100, cfg.Enrichment.MinTextChars)
	require.Equal(t, "ita", cfg.Enrichment.OCRLanguage)
	require.Equal(t, 2*time.Second, cfg.Notify.DispatchDelay())
	require.Equal(t, 30*time.Minute, cfg.Watch.Interval())
	require.Equal(t, 8080, cfg.Watch.Port)
	require.Equal(t, 45*time.Second, cfg.Enrichment.Summarizer.Timeout())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML+`
watch:
  interval_minutes: 5
  port: 9090
`))
	require.NoError(t, err)

	require.Equal(t, 5*time.Minute, cfg.Watch.Interval())
	require.Equal(t, 9090, cfg.Watch.Port)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("ALBOWATCH_SOURCE_BASE_URL", "https://env.example.test")
	t.Setenv("ALBOWATCH_SOURCE_START_URL", "https://env.example.test/albo")
	t.Setenv("ALBOWATCH_STATE_GIST_ID", "abc123")
	t.Setenv("ALBOWATCH_STATE_GIST_TOKEN", "ghp_secret")
	t.Setenv("ALBOWATCH_NOTIFY_TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("ALBOWATCH_NOTIFY_TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://env.example.test", cfg.Source.BaseURL)
	require.Equal(t, "gist", cfg.State.Provider)
	require.Equal(t, "abc123", cfg.State.Gist.ID)
	require.Equal(t, "ghp_secret", cfg.State.Gist.Token)
	require.Equal(t, "bot-token", cfg.Notify.Telegram.BotToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)
		return cfg
	}

	t.Run("missing start url", func(t *testing.T) {
		cfg := base()
		cfg.Source.StartURL = ""
		require.ErrorContains(t, cfg.Validate(), "source.start_url")
	})

	t.Run("missing base url", func(t *testing.T) {
		cfg := base()
		cfg.Source.BaseURL = ""
		require.ErrorContains(t, cfg.Validate(), "source.base_url")
	})

	t.Run("row fields too low", func(t *testing.T) {
		cfg := base()
		cfg.Source.MinRowFields = 3
		require.ErrorContains(t, cfg.Validate(), "min_row_fields")
	})

	t.Run("gist without credentials", func(t *testing.T) {
		cfg := base()
		cfg.State.Provider = "gist"
		require.ErrorContains(t, cfg.Validate(), "state.gist.id")
	})

	t.Run("gcs without bucket", func(t *testing.T) {
		cfg := base()
		cfg.State.Provider = "gcs"
		require.ErrorContains(t, cfg.Validate(), "state.gcs.bucket")
	})

	t.Run("unknown state provider", func(t *testing.T) {
		cfg := base()
		cfg.State.Provider = "redis"
		require.ErrorContains(t, cfg.Validate(), "unknown state provider")
	})

	t.Run("telegram without credentials", func(t *testing.T) {
		cfg := base()
		cfg.Notify.Provider = "telegram"
		require.ErrorContains(t, cfg.Validate(), "notify.telegram.bot_token")
	})

	t.Run("pubsub without project", func(t *testing.T) {
		cfg := base()
		cfg.Notify.Provider = "pubsub"
		require.ErrorContains(t, cfg.Validate(), "notify.pubsub.project_id")
	})

	t.Run("unknown notify provider", func(t *testing.T) {
		cfg := base()
		cfg.Notify.Provider = "smtp"
		require.ErrorContains(t, cfg.Validate(), "unknown notify provider")
	})

	t.Run("enrichment without api key", func(t *testing.T) {
		cfg := base()
		cfg.Enrichment.Enabled = true
		require.ErrorContains(t, cfg.Validate(), "enrichment.summarizer.api_key")
	})

	t.Run("nonpositive watch interval", func(t *testing.T) {
		cfg := base()
		cfg.Watch.IntervalMin = 0
		require.ErrorContains(t, cfg.Validate(), "watch.interval_minutes")
	})
}
