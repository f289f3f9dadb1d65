package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_PLATFORM", "DISCORD_TOKEN", "BOT_TOKEN", "TELEGRAM_RUN_MODE",
		"SLACK_BOT_TOKEN", "SLACK_APP_TOKEN", "DB_FILE", "DB_DRIVER", "DB_DSN",
		"DIALOGUE_TRIGGER", "DIALOGUE_SELECTION_TIMEOUT", "DIALOGUE_ACTION_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "secret")
	t.Setenv("DB_FILE", "bot.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, PlatformDiscord, cfg.Platform)
	assert.Equal(t, "secret", cfg.Discord.Token)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "bot.db", cfg.Storage.Path)
	assert.Equal(t, DefaultTrigger, cfg.Dialogue.Trigger)
	assert.Equal(t, 180*time.Second, cfg.Dialogue.SelectionTimeout)
	assert.Equal(t, 180*time.Second, cfg.Dialogue.ActionTimeout)
	assert.Equal(t, DefaultDedupWindow, cfg.Dialogue.DedupWindow)
}

func TestLoadMissingToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_FILE", "bot.db")

	_, err := Load("")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestLoadMissingStoragePath(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "secret")

	_, err := Load("")
	require.ErrorIs(t, err, ErrMissingStoragePath)
}

func TestLoadStorageIgnoresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://bot@db:5432/director")

	cfg, err := LoadStorage("")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 4, cfg.Storage.MaxConnections)

	os.Unsetenv("DB_DSN")
	_, err = LoadStorage("")
	require.ErrorIs(t, err, ErrMissingStoragePath)
}

func TestLoadYAMLWithEnvOverlay(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
platform: telegram
telegram:
  token: from-file
storage:
  path: /var/lib/bot.db
dialogue:
  trigger: "!pick"
  selection_timeout: 30s
  options:
    - label: Nolan
      value: nolan
  actions:
    - name: Cut
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("DIALOGUE_ACTION_TIMEOUT", "45s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, PlatformTelegram, cfg.Platform)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "!pick", cfg.Dialogue.Trigger)
	assert.Equal(t, 30*time.Second, cfg.Dialogue.SelectionTimeout)
	assert.Equal(t, 45*time.Second, cfg.Dialogue.ActionTimeout)
	require.Len(t, cfg.Dialogue.Options, 1)
	assert.Equal(t, "nolan", cfg.Dialogue.Options[0].Value)
	require.Len(t, cfg.Dialogue.Actions, 1)
	assert.Equal(t, "Cut", cfg.Dialogue.Actions[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "slack requires both tokens",
			cfg: Config{
				Platform: "slack",
				Slack:    SlackConfig{BotToken: "xoxb"},
				Storage:  StorageConfig{Path: "bot.db"},
			},
			wantErr: ErrMissingToken,
		},
		{
			name: "postgres requires dsn",
			cfg: Config{
				Discord: DiscordConfig{Token: "t"},
				Storage: StorageConfig{Driver: "postgres", Path: "ignored.db"},
			},
			wantErr: ErrMissingStoragePath,
		},
		{
			name: "postgres defaults pool size",
			cfg: Config{
				Discord: DiscordConfig{Token: "t"},
				Storage: StorageConfig{Driver: "Postgres", DSN: "postgres://localhost/bot"},
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
				assert.Equal(t, 4, cfg.Storage.MaxConnections)
			},
		},
		{
			name: "platform is case insensitive",
			cfg: Config{
				Platform: " SLACK ",
				Slack:    SlackConfig{BotToken: "xoxb", AppToken: "xapp"},
				Storage:  StorageConfig{Path: "bot.db"},
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, PlatformSlack, cfg.Platform)
				assert.Equal(t, 1, cfg.Storage.MaxConnections)
			},
		},
		{
			name: "telegram webhook needs url",
			cfg: Config{
				Platform: "telegram",
				Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
				Storage:  StorageConfig{Path: "bot.db"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := Normalize(&cfg)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.check != nil:
				require.NoError(t, err)
				tt.check(t, cfg)
			default:
				require.Error(t, err)
			}
		})
	}
}
