package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

const sampleConfig = `
symbols:
  - "005930"
  - "000660"
  - "005930"
strategy: golden_cross
dry_run: false
max_position_size: 2000000
tick_interval_seconds: 30
daily_summary_at: "16:30"
`

func setCredentials(t *testing.T) {
	t.Setenv("KIWOOM_APP_KEY", "key")
	t.Setenv("KIWOOM_APP_SECRET", "secret")
	t.Setenv("KIWOOM_ACCOUNT_NUMBER", "1234567890")
}

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadBotConfig(t *testing.T) {
	t.Run("reads the file and the environment", func(t *testing.T) {
		// arrange
		setCredentials(t)
		t.Setenv("BOT_CONFIG_FILE", writeConfig(t, sampleConfig))
		t.Setenv("KIWOOM_BASE_URL", "https://api.kiwoom.com/")
		t.Setenv("DRY_RUN", "")

		// act
		cfg, err := LoadBotConfig()

		// assert
		require.NoError(t, err)
		assert.Equal(t, []string{"005930", "000660"}, cfg.Symbols())
		assert.Equal(t, "golden_cross", cfg.Strategy)
		assert.False(t, cfg.Trading.DryRun)
		assert.Equal(t, int64(2000000), cfg.Trading.MaxPositionSize)
		assert.Equal(t, eventmodels.DefaultMaxTotalExposure, cfg.Trading.MaxTotalExposure)
		assert.Equal(t, 30*time.Second, cfg.Schedule.TickInterval)
		assert.Equal(t, eventmodels.ClockTime{Hour: 16, Minute: 30}, cfg.Schedule.DailySummaryAt)
		assert.Equal(t, "https://api.kiwoom.com", cfg.Broker.BaseURL)
		assert.Equal(t, "1234567890", cfg.Broker.AccountNumber)
	})

	t.Run("DRY_RUN overrides the file", func(t *testing.T) {
		// arrange
		setCredentials(t)
		t.Setenv("BOT_CONFIG_FILE", writeConfig(t, sampleConfig))
		t.Setenv("DRY_RUN", "true")

		// act
		cfg, err := LoadBotConfig()

		// assert
		require.NoError(t, err)
		assert.True(t, cfg.Trading.DryRun)
	})

	t.Run("invalid DRY_RUN", func(t *testing.T) {
		setCredentials(t)
		t.Setenv("BOT_CONFIG_FILE", writeConfig(t, sampleConfig))
		t.Setenv("DRY_RUN", "maybe")

		_, err := LoadBotConfig()

		assert.Error(t, err)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("BOT_CONFIG_FILE", writeConfig(t, sampleConfig))
		t.Setenv("KIWOOM_APP_KEY", "")
		t.Setenv("KIWOOM_APP_SECRET", "")
		t.Setenv("KIWOOM_ACCOUNT_NUMBER", "")

		_, err := LoadBotConfig()

		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		setCredentials(t)
		t.Setenv("BOT_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := LoadBotConfig()

		assert.Error(t, err)
	})
}

func TestParseBotConfigYAML(t *testing.T) {
	_, err := ParseBotConfigYAML([]byte("symbols: [unterminated"))
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("BOT_TEST_VALUE", "42")
	t.Setenv("BOT_TEST_EMPTY", "  ")

	value, err := GetEnv("BOT_TEST_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "42", value)

	_, err = GetEnv("BOT_TEST_EMPTY")
	assert.Error(t, err)

	assert.Equal(t, "fallback", GetEnvOrDefault("BOT_TEST_EMPTY", "fallback"))
}
