package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Listen)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/desk.db", cfg.Database.DSN)
	assert.Equal(t, 10*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, 5, cfg.Sources.AlphaVantageRPM)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, 1024, cfg.LLM.ChatMaxTokens)
	assert.Equal(t, 300, cfg.LLM.BriefingMaxTokens)
	assert.Equal(t, "0 0 7 * * 1-5", cfg.Schedule.BriefingCron)
	assert.Equal(t, "0 0 20 * * 0", cfg.Schedule.SummaryCron)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: ":9000"
database:
  driver: postgres
  dsn: postgres://file
sources:
  timeout: 3s
  technicals: chart
llm:
  provider: gemini
`), 0o644))

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("FINNHUB_API_KEY", "fh")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("DATABASE_DRIVER", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://env", cfg.Database.DSN)
	assert.Equal(t, 3*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, "chart", cfg.Sources.Technicals)
	assert.Equal(t, "fh", cfg.Sources.FinnhubKey)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"memory without dsn", func(c *Config) { c.Database.Driver = "memory"; c.Database.DSN = "" }, true},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gpt" }, false},
		{"negative timeout", func(c *Config) { c.Sources.Timeout = -time.Second }, false},
		{"unknown primary", func(c *Config) { c.Sources.Primary = "bloomberg" }, false},
		{"unknown technicals", func(c *Config) { c.Sources.Technicals = "tradingview" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if tt.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}

func TestTelegramEnabled(t *testing.T) {
	c := &Config{}
	assert.False(t, c.TelegramEnabled())
	c.Telegram.BotToken = "tok"
	assert.False(t, c.TelegramEnabled())
	c.Telegram.ChatID = "42"
	assert.True(t, c.TelegramEnabled())
}
