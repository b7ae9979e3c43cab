package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"` // sqlite, postgres or memory
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Sources struct {
		Primary         string        `yaml:"primary"`    // yahoo or alphavantage
		Technicals      string        `yaml:"technicals"` // alphavantage or chart
		Timeout         time.Duration `yaml:"timeout"`
		FinnhubKey      string        `yaml:"finnhub_key"`
		AlphaVantageKey string        `yaml:"alpha_vantage_key"`
		AlphaVantageRPM int           `yaml:"alpha_vantage_rpm"`
	} `yaml:"sources"`
	LLM struct {
		Provider          string `yaml:"provider"` // claude or gemini
		Model             string `yaml:"model"`
		AnthropicKey      string `yaml:"anthropic_key"`
		GeminiKey         string `yaml:"gemini_key"`
		ChatMaxTokens     int    `yaml:"chat_max_tokens"`
		BriefingMaxTokens int    `yaml:"briefing_max_tokens"`
	} `yaml:"llm"`
	Voice struct {
		OpenAIKey     string `yaml:"openai_key"`
		ElevenLabsKey string `yaml:"elevenlabs_key"`
		VoiceID       string `yaml:"voice_id"`
	} `yaml:"voice"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		BriefingCron string `yaml:"briefing_cron"`
		SummaryCron  string `yaml:"summary_cron"`
	} `yaml:"schedule"`
	Log   LogConfig `yaml:"log"`
	Proxy string    `yaml:"proxy"`
}

// LogConfig controls the level and the optional rotating file sink.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TelegramEnabled reports whether the push channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	for name, dst := range map[string]*string{
		"LISTEN_ADDR":           &c.Server.Listen,
		"DATABASE_DRIVER":       &c.Database.Driver,
		"DATABASE_URL":          &c.Database.DSN,
		"FINNHUB_API_KEY":       &c.Sources.FinnhubKey,
		"ALPHA_VANTAGE_API_KEY": &c.Sources.AlphaVantageKey,
		"ANTHROPIC_API_KEY":     &c.LLM.AnthropicKey,
		"GEMINI_API_KEY":        &c.LLM.GeminiKey,
		"LLM_PROVIDER":          &c.LLM.Provider,
		"LLM_MODEL":             &c.LLM.Model,
		"OPENAI_API_KEY":        &c.Voice.OpenAIKey,
		"ELEVENLABS_API_KEY":    &c.Voice.ElevenLabsKey,
		"ELEVENLABS_VOICE_ID":   &c.Voice.VoiceID,
		"TELEGRAM_BOT_TOKEN":    &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":      &c.Telegram.ChatID,
		"HTTPS_PROXY":           &c.Proxy,
		"LOG_LEVEL":             &c.Log.Level,
		"LOG_FILE":              &c.Log.File,
		"CRON_BRIEFING":         &c.Schedule.BriefingCron,
		"CRON_SUMMARY":          &c.Schedule.SummaryCron,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("SOURCE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Sources.Timeout = d
		}
	}
	if v := os.Getenv("ALPHA_VANTAGE_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sources.AlphaVantageRPM = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "data/desk.db"
	}
	if c.Sources.Primary == "" {
		c.Sources.Primary = "yahoo"
	}
	if c.Sources.Technicals == "" {
		c.Sources.Technicals = "alphavantage"
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = 10 * time.Second
	}
	if c.Sources.AlphaVantageRPM == 0 {
		c.Sources.AlphaVantageRPM = 5
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "claude"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.Model = "gemini-2.5-flash"
		default:
			c.LLM.Model = "claude-sonnet-4-20250514"
		}
	}
	if c.LLM.ChatMaxTokens == 0 {
		c.LLM.ChatMaxTokens = 1024
	}
	if c.LLM.BriefingMaxTokens == 0 {
		c.LLM.BriefingMaxTokens = 300
	}
	if c.Voice.VoiceID == "" {
		c.Voice.VoiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if c.Schedule.BriefingCron == "" {
		c.Schedule.BriefingCron = "0 0 7 * * 1-5"
	}
	if c.Schedule.SummaryCron == "" {
		c.Schedule.SummaryCron = "0 0 20 * * 0"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or memory, got %q", c.Database.Driver)
	}
	if c.LLM.Provider != "claude" && c.LLM.Provider != "gemini" {
		return fmt.Errorf("llm.provider must be claude or gemini, got %q", c.LLM.Provider)
	}
	if c.Sources.Timeout <= 0 {
		return fmt.Errorf("sources.timeout must be positive")
	}
	if c.Sources.Primary != "yahoo" && c.Sources.Primary != "alphavantage" {
		return fmt.Errorf("sources.primary must be yahoo or alphavantage, got %q", c.Sources.Primary)
	}
	if c.Sources.Technicals != "alphavantage" && c.Sources.Technicals != "chart" {
		return fmt.Errorf("sources.technicals must be alphavantage or chart, got %q", c.Sources.Technicals)
	}
	return nil
}
