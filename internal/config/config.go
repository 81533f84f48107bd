package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"PositionSentinel/internal/alert"
	"PositionSentinel/internal/health"
	"PositionSentinel/internal/levels"
	"PositionSentinel/internal/signal"
	"PositionSentinel/internal/throttle"
)

// Config holds all application configuration. Component thresholds are
// delegated to the owning packages; unset fields take each package's
// defaults at construction time.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Discord struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"discord"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, rest, mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Market struct {
		IndexSymbol    string `yaml:"index_symbol"`
		RegimeOverride string `yaml:"regime_override"`
	} `yaml:"market"`
	Schedule struct {
		PollCron  string `yaml:"poll_cron"`
		EODCron   string `yaml:"eod_cron"`
		ResetCron string `yaml:"reset_cron"`
	} `yaml:"schedule"`
	Positions struct {
		File string `yaml:"file"`
	} `yaml:"positions"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`

	Levels   levels.Config   `yaml:"levels"`
	Health   health.Config   `yaml:"health"`
	Signal   signal.Config   `yaml:"signal"`
	Alert    alert.Config    `yaml:"alert"`
	Throttle throttle.Config `yaml:"throttle"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
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

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("POSITIONS_FILE"); v != "" {
		cfg.Positions.File = v
	}
	if v := os.Getenv("CRON_POLL"); v != "" {
		cfg.Schedule.PollCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("MARKET_REGIME"); v != "" {
		cfg.Market.RegimeOverride = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.Market.IndexSymbol == "" {
		cfg.Market.IndexSymbol = "SPX500"
	}
	if cfg.Schedule.PollCron == "" {
		// Every 5 minutes during the New York session, Mon-Fri.
		cfg.Schedule.PollCron = "0 */5 9-16 * * 1-5"
	}
	if cfg.Schedule.EODCron == "" {
		cfg.Schedule.EODCron = "0 10 16 * * 1-5"
	}
	if cfg.Schedule.ResetCron == "" {
		cfg.Schedule.ResetCron = "0 0 0 * * *"
	}
	if cfg.Positions.File == "" {
		cfg.Positions.File = "data/positions.yaml"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/position_sentinel.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	hasTelegram := c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
	if !hasTelegram && c.Discord.WebhookURL == "" {
		return fmt.Errorf("at least one notification channel is required (telegram or discord)")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required with telegram.bot_token")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.Positions.File == "" {
		return fmt.Errorf("positions.file is required")
	}
	return nil
}
