// Package config provides configuration management for the alert engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Instrument    InstrumentConfig   `mapstructure:"instrument"`
	Engine        EngineConfig       `mapstructure:"engine"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Credentials   Credentials        `mapstructure:"-"` // Loaded separately
}

// InstrumentConfig identifies the index being watched.
type InstrumentConfig struct {
	Symbol          string `mapstructure:"symbol"`
	SecurityID      string `mapstructure:"security_id"`
	ExchangeSegment string `mapstructure:"exchange_segment"`
}

// EngineConfig holds evaluation-cycle parameters.
type EngineConfig struct {
	RefreshSeconds    int     `mapstructure:"refresh_seconds"`
	Timeframes        []int   `mapstructure:"timeframes"` // minutes
	VOBSensitivity    int     `mapstructure:"vob_sensitivity"`
	ProximityPercent  float64 `mapstructure:"proximity_percent"`
	RecencyMinutes    int     `mapstructure:"recency_minutes"`
	RetentionHours    int     `mapstructure:"retention_hours"`
	HistoryDays       int     `mapstructure:"history_days"`
	MinSeriesForZones int     `mapstructure:"min_series_for_zones"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// Credentials holds market-data API credentials.
type Credentials struct {
	Dhan DhanCredentials `mapstructure:"dhan"`
}

// DhanCredentials holds DhanHQ API credentials.
type DhanCredentials struct {
	AccessToken string `mapstructure:"access_token"`
	ClientID    string `mapstructure:"client_id"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/nifty-alerts"
	}
	return filepath.Join(home, ".config", "nifty-alerts")
}

// DBPath returns the SQLite database path inside the given config
// directory, falling back to the default directory when empty.
func DBPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "alerts.db")
}

// DefaultDBPath returns the default SQLite database path.
func DefaultDBPath() string {
	return DBPath("")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setEngineDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := createTemplateConfig(configDir); werr != nil {
				return werr
			}
			// Fall through to defaults so a fresh install still runs.
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setEngineDefaults(v *viper.Viper) {
	v.SetDefault("instrument.symbol", "NIFTY 50")
	v.SetDefault("instrument.security_id", "13")
	v.SetDefault("instrument.exchange_segment", "IDX_I")
	v.SetDefault("engine.refresh_seconds", 25)
	v.SetDefault("engine.timeframes", []int{1, 3, 5, 15})
	v.SetDefault("engine.vob_sensitivity", 5)
	v.SetDefault("engine.proximity_percent", 0.5)
	v.SetDefault("engine.recency_minutes", 5)
	v.SetDefault("engine.retention_hours", 72)
	v.SetDefault("engine.history_days", 3)
	v.SetDefault("engine.min_series_for_zones", 50)
	v.SetDefault("notifications.enabled", true)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DHAN_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Dhan.AccessToken = v
	}
	if v := os.Getenv("DHAN_CLIENT_ID"); v != "" {
		cfg.Credentials.Dhan.ClientID = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv("ALERT_REFRESH_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.RefreshSeconds = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Instrument.SecurityID == "" {
		return fmt.Errorf("instrument.security_id must be set")
	}
	if c.Engine.RefreshSeconds < 25 || c.Engine.RefreshSeconds > 120 {
		return fmt.Errorf("engine.refresh_seconds must be between 25 and 120")
	}
	if c.Engine.VOBSensitivity < 1 {
		return fmt.Errorf("engine.vob_sensitivity must be >= 1")
	}
	if c.Engine.ProximityPercent <= 0 {
		return fmt.Errorf("engine.proximity_percent must be > 0")
	}
	if c.Engine.RecencyMinutes <= 0 {
		return fmt.Errorf("engine.recency_minutes must be > 0")
	}
	if c.Engine.RetentionHours <= 0 {
		return fmt.Errorf("engine.retention_hours must be > 0")
	}
	if len(c.Engine.Timeframes) == 0 {
		return fmt.Errorf("engine.timeframes must not be empty")
	}
	for _, tf := range c.Engine.Timeframes {
		if tf < 1 {
			return fmt.Errorf("engine.timeframes entries must be >= 1 minute, got %d", tf)
		}
	}
	return nil
}
