// Package config provides configuration management for the options cockpit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"options-cockpit/internal/pricing"
	"options-cockpit/internal/recommend"
)

// Config holds all application configuration.
type Config struct {
	Pricing     PricingConfig        `mapstructure:"pricing"`
	ImpliedVol  pricing.SolverConfig `mapstructure:"implied_vol"`
	Recommender recommend.Config     `mapstructure:"recommender"`
	Server      ServerConfig         `mapstructure:"server"`
	Store       StoreConfig          `mapstructure:"store"`
	Market      MarketConfig         `mapstructure:"market"`
	Logging     LoggingConfig        `mapstructure:"logging"`
	UI          UIConfig             `mapstructure:"ui"`
}

// PricingConfig holds default market parameters for pricing commands.
type PricingConfig struct {
	RiskFreeRate  float64 `mapstructure:"risk_free_rate"`
	DividendYield float64 `mapstructure:"dividend_yield"`
	GreeksRate    float64 `mapstructure:"greeks_rate"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// MarketConfig holds the synthetic quote ticker configuration.
type MarketConfig struct {
	Symbol       string        `mapstructure:"symbol"`
	StartPrice   float64       `mapstructure:"start_price"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds CLI output configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-cockpit"
	}
	return filepath.Join(home, ".config", "options-cockpit")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by the commented template before reading.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("pricing.risk_free_rate", 0.05)
	v.SetDefault("pricing.dividend_yield", 0.0)
	v.SetDefault("pricing.greeks_rate", 0.01)

	iv := pricing.DefaultSolverConfig()
	v.SetDefault("implied_vol.vol_low", iv.VolLow)
	v.SetDefault("implied_vol.vol_high", iv.VolHigh)
	v.SetDefault("implied_vol.tolerance", iv.Tolerance)
	v.SetDefault("implied_vol.max_iter", iv.MaxIter)
	v.SetDefault("implied_vol.expand_steps", iv.ExpandSteps)
	v.SetDefault("implied_vol.expand_factor", iv.ExpandFactor)

	rec := recommend.DefaultConfig()
	v.SetDefault("recommender.paths", rec.Paths)
	v.SetDefault("recommender.ev_weight", rec.EVWeight)
	v.SetDefault("recommender.pop_weight", rec.POPWeight)
	v.SetDefault("recommender.workers", 0)
	v.SetDefault("recommender.seed", 0)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.mode", "release")

	v.SetDefault("store.path", filepath.Join(configDir, "cockpit.db"))

	v.SetDefault("market.symbol", "SPY")
	v.SetDefault("market.start_price", 480.0)
	v.SetDefault("market.tick_interval", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "cockpit.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("ui.color_enabled", true)
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("OPTIONS_COCKPIT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("OPTIONS_COCKPIT_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("OPTIONS_COCKPIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OPTIONS_COCKPIT_CORS_ORIGIN"); v != "" {
		cfg.Server.CORSOrigin = v
	}
	if v := os.Getenv("OPTIONS_COCKPIT_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Recommender.Seed = seed
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ImpliedVol.VolLow <= 0 || c.ImpliedVol.VolHigh <= c.ImpliedVol.VolLow {
		return fmt.Errorf("implied_vol bracket must satisfy 0 < vol_low < vol_high")
	}
	if c.ImpliedVol.Tolerance <= 0 {
		return fmt.Errorf("implied_vol.tolerance must be positive")
	}
	if c.ImpliedVol.MaxIter < 1 {
		return fmt.Errorf("implied_vol.max_iter must be at least 1")
	}
	if c.ImpliedVol.ExpandFactor <= 1 {
		return fmt.Errorf("implied_vol.expand_factor must be greater than 1")
	}

	if c.Recommender.Paths < 1 {
		return fmt.Errorf("recommender.paths must be at least 1")
	}
	if c.Recommender.EVWeight < 0 || c.Recommender.POPWeight < 0 {
		return fmt.Errorf("recommender weights must be non-negative")
	}
	if c.Recommender.Workers < 0 {
		return fmt.Errorf("recommender.workers must be non-negative")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode: %s (must be 'debug', 'release' or 'test')", c.Server.Mode)
	}

	if c.Market.StartPrice <= 0 {
		return fmt.Errorf("market.start_price must be positive")
	}
	if c.Market.TickInterval <= 0 {
		return fmt.Errorf("market.tick_interval must be positive")
	}

	return nil
}
