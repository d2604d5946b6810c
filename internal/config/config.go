// Package config loads server configuration from an optional taskhub.yaml
// and TASKHUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Config is the full server configuration.
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Database struct {
		// URL is a Postgres connection string. When empty the server runs
		// on the in-memory stores.
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Pricing struct {
		FeeRate float64 `mapstructure:"fee_rate"`
	} `mapstructure:"pricing"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Load reads configuration, applying defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.url", "")
	v.SetDefault("pricing.fee_rate", 0.10)
	v.SetDefault("log.level", "info")

	v.SetConfigName("taskhub")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/taskhub")

	v.SetEnvPrefix("TASKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Pricing.FeeRate <= 0 || cfg.Pricing.FeeRate >= 1 {
		return nil, fmt.Errorf("pricing.fee_rate must be in (0, 1), got %v", cfg.Pricing.FeeRate)
	}
	return &cfg, nil
}
