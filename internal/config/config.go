// Package config merges config file, environment, and flag values into
// one runtime configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL           string
	PostgresDSN      string
	FactoryAddress   string
	GenesisBlock     uint64
	BatchSize        uint64
	MaxRetries       int
	RetryBackoff     time.Duration
	SnapshotInterval time.Duration
	DiscoverInterval time.Duration
	Retention        time.Duration
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CANDLESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("snapshot-interval", time.Minute)
	v.SetDefault("discover-interval", 10*time.Minute)
	v.SetDefault("retention", 30*24*time.Hour)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:           v.GetString("rpc"),
		PostgresDSN:      v.GetString("pg-dsn"),
		FactoryAddress:   v.GetString("factory"),
		GenesisBlock:     v.GetUint64("genesis-block"),
		BatchSize:        v.GetUint64("batch-size"),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		SnapshotInterval: v.GetDuration("snapshot-interval"),
		DiscoverInterval: v.GetDuration("discover-interval"),
		Retention:        v.GetDuration("retention"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the fields every command needs.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc endpoint is required")
	}
	if c.FactoryAddress == "" {
		return fmt.Errorf("factory address is required")
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	return nil
}
