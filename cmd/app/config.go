package main

import (
	"fmt"
	"strings"

	"lmx_presale/internal/cache"
	"lmx_presale/internal/repository"
	"lmx_presale/internal/worker"
	"lmx_presale/pkg/chainrpc"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Redis    cache.Config      `yaml:"redis"`
	Server   ServerConfig      `yaml:"server"`

	Auth     AuthConfig      `yaml:"auth"`
	Presale  PresaleConfig   `yaml:"presale"`
	Referral ReferralConfig  `yaml:"referral"`
	ChainRPC chainrpc.Config `yaml:"chainRpc"`
	Feed     FeedConfig      `yaml:"feed"`
	Sweeper  worker.Config   `yaml:"sweeper"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type AuthConfig struct {
	ServiceTokenSecret string `yaml:"serviceTokenSecret"`
}

type PresaleConfig struct {
	// MinPayment is the smallest verified on-chain transfer, in native
	// currency units, accepted as payment for a purchase. Empty or zero
	// leaves only the positive-amount check.
	MinPayment string `yaml:"minPayment"`
}

type ReferralConfig struct {
	// BonusPercent is the referrer's cut of a referred purchase, in
	// whole percent. Zero means the built-in default.
	BonusPercent int64 `yaml:"bonusPercent"`
}

type FeedConfig struct {
	// URL of the payment processor's websocket event stream. Empty
	// disables the listener; the sweeper still picks up completions.
	URL string `yaml:"url"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
