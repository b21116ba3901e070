package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/quantumauth-io/quantum-balances/internal/accounts"
	"github.com/quantumauth-io/quantum-balances/internal/chains"
	"github.com/quantumauth-io/quantum-balances/internal/constants"
)

//go:embed config.yaml
var EmbeddedConfigYAML []byte

const (
	EnvPrefix    = "QB"
	InfuraKeyEnv = "QB_INFURA_KEY"
)

type ServerSettings struct {
	Host           string   `mapstructure:"host" validate:"required"`
	Port           string   `mapstructure:"port" validate:"required,numeric"`
	AllowedOrigins []string `mapstructure:"allowedOrigins" validate:"dive,url"`
}

type BalanceSettings struct {
	CacheTTL    time.Duration `mapstructure:"cacheTTL" validate:"gte=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=0,lte=64"`
	FetchDelay  time.Duration `mapstructure:"fetchDelay" validate:"gte=0"`
	MaxRetries  int32         `mapstructure:"maxRetries" validate:"gte=0,lte=10"`
}

type Config struct {
	Server   ServerSettings            `mapstructure:"server"`
	Balances BalanceSettings           `mapstructure:"balances"`
	Networks map[string]chains.Network `mapstructure:"networks" validate:"required,min=1,dive"`
	Accounts []accounts.Account        `mapstructure:"accounts"`
}

func infuraRPC(chain string, key string) string {
	return fmt.Sprintf("https://%s.infura.io/v3/%s", chain, key)
}

func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	paths := []string{
		filepath.Join(home, ".config", constants.AppName),
		filepath.Join(".", "config"),
		".",
	}
	return LoadFrom(paths)
}

// LoadFrom reads the embedded defaults, merges the first config.{yaml,json}
// found in paths and applies QB_* environment overrides.
func LoadFrom(paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if key := strings.TrimSpace(os.Getenv(InfuraKeyEnv)); key != "" {
		if err := cfg.InjectInfuraKey(key); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InjectInfuraKey points every network without an RPC URL at Infura.
func (c *Config) InjectInfuraKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("infura api key is empty")
	}

	for netName, n := range c.Networks {
		if n.RPCURL != "" {
			continue
		}
		n.RPCURL = infuraRPC(netName, key)
		// write back (map value copy)
		c.Networks[netName] = n
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for netKey, n := range c.Networks {
		for _, raw := range n.Assets {
			if _, err := accounts.NormalizeAddress(raw); err != nil {
				return fmt.Errorf("networks.%s.assets: %w", netKey, err)
			}
		}
	}
	return nil
}
