// Package config loads service configuration from yaml and the environment.
package config

import (
	"strings"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/spf13/viper"
)

const envPrefix = "PREDEX"

type Config struct {
	Name   string       `mapstructure:"name" yaml:"name"`
	HTTP   HTTPConfig   `mapstructure:"http" yaml:"http"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Book   BookConfig   `mapstructure:"book" yaml:"book"`
	Trades TradesConfig `mapstructure:"trades" yaml:"trades"`
	Seed   SeedConfig   `mapstructure:"seed" yaml:"seed"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"` // Empty logs to stdout only.
}

type BookConfig struct {
	Depth int `mapstructure:"depth" yaml:"depth"` // Default snapshot depth.
}

type TradesConfig struct {
	Limit int `mapstructure:"limit" yaml:"limit"` // Default recent trades limit.
}

// SeedConfig populates the book with generated orders on startup.
type SeedConfig struct {
	Count    int     `mapstructure:"count" yaml:"count"`
	Price    float64 `mapstructure:"price" yaml:"price"`
	Accounts int     `mapstructure:"accounts" yaml:"accounts"`
	Seed     int64   `mapstructure:"seed" yaml:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "predex")
	v.SetDefault("http.addr", ":8000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("book.depth", 10)
	v.SetDefault("trades.limit", 10)
	v.SetDefault("seed.count", 0)
	v.SetDefault("seed.price", 50)
	v.SetDefault("seed.accounts", 4)
	v.SetDefault("seed.seed", 1)
}

// Load reads <name>.yaml from paths (./config and . by default). A missing
// file is not an error. Environment variables override file values, for
// example PREDEX_HTTP_ADDR overrides http.addr.
func Load(name string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config", j.KV("name", name))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config", j.KV("name", name))
	}

	return &c, nil
}
