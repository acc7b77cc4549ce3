package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ParamsConfig struct {
	Path string `mapstructure:"path"`
}

type BinanceConfig struct {
	RESTBaseURL    string `mapstructure:"rest_base_url"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec"`
}

type SourceConfig struct {
	Binance   BinanceConfig `mapstructure:"binance"`
	CachePath string        `mapstructure:"cache_path"`
}

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Params ParamsConfig `mapstructure:"params"`
	Source SourceConfig `mapstructure:"source"`
}

// Load reads the YAML config at path and applies defaults.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	applyDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("server.addr", ":9980")
	v.SetDefault("store.path", "data/replay.db")
	v.SetDefault("params.path", "configs/presets.yaml")
	v.SetDefault("source.cache_path", "data/bars.db")
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if strings.TrimSpace(cfg.Store.Path) == "" {
		return fmt.Errorf("store.path cannot be empty")
	}
	if strings.TrimSpace(cfg.Params.Path) == "" {
		return fmt.Errorf("params.path cannot be empty")
	}
	return nil
}
