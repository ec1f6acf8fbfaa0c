// Package config loads notula-server settings from an optional config file
// and NOTULA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Bot     BotConfig     `mapstructure:"bot"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// BotConfig holds the conversation settings.
type BotConfig struct {
	Timezone       string        `mapstructure:"timezone"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Location resolves the configured timezone.
func (b BotConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bot.timezone %q: %w", b.Timezone, err)
	}
	return loc, nil
}

func (b BotConfig) Validate() error {
	if _, err := b.Location(); err != nil {
		return err
	}
	if b.SessionTimeout <= 0 {
		return fmt.Errorf("bot.session_timeout must be > 0")
	}
	return nil
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address is required")
	}
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	return c.Bot.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.jwt_secret", "notula-secret-key-change-in-production")
	v.SetDefault("storage.path", "./notula.db")
	v.SetDefault("bot.timezone", "Asia/Jakarta")
	v.SetDefault("bot.session_timeout", 2*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads config from path, or from config.{yaml,json} in . and ./config
// when path is empty. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("NOTULA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
