// Package config loads fenrir's process-level settings: listener
// addresses for the three transports and logging options. The matching
// core itself takes no configuration (spec.md §1: process bootstrap and
// config are interfaces the core sits behind, not part of it).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration, loaded from a YAML file with
// FENRIR_*-prefixed environment variable overrides.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	TCP     TCPConfig     `mapstructure:"tcp"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig controls the REST + WebSocket listener.
type HTTPConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// TCPConfig controls the raw binary-protocol listener.
type TCPConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// LoggingConfig controls zerolog's output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func defaults() Config {
	return Config{
		HTTP:    HTTPConfig{Address: "0.0.0.0", Port: 8080},
		TCP:     TCPConfig{Address: "0.0.0.0", Port: 9001},
		Logging: LoggingConfig{Level: "info", Pretty: false},
	}
}

// Load reads config from path, falling back to built-in defaults for any
// field the file and environment both leave unset. Missing files are not
// an error: fenrir is runnable with zero configuration present.
func Load(path string) (*Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FENRIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.address", cfg.HTTP.Address)
	v.SetDefault("http.port", cfg.HTTP.Port)
	v.SetDefault("tcp.address", cfg.TCP.Address)
	v.SetDefault("tcp.port", cfg.TCP.Port)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields Load cannot default its way around.
func (c *Config) Validate() error {
	if c.HTTP.Port == c.TCP.Port {
		return fmt.Errorf("http.port and tcp.port must differ, both are %d", c.HTTP.Port)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if c.TCP.Port <= 0 || c.TCP.Port > 65535 {
		return fmt.Errorf("tcp.port out of range: %d", c.TCP.Port)
	}
	return nil
}
