// Package config loads server settings from an optional config file,
// BOARDRELAY_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envVarPrefix = "BOARDRELAY"

// Config contains every option the relay server understands.
type Config struct {
	// TCP address clients connect to.
	Address string `mapstructure:"address"`
	// Address of the WebSocket listener. Blank disables WebSocket.
	WebSocketAddress string `mapstructure:"websocket_address"`
	// Period of the host loop that polls for connections and drains commands.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Upper bound on a WebSocket upgrade.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	// Back-off after a read reports a timeout.
	ReadRetryInterval time.Duration `mapstructure:"read_retry_interval"`
	// A single reply write taking longer than this drops the client as stalled.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// FEN of the opening position. Blank means the standard start.
	StartingFEN string `mapstructure:"starting_fen"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`
	// text or json.
	LogFormat string `mapstructure:"log_format"`
	// Full path to file to which logs will be written. Blank will write to stderr.
	LogFilePath string `mapstructure:"log_file_path"`
}

var defaults = map[string]any{
	"address":             "127.0.0.1:6000",
	"websocket_address":   "",
	"tick_interval":       16 * time.Millisecond,
	"handshake_timeout":   5 * time.Second,
	"read_retry_interval": 100 * time.Millisecond,
	"write_timeout":       5 * time.Second,
	"starting_fen":        "",
	"log_level":           "info",
	"log_format":          "text",
	"log_file_path":       "",
}

// flagNames maps config keys to the command line flags that may override them.
var flagNames = map[string]string{
	"address":           "address",
	"websocket_address": "websocket-address",
	"tick_interval":     "tick-interval",
	"starting_fen":      "fen",
	"log_level":         "log-level",
	"log_format":        "log-format",
	"log_file_path":     "log-file",
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load builds a Config. configPath is a directory searched for config.yaml
// and may be blank; a missing file is not an error. flags may be nil, and
// only flags that were defined on it are bound.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if configPath != "" {
		v.AddConfigPath(configPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envVarPrefix)
	v.AutomaticEnv()
	for _, k := range v.AllKeys() {
		envVar := envVarPrefix + "_" + strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := v.BindEnv(k, envVar); err != nil {
			return nil, fmt.Errorf("error binding %s to %s: %w", k, envVar, err)
		}
	}

	if flags != nil {
		for key, name := range flagNames {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("error binding flag --%s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Address == "":
		return errors.New("address must not be empty")
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	case c.HandshakeTimeout <= 0:
		return fmt.Errorf("handshake_timeout must be positive, got %s", c.HandshakeTimeout)
	case c.ReadRetryInterval <= 0:
		return fmt.Errorf("read_retry_interval must be positive, got %s", c.ReadRetryInterval)
	case c.WriteTimeout <= 0:
		return fmt.Errorf("write_timeout must be positive, got %s", c.WriteTimeout)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}
