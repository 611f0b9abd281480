package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/ripple/internal/httpserver"
	"github.com/tinytelemetry/ripple/internal/model"
	"github.com/tinytelemetry/ripple/internal/poll"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	PollMode           string        `mapstructure:"poll-mode"`
	PollInterval       time.Duration `mapstructure:"poll-interval"`
	PollMinInterval    time.Duration `mapstructure:"poll-min-interval"`
	PollMaxInterval    time.Duration `mapstructure:"poll-max-interval"`
	PollWindow         int           `mapstructure:"poll-window"`
	AggregationLimit   int           `mapstructure:"aggregation-limit"`
	Channel            string        `mapstructure:"channel"`
	DataDir            string        `mapstructure:"data-dir"`
	History            bool          `mapstructure:"history"`
	LogLevel           string        `mapstructure:"log-level"`
	LogFile            string        `mapstructure:"log-file"`
	SourceBuffer       int           `mapstructure:"source-buffer"`
	MaxLineSize        int           `mapstructure:"max-line-size"`
	APIEnabled         bool          `mapstructure:"api-enabled"`
	APIAddr            string        `mapstructure:"api-addr"`
	ReverseScrollWheel bool          `mapstructure:"reverse-scroll-wheel"`
	ConfigPath         string        `mapstructure:"-"` // not from config file

	pollMode poll.Mode
	channel  model.Channel
}

// paths are the default locations derived from the home directory.
type paths struct {
	Config string
	Data   string
	Log    string
}

func defaultPaths() (paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return paths{}, fmt.Errorf("finding home directory: %w", err)
	}
	return paths{
		Config: filepath.Join(home, ".config", "ripple", "config.yml"),
		Data:   filepath.Join(home, ".local", "share", "ripple"),
		Log:    filepath.Join(home, ".local", "state", "ripple", "ripple.log"),
	}, nil
}

// newViper returns a viper instance with every key defaulted.
func newViper(p paths) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("RIPPLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("poll-mode", poll.Smart.String())
	v.SetDefault("poll-interval", model.DefaultPollInterval)
	v.SetDefault("poll-min-interval", model.DefaultMinPollInterval)
	v.SetDefault("poll-max-interval", model.DefaultMaxPollInterval)
	v.SetDefault("poll-window", model.DefaultPollWindow)
	v.SetDefault("aggregation-limit", model.DefaultAggregationLimit)
	v.SetDefault("channel", model.Secondary.String())
	v.SetDefault("data-dir", p.Data)
	v.SetDefault("history", true)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", p.Log)
	v.SetDefault("source-buffer", model.DefaultSourceBuffer)
	v.SetDefault("max-line-size", model.DefaultMaxLineSize)
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-addr", httpserver.DefaultAddr)
	v.SetDefault("reverse-scroll-wheel", false)
	return v
}

// loadConfig reads the config file (if any) into v and validates the result.
func loadConfig(v *viper.Viper, configPath string, p paths) (appConfig, error) {
	var cfg appConfig

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(p.Config)
	}
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
		// An explicitly requested file must exist.
		if configPath != "" {
			return cfg, fmt.Errorf("config file %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.LogFile = expandHome(cfg.LogFile)
	return cfg, cfg.validate()
}

func (c *appConfig) validate() error {
	mode, err := poll.ParseMode(c.PollMode)
	if err != nil {
		return fmt.Errorf("invalid poll-mode: %w", err)
	}
	c.pollMode = mode
	ch, err := model.ParseChannel(c.Channel)
	if err != nil {
		return fmt.Errorf("invalid channel: %w", err)
	}
	c.channel = ch

	switch {
	case c.PollInterval <= 0:
		return fmt.Errorf("invalid poll-interval: %s", c.PollInterval)
	case c.PollMinInterval <= 0:
		return fmt.Errorf("invalid poll-min-interval: %s", c.PollMinInterval)
	case c.PollMaxInterval < c.PollMinInterval:
		return fmt.Errorf("poll-max-interval %s is below poll-min-interval %s", c.PollMaxInterval, c.PollMinInterval)
	case c.PollWindow <= 0:
		return fmt.Errorf("invalid poll-window: %d", c.PollWindow)
	case c.AggregationLimit <= 0:
		return fmt.Errorf("invalid aggregation-limit: %d", c.AggregationLimit)
	case c.SourceBuffer <= 0:
		return fmt.Errorf("invalid source-buffer: %d", c.SourceBuffer)
	case c.MaxLineSize <= 0:
		return fmt.Errorf("invalid max-line-size: %d", c.MaxLineSize)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %q", c.LogLevel)
	}
	return nil
}

func (c appConfig) pollConfig() poll.Config {
	return poll.Config{
		Mode:     c.pollMode,
		Interval: c.PollInterval,
		Min:      c.PollMinInterval,
		Max:      c.PollMaxInterval,
		Window:   c.PollWindow,
	}
}

// Expand ~ in configured paths.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
