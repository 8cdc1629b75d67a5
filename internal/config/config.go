// Package config loads the yaml configuration of molehill-mcp.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"molehill-mcp/internal/automation"
)

// DefaultPath is where the configuration is looked up when no -config flag is given.
const DefaultPath = "config.yaml"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Automation AutomationConfig `yaml:"automation"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	// LogFile receives the logs while the terminal panel is shown.
	LogFile string `yaml:"log_file"`
}

type StorageConfig struct {
	// Path of the SQLite database. Empty keeps everything in memory.
	Path string `yaml:"path"`
}

type AutomationConfig struct {
	ClickDelay          time.Duration `yaml:"click_delay"`
	SettleDelay         time.Duration `yaml:"settle_delay"`
	AutoHarvest         bool          `yaml:"auto_harvest"`
	AutoHarvestInterval time.Duration `yaml:"auto_harvest_interval"`
	CommandTimeout      time.Duration `yaml:"command_timeout"`
}

func Default() Config {
	pacing := automation.DefaultOptions()
	return Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8765,
			LogLevel: "info",
			LogFile:  "molehill.log",
		},
		Storage: StorageConfig{Path: "molehill.db"},
		Automation: AutomationConfig{
			ClickDelay:          pacing.ClickDelay,
			SettleDelay:         pacing.SettleDelay,
			AutoHarvestInterval: 30 * time.Second,
			CommandTimeout:      15 * time.Second,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Write stores cfg as yaml at path.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := ParseLevel(c.Server.LogLevel); err != nil {
		return err
	}
	if c.Automation.ClickDelay < 0 || c.Automation.SettleDelay < 0 {
		return errors.New("automation delays must not be negative")
	}
	if c.Automation.AutoHarvest && c.Automation.AutoHarvestInterval <= 0 {
		return errors.New("automation.auto_harvest_interval must be positive")
	}
	if c.Automation.CommandTimeout <= 0 {
		return errors.New("automation.command_timeout must be positive")
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
