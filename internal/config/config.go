package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything minedeck needs to reach and mirror the
// Mineworks API. Values resolve in three layers: built-in defaults, the
// TOML config file, then MINEDECK_* environment overrides.
type Config struct {
	APIURL         string        `env:"MINEDECK_API_URL"`
	DataDir        string        `env:"MINEDECK_DATA_DIR"`
	SessionFile    string        `env:"MINEDECK_SESSION_FILE"`
	LogFile        string        `env:"MINEDECK_LOG_FILE"`
	LogLevel       string        `env:"MINEDECK_LOG_LEVEL"`
	PollForeground time.Duration `env:"MINEDECK_POLL_FOREGROUND"`
	PollBackground time.Duration `env:"MINEDECK_POLL_BACKGROUND"`
	RequestTimeout time.Duration `env:"MINEDECK_REQUEST_TIMEOUT"`
}

const (
	defaultConfigPath = "~/.config/minedeck/config.toml"
	defaultDataDir    = "~/.local/share/minedeck"
	defaultAPIURL     = "https://api.mineworks.gg"

	defaultPollForeground = 15 * time.Second
	defaultPollBackground = 2 * time.Minute
	defaultRequestTimeout = 10 * time.Second
)

// fileConfig mirrors the TOML schema. Durations are strings so the file can
// say "15s" or "2m"; unparseable values fall back to the defaults.
type fileConfig struct {
	APIURL         string `toml:"api_url"`
	DataDir        string `toml:"data_dir"`
	SessionFile    string `toml:"session_file"`
	LogFile        string `toml:"log_file"`
	LogLevel       string `toml:"log_level"`
	PollForeground string `toml:"poll_foreground"`
	PollBackground string `toml:"poll_background"`
	RequestTimeout string `toml:"request_timeout"`
}

// Load locates and parses the minedeck config, falling back to defaults when
// the file is missing. Environment overrides apply last, and derived paths
// (session file, log file) land under the data dir unless set explicitly.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIURL:         defaultAPIURL,
		DataDir:        defaultDataDir,
		LogLevel:       "info",
		PollForeground: defaultPollForeground,
		PollBackground: defaultPollBackground,
		RequestTimeout: defaultRequestTimeout,
	}

	raw, err := os.ReadFile(resolved)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		var file fileConfig
		if err := toml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.applyFile(file)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(file fileConfig) {
	if v := strings.TrimSpace(file.APIURL); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(file.DataDir); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(file.SessionFile); v != "" {
		c.SessionFile = v
	}
	if v := strings.TrimSpace(file.LogFile); v != "" {
		c.LogFile = v
	}
	if v := strings.TrimSpace(file.LogLevel); v != "" {
		c.LogLevel = v
	}
	c.PollForeground = parseDuration(file.PollForeground, c.PollForeground)
	c.PollBackground = parseDuration(file.PollBackground, c.PollBackground)
	c.RequestTimeout = parseDuration(file.RequestTimeout, c.RequestTimeout)
}

// finalize expands paths and fills in the derived defaults.
func (c *Config) finalize() error {
	dataDir, err := expandPath(c.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	c.DataDir = dataDir

	if strings.TrimSpace(c.SessionFile) == "" {
		c.SessionFile = filepath.Join(c.DataDir, "session.toml")
	} else if c.SessionFile, err = expandPath(c.SessionFile); err != nil {
		return fmt.Errorf("resolve session file: %w", err)
	}

	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = filepath.Join(c.DataDir, "minedeck.log")
	} else if c.LogFile, err = expandPath(c.LogFile); err != nil {
		return fmt.Errorf("resolve log file: %w", err)
	}

	if c.PollForeground <= 0 {
		c.PollForeground = defaultPollForeground
	}
	if c.PollBackground <= 0 {
		c.PollBackground = defaultPollBackground
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

// parseDuration tolerates blanks and bad values so a hand-edited config file
// cannot keep the client from starting.
func parseDuration(val string, def time.Duration) time.Duration {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return def
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
