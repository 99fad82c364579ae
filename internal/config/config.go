package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the client settings Skillfinite needs at startup.
type Config struct {
	APIURL         string
	DataDir        string
	LogFile        string
	PollEvery      time.Duration
	RequestTimeout time.Duration
	RetryAttempts  uint
	Theme          string
}

const (
	defaultConfigPath     = "~/.config/skillfinite/config.toml"
	defaultDataDir        = "~/.local/share/skillfinite"
	defaultAPIURL         = "https://api.skillfinite.com"
	defaultTheme          = "Dracula"
	defaultPollSeconds    = 30
	defaultTimeoutSeconds = 15
	defaultRetryAttempts  = 3

	// APIURLEnv overrides api_url from the config file.
	APIURLEnv = "SKILLFINITE_API_URL"
)

// Load locates and parses the client config, falling back to defaults when missing.
// An optional .env file in the working directory is loaded first so that
// SKILLFINITE_API_URL can be supplied there.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg.finish(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string `toml:"api_url"`
		DataDir        string `toml:"data_dir"`
		LogFile        string `toml:"log_file"`
		PollSeconds    int    `toml:"poll_seconds"`
		TimeoutSeconds int    `toml:"request_timeout_seconds"`
		RetryAttempts  int    `toml:"retry_attempts"`
		Theme          string `toml:"theme"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = v
	}
	cfg.LogFile = strings.TrimSpace(raw.LogFile)
	if raw.PollSeconds > 0 {
		cfg.PollEvery = time.Duration(raw.PollSeconds) * time.Second
	}
	if raw.TimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if raw.RetryAttempts > 0 {
		cfg.RetryAttempts = uint(raw.RetryAttempts)
	}
	if v := strings.TrimSpace(raw.Theme); v != "" {
		cfg.Theme = v
	}

	cfg.applyEnv()
	return cfg.finish(), nil
}

// CachePath returns the location of the persistent key-value cache file.
func (c Config) CachePath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir + "/cache.toml")
	}
	return filepath.Join(c.DataDir, "cache.toml")
}

func defaults() Config {
	return Config{
		APIURL:         defaultAPIURL,
		DataDir:        defaultDataDir,
		PollEvery:      defaultPollSeconds * time.Second,
		RequestTimeout: defaultTimeoutSeconds * time.Second,
		RetryAttempts:  defaultRetryAttempts,
		Theme:          defaultTheme,
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(APIURLEnv)); v != "" {
		c.APIURL = v
	}
}

func (c Config) finish() Config {
	c.DataDir = mustExpand(c.DataDir)
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "skillfinite.log")
	} else {
		c.LogFile = mustExpand(c.LogFile)
	}
	return c
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
