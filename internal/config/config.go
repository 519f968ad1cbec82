package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the console's runtime configuration.
type Config struct {
	Path              string // file the values came from, if any
	APIURL            string
	SessionPath       string
	LogFile           string
	LogLevel          slog.Level
	RequestTimeout    time.Duration
	LookupTimeout     time.Duration
	PageSize          int
	ScannerPrefix     string
	RefreshInterval   time.Duration // zero disables background refresh
	RequestsPerSecond float64
	Burst             int
}

const (
	defaultConfigPath     = "~/.config/shelf/config.toml"
	defaultSessionPath    = "~/.local/state/shelf/session.toml"
	defaultLogFile        = "~/.local/state/shelf/shelf.log"
	defaultAPIURL         = "http://127.0.0.1:3000"
	defaultRequestTimeout = 15 * time.Second
	defaultLookupTimeout  = 10 * time.Second
	defaultPageSize       = 20
	defaultScannerPrefix  = "%"
	defaultRefresh        = 30 * time.Second
	defaultRPS            = 10
	defaultBurst          = 5
)

type rawConfig struct {
	APIURL            string `toml:"api_url"`
	SessionPath       string `toml:"session_path"`
	LogFile           string `toml:"log_file"`
	LogLevel          string `toml:"log_level"`
	RequestTimeout    int    `toml:"request_timeout_seconds"`
	LookupTimeout     int    `toml:"lookup_timeout_seconds"`
	PageSize          int    `toml:"page_size"`
	ScannerPrefix     string `toml:"scanner_prefix"`
	RefreshSeconds    *int   `toml:"refresh_seconds"`
	RequestsPerSecond int    `toml:"requests_per_second"`
	Burst             int    `toml:"burst"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:            defaultAPIURL,
		SessionPath:       mustExpand(defaultSessionPath),
		LogFile:           mustExpand(defaultLogFile),
		LogLevel:          slog.LevelInfo,
		RequestTimeout:    defaultRequestTimeout,
		LookupTimeout:     defaultLookupTimeout,
		PageSize:          defaultPageSize,
		ScannerPrefix:     defaultScannerPrefix,
		RefreshInterval:   defaultRefresh,
		RequestsPerSecond: defaultRPS,
		Burst:             defaultBurst,
	}
}

// Load locates and parses the config file, falling back to defaults when it
// is missing. Empty or non-positive values also fall back to defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Path = resolved

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		cfg.SessionPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		level, err := ParseLevel(v)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = level
	}
	if raw.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeout) * time.Second
	}
	if raw.LookupTimeout > 0 {
		cfg.LookupTimeout = time.Duration(raw.LookupTimeout) * time.Second
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	if v := strings.TrimSpace(raw.ScannerPrefix); v != "" {
		cfg.ScannerPrefix = v
	}
	if raw.RefreshSeconds != nil && *raw.RefreshSeconds >= 0 {
		cfg.RefreshInterval = time.Duration(*raw.RefreshSeconds) * time.Second
	}
	if raw.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = float64(raw.RequestsPerSecond)
	}
	if raw.Burst > 0 {
		cfg.Burst = raw.Burst
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted away.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api_url %q: scheme must be http or https", c.APIURL)
	}
	return nil
}

// ParseLevel maps a log_level name onto a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", name)
	}
	return level, nil
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
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
