package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvBaseURL = "AGENTTEAM_BASE_URL"
	EnvDataDir = "AGENTTEAM_DATA_DIR"
	EnvDebug   = "AGENTTEAM_DEBUG"
)

type Config struct {
	BaseURL        string
	DataDirectory  string
	HistoryLimit   int
	ThreadLimit    int
	RequestTimeout time.Duration
	ExitBeacon     bool
	Keybindings    *KeyBindingsConfig
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// APIURL returns the base URL without a trailing slash.
func (c *Config) APIURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Config) applySettings(s *Settings) {
	if s.BaseURL != "" {
		c.BaseURL = s.BaseURL
	}
	if s.DataDirectory != "" {
		c.DataDirectory = s.DataDirectory
	}
	if s.HistoryLimit > 0 {
		c.HistoryLimit = s.HistoryLimit
	}
	if s.ThreadLimit > 0 {
		c.ThreadLimit = s.ThreadLimit
	}
	if s.RequestTimeoutSeconds > 0 {
		c.RequestTimeout = time.Duration(s.RequestTimeoutSeconds) * time.Second
	}
	if s.ExitBeacon != nil {
		c.ExitBeacon = *s.ExitBeacon
	}
}

func (c *Config) applyEnvOverrides() {
	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		c.BaseURL = baseURL
	}
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

// Validate checks the values a client cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", c.BaseURL)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.ThreadLimit <= 0 {
		return fmt.Errorf("thread_limit must be positive, got %d", c.ThreadLimit)
	}
	return nil
}

func CheckDebug() bool {
	debug := os.Getenv(EnvDebug)
	if b, err := strconv.ParseBool(debug); err == nil {
		return b
	}
	return false
}

// InitDebugLog opens <dataDir>/debug.log when debugging is requested by
// AGENTTEAM_DEBUG or force. The terminal belongs to the TUI, so the log
// never goes to stderr.
func InitDebugLog(dataDir string, force bool) {
	if !force && !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: request bodies may end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (%s=%s) ===", EnvDebug, os.Getenv(EnvDebug))
	DebugLog.Printf("Log path: %s", logPath)
}

// loadDotEnv loads ./.env if present. Variables already set in the
// environment win, which is godotenv's default.
func loadDotEnv() error {
	if !FileExists(".env") {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load resolves the configuration: defaults, then settings.toml, then
// .env and environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	settings, err := LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	cfg.applySettings(settings)

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	keybindings, err := LoadKeybindings(dataDir)
	if err != nil {
		return nil, err
	}
	cfg.Keybindings = keybindings

	return cfg, nil
}
