package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Settings mirrors settings.toml. Zero values mean "not set" and keep the
// default; ExitBeacon is a pointer so an explicit false survives.
type Settings struct {
	BaseURL               string `toml:"base_url"`
	DataDirectory         string `toml:"data_directory"`
	HistoryLimit          int    `toml:"history_limit,omitempty"`
	ThreadLimit           int    `toml:"thread_limit,omitempty"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds,omitempty"`
	ExitBeacon            *bool  `toml:"exit_beacon,omitempty"`
}

// LoadSettings reads settings.toml, writing the commented template first
// when the file does not exist yet.
func LoadSettings() (*Settings, error) {
	settingsPath := GetSettingsFilePath()

	if !FileExists(settingsPath) {
		if err := CreateDefaultSettings(); err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
	}

	return LoadSettingsFromPath(settingsPath)
}

func LoadSettingsFromPath(path string) (*Settings, error) {
	s := &Settings{}
	md, err := toml.DecodeFile(path, s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 && DebugLog != nil {
		DebugLog.Printf("[Config] Ignoring unknown settings keys: %v", undecoded)
	}
	return s, nil
}

func SaveSettings(s *Settings) error {
	configDir := GetConfigDir()
	if err := EnsureDir(configDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(GetSettingsFilePath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return nil
}

func CreateDefaultSettings() error {
	configDir := GetConfigDir()
	if err := EnsureDir(configDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	settingsPath := GetSettingsFilePath()
	if FileExists(settingsPath) {
		return nil
	}

	if err := os.WriteFile(settingsPath, []byte(GenerateSettingsTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
