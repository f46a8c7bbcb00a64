package config

import "time"

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultHistoryLimit   = 50
	DefaultThreadLimit    = 200
	DefaultRequestTimeout = 30 * time.Second
)

func DefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		DataDirectory:  "~/.local/share/agentteam",
		HistoryLimit:   DefaultHistoryLimit,
		ThreadLimit:    DefaultThreadLimit,
		RequestTimeout: DefaultRequestTimeout,
		ExitBeacon:     true,
		Keybindings:    DefaultKeybindings(),
	}
}

func GenerateSettingsTemplate() string {
	return `# AgentTeam Client Configuration
# Location: ~/.config/agentteam/settings.toml
# This file uses TOML format: https://toml.io
#
# Environment variables override this file:
#   AGENTTEAM_BASE_URL, AGENTTEAM_DATA_DIR, AGENTTEAM_DEBUG
# A .env file in the working directory is read as well.

# AgentTeam backend
base_url = "http://localhost:8000"

# Directory for the debug log
data_directory = "~/.local/share/agentteam"

# Messages requested when loading history or selecting an agent
history_limit = 50

# Messages requested when loading a whole thread
thread_limit = 200

# Per-request timeout
request_timeout_seconds = 30

# Notify the backend when the client loses focus or quits
exit_beacon = true
`
}
