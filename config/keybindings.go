package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeyBindingsConfig holds modifier customization and optional per-action overrides
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"`
}

type ModifierConfig struct {
	Primary   string `toml:"primary"`   // e.g., "ctrl", "alt"
	Secondary string `toml:"secondary"` // e.g., "alt", "ctrl+shift"
}

type actionDef struct {
	modifier string // "primary", "secondary", or "none"
	key      string
}

// actionRegistry maps action names to their default keybindings.
// Any of these can be overridden in the [actions] section of keybindings.toml.
var actionRegistry = map[string]actionDef{
	// Global
	"quit":            {"primary", "q"},
	"refresh":         {"primary", "r"},
	"yank_last_reply": {"primary", "y"},
	"toggle_focus":    {"none", "tab"},

	// Agent list
	"help":        {"none", "?"},
	"about":       {"none", "i"},
	"filter":      {"none", "/"},
	"list_down":   {"none", "j"},
	"list_up":     {"none", "k"},
	"list_top":    {"none", "g"},
	"list_bottom": {"none", "G"},

	// Input
	"new_line": {"secondary", "enter"},
}

func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{
			Primary:   "ctrl",
			Secondary: "alt",
		},
	}
}

// LoadKeybindings loads keybindings.toml from the data directory, writing
// the commented template first when it does not exist.
func LoadKeybindings(dataDir string) (*KeyBindingsConfig, error) {
	cfg := DefaultKeybindings()
	keybindingsPath := filepath.Join(dataDir, "keybindings.toml")

	if !FileExists(keybindingsPath) {
		if err := CreateDefaultKeybindings(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create keybindings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(keybindingsPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse keybindings: %w", err)
	}

	if cfg.Modifiers.Primary == "" {
		cfg.Modifiers.Primary = "ctrl"
	}
	if cfg.Modifiers.Secondary == "" {
		cfg.Modifiers.Secondary = "alt"
	}

	if ok, warning := cfg.Validate(); !ok {
		return nil, fmt.Errorf("invalid keybindings: %s", warning)
	}
	for action := range cfg.Actions {
		if _, known := actionRegistry[action]; !known && DebugLog != nil {
			DebugLog.Printf("[Config] Ignoring unknown keybinding action %q", action)
		}
	}

	return cfg, nil
}

func CreateDefaultKeybindings(dataDir string) error {
	if err := EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	keybindingsPath := filepath.Join(dataDir, "keybindings.toml")
	if FileExists(keybindingsPath) {
		return nil
	}

	if err := os.WriteFile(keybindingsPath, []byte(GenerateKeybindingsTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write keybindings: %w", err)
	}
	return nil
}

func GenerateKeybindingsTemplate() string {
	return `# AgentTeam Keybindings
# Location: ~/.local/share/agentteam/keybindings.toml
# This file uses TOML format: https://toml.io

[modifiers]
primary = "ctrl"   # quit, refresh, copy last reply
secondary = "alt"  # new line in the message input

# Per-action overrides. Available actions:
#   quit, refresh, yank_last_reply, toggle_focus,
#   help, about, filter, list_down, list_up, list_top, list_bottom,
#   new_line
[actions]
# quit = "ctrl+x"
# list_down = "ctrl+n"
# list_up = "ctrl+p"
`
}

func (kb *KeyBindingsConfig) Primary() string {
	if kb.Modifiers.Primary == "" {
		return "ctrl"
	}
	return kb.Modifiers.Primary
}

func (kb *KeyBindingsConfig) Secondary() string {
	if kb.Modifiers.Secondary == "" {
		return "alt"
	}
	return kb.Modifiers.Secondary
}

// PrimaryKey builds a keybinding string with the primary modifier, e.g.
// PrimaryKey("q") is "ctrl+q".
func (kb *KeyBindingsConfig) PrimaryKey(key string) string {
	return kb.Primary() + "+" + key
}

// SecondaryKey builds a keybinding string with the secondary modifier.
// A shift modifier on a single letter becomes the uppercase letter, which is
// what terminals report: with "alt+shift", SecondaryKey("s") is "alt+S".
func (kb *KeyBindingsConfig) SecondaryKey(key string) string {
	secondary := kb.Secondary()

	if strings.Contains(strings.ToLower(secondary), "shift") && len(key) == 1 && key[0] >= 'a' && key[0] <= 'z' {
		var mods []string
		for _, part := range strings.Split(secondary, "+") {
			if strings.ToLower(part) != "shift" {
				mods = append(mods, part)
			}
		}
		if len(mods) > 0 {
			return strings.Join(mods, "+") + "+" + strings.ToUpper(key)
		}
		return strings.ToUpper(key)
	}

	return secondary + "+" + key
}

// GetActionKey returns the keybinding for action, preferring user overrides.
// Unknown actions return "".
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if override, ok := kb.Actions[action]; ok && override != "" {
		return override
	}

	def, ok := actionRegistry[action]
	if !ok {
		return ""
	}
	switch def.modifier {
	case "primary":
		return kb.PrimaryKey(def.key)
	case "secondary":
		return kb.SecondaryKey(def.key)
	default:
		return def.key
	}
}

// DisplayActionKey returns a display-friendly version of an action's
// keybinding: "ctrl+q" -> "Ctrl+Q".
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	key := kb.GetActionKey(action)
	if key == "" {
		return ""
	}
	return capitalizeKeybinding(key)
}

// capitalizeKeybinding capitalizes each part of a keybinding. An uppercase
// letter after a modifier is shown as Shift+<letter>.
//
//	"ctrl+shift+j" -> "Ctrl+Shift+J"
//	"alt+D"        -> "Alt+Shift+D"
//	"G"            -> "G"
func capitalizeKeybinding(key string) string {
	parts := strings.Split(key, "+")
	hasShift := false
	for _, p := range parts {
		if strings.ToLower(p) == "shift" {
			hasShift = true
		}
	}

	var result []string
	for i, part := range parts {
		if part == "" {
			continue
		}
		if len(part) == 1 && part[0] >= 'A' && part[0] <= 'Z' {
			if !hasShift && i > 0 {
				result = append(result, "Shift")
			}
			result = append(result, part)
			continue
		}
		result = append(result, strings.ToUpper(part[:1])+part[1:])
	}
	return strings.Join(result, "+")
}

// Validate checks if the configuration is usable.
// Returns (isValid, warningMessage).
func (kb *KeyBindingsConfig) Validate() (bool, string) {
	primary := kb.Primary()
	secondary := kb.Secondary()

	if primary == "shift" || secondary == "shift" {
		return false, "Shift alone conflicts with typing"
	}
	if primary == secondary {
		return false, "primary and secondary modifiers must differ"
	}
	return true, ""
}
