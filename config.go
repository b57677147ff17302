package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/xgb/xproto"
	"gopkg.in/yaml.v3"
)

// FocusModel selects how input focus is assigned.
type FocusModel string

const (
	// FocusClick assigns focus on a click over a window.
	FocusClick FocusModel = "click"
	// FocusAutofocus assigns focus to whatever window the pointer
	// enters (focus follows pointer).
	FocusAutofocus FocusModel = "autofocus"
)

// Action names an operation a keybind can trigger.
type Action string

const (
	ActionQuit Action = "quit"
	ActionKill Action = "kill"
)

// Config is the validated, immutable process configuration. Keybind
// keys are keysym names ("q", "F4") or raw keycodes ("24").
type Config struct {
	Startup    []string          `yaml:"startup" json:"startup"`
	ModMask    string            `yaml:"mod_mask" json:"modMask"`
	FocusModel FocusModel        `yaml:"focus_model" json:"focusModel"`
	Keybinds   map[string]Action `yaml:"keybinds" json:"keybinds"`

	modMask uint16
}

var modMasks = map[string]uint16{
	"shift":   xproto.ModMaskShift,
	"lock":    xproto.ModMaskLock,
	"control": xproto.ModMaskControl,
	"mod1":    xproto.ModMask1,
	"mod2":    xproto.ModMask2,
	"mod3":    xproto.ModMask3,
	"mod4":    xproto.ModMask4,
	"mod5":    xproto.ModMask5,
}

// DefaultConfig opens an xterm at startup, focuses on click, kills
// windows with mod4+w and quits with mod4+q.
func DefaultConfig() *Config {
	return &Config{
		Startup:    []string{"xterm"},
		ModMask:    "mod4",
		FocusModel: FocusClick,
		Keybinds: map[string]Action{
			"q": ActionQuit,
			"w": ActionKill,
		},
	}
}

// DefaultConfigPath is ~/.config/kobold/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "kobold", "config.yaml"), nil
}

// LoadConfig reads and validates the config at path. An empty path
// means the default location. A missing file generates the default
// config on disk and returns it; any other failure is an error.
func LoadConfig(path string) (*Config, error) {
	var err error
	if path == "" {
		path, err = DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("no config at %s, writing defaults", path)
		cfg := DefaultConfig()
		if err := cfg.save(path); err != nil {
			return nil, err
		}
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML config document. Missing
// fields fall back to the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	mask, ok := modMasks[cfg.ModMask]
	if !ok {
		return fmt.Errorf("unrecognized mod_mask %q", cfg.ModMask)
	}
	cfg.modMask = mask
	switch cfg.FocusModel {
	case FocusClick, FocusAutofocus:
	default:
		return fmt.Errorf("unrecognized focus_model %q", cfg.FocusModel)
	}
	for key, action := range cfg.Keybinds {
		switch action {
		case ActionQuit, ActionKill:
		default:
			return fmt.Errorf("invalid action %q for key %q", action, key)
		}
	}
	return nil
}

// Mod returns the global modifier as an xproto mask.
func (cfg *Config) Mod() uint16 {
	return cfg.modMask
}

func (cfg *Config) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
