package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/quietkey/pttd/internal/output"
	"github.com/quietkey/pttd/internal/ptt"
)

// Config persists the full external AppSettings schema plus the
// handful of app-shell fields (hotkey payload, active model, window
// position) the core doesn't itself own but needs a home for.
type Config struct {
	InputDevice     string               `json:"input_device"`
	NoiseReduction  bool                 `json:"noise_reduction"`
	AutoLanguage    bool                 `json:"auto_language"`
	LatencyMS       uint16               `json:"latency_ms"`
	AutoExport      bool                 `json:"auto_export"`
	OverlayPosition ptt.OverlayPosition  `json:"overlay_position"`
	ShowTimestamps  bool                 `json:"show_timestamps"`
	AutoPunctuation bool                 `json:"auto_punctuation"`
	OutputMode      output.Mode          `json:"output_mode"`

	Model     string `json:"model"`
	HotkeyKey string `json:"hotkey_key"`
	Ctrl      bool   `json:"hotkey_ctrl"`
	Alt       bool   `json:"hotkey_alt"`
	Shift     bool   `json:"hotkey_shift"`
	Meta      bool   `json:"hotkey_meta"`

	WindowX int `json:"window_x"`
	WindowY int `json:"window_y"`

	LaunchAtLogin bool `json:"launch_at_login"`
}

// defaultConfig returns factory defaults, matching ptt.DefaultSettings()
// and hotkey.DefaultPayload() (space + ctrl+alt).
func defaultConfig() Config {
	d := ptt.DefaultSettings()
	return Config{
		InputDevice:     d.InputDevice,
		NoiseReduction:  d.NoiseReduction,
		AutoLanguage:    d.AutoLanguage,
		LatencyMS:       d.LatencyMS,
		AutoExport:      d.AutoExport,
		OverlayPosition: d.OverlayPosition,
		ShowTimestamps:  d.ShowTimestamps,
		AutoPunctuation: d.AutoPunctuation,
		OutputMode:      d.OutputMode,
		Model:           "base",
		HotkeyKey:       "space",
		Ctrl:            true,
		Alt:             true,
	}
}

// Settings projects the persisted Config onto the subset the PTT runtime
// acts on directly.
func (c Config) Settings() ptt.Settings {
	return ptt.Settings{
		InputDevice:     c.InputDevice,
		NoiseReduction:  c.NoiseReduction,
		AutoLanguage:    c.AutoLanguage,
		LatencyMS:       c.LatencyMS,
		AutoExport:      c.AutoExport,
		OverlayPosition: c.OverlayPosition,
		ShowTimestamps:  c.ShowTimestamps,
		AutoPunctuation: c.AutoPunctuation,
		OutputMode:      c.OutputMode,
	}
}

// ConfigService loads and saves user configuration.
type ConfigService struct {
	path string
}

// NewConfigService creates a ConfigService pointing to the standard config path.
func NewConfigService() *ConfigService {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return &ConfigService{
		path: filepath.Join(dir, "pttd", "config.json"),
	}
}

// newConfigServiceAt creates a ConfigService with a custom path (tests only).
func newConfigServiceAt(path string) *ConfigService {
	return &ConfigService{path: path}
}

// Load reads config from disk. Returns defaults if the file doesn't exist.
// If the file is corrupt it logs the error and writes fresh defaults. Any
// fields absent from an older/partial file on disk are filled with the
// current defaults.
func (c *ConfigService) Load() Config {
	defaults := defaultConfig()

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return defaults
	}
	if err != nil {
		log.Warn("config: read error, using defaults", "err", err)
		return defaults
	}

	cfg := defaults
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Warn("config: parse error, resetting to defaults", "err", err)
		_ = c.Save(defaults)
		return defaults
	}
	if cfg.HotkeyKey == "" {
		cfg.HotkeyKey = defaults.HotkeyKey
		cfg.Ctrl, cfg.Alt, cfg.Shift, cfg.Meta = defaults.Ctrl, defaults.Alt, defaults.Shift, defaults.Meta
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.OutputMode == "" {
		cfg.OutputMode = defaults.OutputMode
	}
	if cfg.OverlayPosition == "" {
		cfg.OverlayPosition = defaults.OverlayPosition
	}
	return cfg
}

// Save writes the config to disk atomically (write to temp, then rename).
func (c *ConfigService) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
