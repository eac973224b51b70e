package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

// Recording modes
const (
	ModePushToTalk = "PushToTalk"
	ModeToggle     = "Toggle"
)

type Config struct {
	Hotkey       string       `json:"hotkey"`
	HotkeyDarwin string       `json:"hotkey_darwin"`
	Mode         string       `json:"mode"` // "PushToTalk" or "Toggle"
	LogLevel     string       `json:"log_level"`
	Audio        AudioConfig  `json:"audio"`
	VAD          VADConfig    `json:"vad"`
	API          APIConfig    `json:"api"`
	Inject       InjectConfig `json:"inject"`
	AppendSpace  bool         `json:"append_space"`
	KeepFiles    bool         `json:"keep_files"`
	RunAtLogin   bool         `json:"run_at_login"`
}

type AudioConfig struct {
	DeviceID   string `json:"device_id"`
	SampleRate int    `json:"sample_rate"` // capture rate, e.g. 44100
	Channels   int    `json:"channels"`
}

// VADConfig controls speech segmentation of the capture stream.
type VADConfig struct {
	Enabled      bool    `json:"enabled"`
	SampleRate   int     `json:"sample_rate"` // model rate: 8000 or 16000
	Threshold    float64 `json:"threshold"`   // speech probability cutoff, 0-1
	MinSilenceMs int     `json:"min_silence_ms"`
	// MinSpeechMs is accepted for forward compatibility but segments are not
	// yet filtered by minimum length (retained audio never shrinks
	// mid-session).
	MinSpeechMs int    `json:"min_speech_ms"`
	ModelPath   string `json:"model_path"` // override; empty means the managed download
}

// APIConfig points at a speaches.ai-compatible transcription server.
type APIConfig struct {
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	Language       string `json:"language"` // empty lets the server detect
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type InjectConfig struct {
	PreferPaste bool `json:"prefer_paste"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	// Default config
	cfg := &Config{
		Hotkey:       "Alt+Space",
		HotkeyDarwin: "Alt+Space", // Option+Space
		Mode:         ModePushToTalk,
		LogLevel:     "info",
		Audio: AudioConfig{
			DeviceID:   "",
			SampleRate: 44100,
			Channels:   1,
		},
		VAD: VADConfig{
			Enabled:      true,
			SampleRate:   16000,
			Threshold:    0.5,
			MinSilenceMs: 100,
			MinSpeechMs:  250,
		},
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			Model:          "Systran/faster-distil-whisper-large-v3",
			Language:       "",
			TimeoutSeconds: 30,
		},
		Inject: InjectConfig{
			PreferPaste: true,
		},
		AppendSpace: true,
		KeepFiles:   false,
		RunAtLogin:  false,
	}

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PlatformHotkey returns the appropriate hotkey for the current platform
func (c *Config) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && c.HotkeyDarwin != "" {
		return c.HotkeyDarwin
	}
	return c.Hotkey
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "speaches-tray", "config.json")
}

// ModelsPath returns the platform-specific directory for downloaded VAD models
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "speaches-tray", "models")
}
