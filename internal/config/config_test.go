package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Mode != ModePushToTalk {
		t.Errorf("expected default mode %q, got %q", ModePushToTalk, cfg.Mode)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("expected default capture rate 44100, got %d", cfg.Audio.SampleRate)
	}
	if cfg.VAD.SampleRate != 16000 {
		t.Errorf("expected default VAD rate 16000, got %d", cfg.VAD.SampleRate)
	}
	if cfg.VAD.Threshold != 0.5 {
		t.Errorf("expected default VAD threshold 0.5, got %f", cfg.VAD.Threshold)
	}
	if cfg.VAD.MinSilenceMs != 100 {
		t.Errorf("expected default min silence 100ms, got %d", cfg.VAD.MinSilenceMs)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("unexpected default API URL %q", cfg.API.BaseURL)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	cfg.Mode = ModeToggle
	cfg.VAD.Threshold = 0.7
	cfg.API.Model = "Systran/faster-whisper-small"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() after Save returned error: %v", err)
	}

	if loaded.Mode != ModeToggle {
		t.Errorf("expected mode %q after reload, got %q", ModeToggle, loaded.Mode)
	}
	if loaded.VAD.Threshold != 0.7 {
		t.Errorf("expected threshold 0.7 after reload, got %f", loaded.VAD.Threshold)
	}
	if loaded.API.Model != "Systran/faster-whisper-small" {
		t.Errorf("unexpected model after reload: %q", loaded.API.Model)
	}
}
