package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AudioBackend != "memory" {
		t.Errorf("AudioBackend = %q, want memory", cfg.AudioBackend)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %s, want 50ms", cfg.TickInterval)
	}
	if cfg.SaveVersion != "0.3.0" {
		t.Errorf("SaveVersion = %q, want 0.3.0", cfg.SaveVersion)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DESKCORDER_AUDIO", "null")
	t.Setenv("DESKCORDER_TICK", "20ms")
	t.Setenv("DESKCORDER_SAVE_VERSION", "0.1.2")
	t.Setenv("DESKCORDER_CATALOG", "/tmp/catalog.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AudioBackend != "null" {
		t.Errorf("AudioBackend = %q, want null", cfg.AudioBackend)
	}
	if cfg.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval = %s, want 20ms", cfg.TickInterval)
	}
	if cfg.SaveVersion != "0.1.2" {
		t.Errorf("SaveVersion = %q, want 0.1.2", cfg.SaveVersion)
	}
	if cfg.CatalogPath != "/tmp/catalog.db" {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown backend", key: "DESKCORDER_AUDIO", val: "alsa"},
		{name: "zero sample rate", key: "DESKCORDER_SAMPLE_RATE", val: "0"},
		{name: "unparsable tick", key: "DESKCORDER_TICK", val: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s succeeded, want error", tt.key, tt.val)
			}
		})
	}
}
