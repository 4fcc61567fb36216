package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("unexpected listen default: %s", cfg.Listen)
	}
	if cfg.DayStartHour != 6 || cfg.DayEndHour != 17 {
		t.Errorf("unexpected hour range: %d-%d", cfg.DayStartHour, cfg.DayEndHour)
	}
	if cfg.MaxLanes != 4 {
		t.Errorf("unexpected max lanes: %d", cfg.MaxLanes)
	}
	if cfg.Downtime == nil {
		t.Error("Downtime should be normalized to an empty slice")
	}
}

func TestNormalizeRejectsInvertedHours(t *testing.T) {
	cfg := Config{DayStartHour: 20, DayEndHour: 8}
	cfg.Normalize()
	if cfg.DayEndHour <= cfg.DayStartHour {
		t.Fatalf("end hour %d must come after start hour %d", cfg.DayEndHour, cfg.DayStartHour)
	}
}

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("first-run load failed: %v", err)
	}
	if cfg.BackendURL == "" {
		t.Error("default config missing backend URL")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600 perms, got %v", perm)
	}

	// Second load must read the file back, not recreate it.
	cfg2, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if cfg2.Listen != cfg.Listen {
		t.Errorf("reload mismatch: %s vs %s", cfg2.Listen, cfg.Listen)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.BackendURL = "http://backend.local/api"
	cfg.Downtime = []DowntimeConfig{{ID: "maint", URL: "http://feeds.local/maint.ics", Name: "Mantenimiento"}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.BackendURL != cfg.BackendURL {
		t.Errorf("backend URL lost: %s", got.BackendURL)
	}
	if len(got.Downtime) != 1 || got.Downtime[0].ID != "maint" {
		t.Errorf("downtime feed lost: %+v", got.Downtime)
	}
}
