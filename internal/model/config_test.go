package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := SyncConfig{
		PollIntervalSec: 30,
		ChunkSize:       200,
		BlockFolder:     "Blocked",
		DefaultWindow:   2000,
	}
	if diff := cmp.Diff(want, cfg.Sync); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
	if cfg.Display.Theme != "default" {
		t.Fatalf("theme = %q, want default", cfg.Display.Theme)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := &AppConfig{
		Sync: SyncConfig{
			PollIntervalSec: 120,
			ChunkSize:       500,
			BlockFolder:     "Junk",
			DefaultWindow:   9000,
		},
		Display: DisplayConfig{Theme: "dark"},
	}
	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestLoadConfigSanitizesBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "sync:\n  poll_interval_sec: -5\n  chunk_size: 0\n  default_fetch_window: -1\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Sync.PollIntervalSec != 30 || cfg.Sync.ChunkSize != 200 || cfg.Sync.DefaultWindow != 2000 {
		t.Fatalf("sanitized config = %+v", cfg.Sync)
	}
}
