package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowtext/internal/domain"
)

// TestLoadReturnsDefaultsWhenMissing verifies first-launch behavior.
func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	store := NewTOMLStore(filepath.Join(t.TempDir(), "settings.toml"))

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine != "whisper" || cfg.Language != "auto" || cfg.ExportFormat != "srt" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

// TestSaveAndLoadRoundTrip verifies settings survive persistence,
// including nested credentials.
func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := NewTOMLStore(filepath.Join(t.TempDir(), "nested", "settings.toml"))

	want := domain.Settings{
		Engine:       "cloud",
		ModelSize:    "small",
		Language:     "zh",
		ExportDir:    "/exports",
		ExportFormat: "vtt",
		BeamSize:     3,
		Temperature:  0.2,
		ComputeType:  "float16",
		Credentials: map[string]domain.Credentials{
			"cloud": {SecretID: "id", SecretKey: "key", Bucket: "b", Region: "ap-guangzhou"},
		},
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Engine != "cloud" || got.Language != "zh" || got.BeamSize != 3 {
		t.Fatalf("loaded = %+v", got)
	}
	creds, ok := got.Credentials["cloud"]
	if !ok || creds.SecretKey != "key" || creds.Region != "ap-guangzhou" {
		t.Fatalf("credentials = %+v", got.Credentials)
	}
}

// TestSaveRestrictsPermissions verifies the settings file is not
// world-readable since it can hold secrets.
func TestSaveRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	store := NewTOMLStore(path)

	if err := store.Save(DefaultSettings()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("permissions = %o, want 600", perm)
	}
}

// TestLoadRejectsMalformedTOML verifies parse failures surface with the
// file path.
func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("engine = [unclosed"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := NewTOMLStore(path).Load()
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("error = %v, want parse failure naming the file", err)
	}
}

// TestNormalizeFillsGaps verifies empty and invalid fields fall back.
func TestNormalizeFillsGaps(t *testing.T) {
	cfg := Normalize(domain.Settings{Engine: "mock", BeamSize: -1, Temperature: -0.5})

	if cfg.Engine != "mock" {
		t.Fatalf("explicit engine overwritten: %q", cfg.Engine)
	}
	if cfg.ModelSize != "base" || cfg.Language != "auto" {
		t.Fatalf("gaps not filled: %+v", cfg)
	}
	if cfg.BeamSize != 5 || cfg.Temperature != 0 {
		t.Fatalf("invalid values not clamped: beam=%d temp=%v", cfg.BeamSize, cfg.Temperature)
	}
}
