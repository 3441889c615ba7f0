package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func executeCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

// TestEnginesCommandListsProviders verifies the registered engines render.
func TestEnginesCommandListsProviders(t *testing.T) {
	out := executeCommand(t, "engines")
	for _, name := range []string{"cloud", "mock", "whisper"} {
		if !strings.Contains(out, name) {
			t.Fatalf("engines output missing %q:\n%s", name, out)
		}
	}
}

// TestModelsCommandListsSizes verifies the model catalog renders.
func TestModelsCommandListsSizes(t *testing.T) {
	out := executeCommand(t, "models")
	for _, id := range []string{"tiny", "base", "large"} {
		if !strings.Contains(out, id) {
			t.Fatalf("models output missing %q:\n%s", id, out)
		}
	}
}

// TestExportCommandConvertsFormats verifies an SRT converts to VTT.
func TestExportCommandConvertsFormats(t *testing.T) {
	dir := t.TempDir()
	srtPath := filepath.Join(dir, "movie.srt")
	srt := "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:05,000\nWorld\n"
	if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}

	out := executeCommand(t, "export", srtPath,
		"--format", "vtt",
		"--settings", filepath.Join(dir, "settings.toml"))
	if !strings.Contains(out, "Wrote 2 entries") {
		t.Fatalf("unexpected output: %s", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "movie.vtt"))
	if err != nil {
		t.Fatalf("read converted file: %v", err)
	}
	if !strings.HasPrefix(string(data), "WEBVTT") {
		t.Fatalf("converted file is not VTT:\n%s", data)
	}
}

// TestProgressBarWidths verifies clamping at both ends.
func TestProgressBarWidths(t *testing.T) {
	if got := progressBar(0, 10); got != "[          ]" {
		t.Fatalf("bar at 0%% = %q", got)
	}
	if got := progressBar(100, 10); got != "[==========]" {
		t.Fatalf("bar at 100%% = %q", got)
	}
	if got := progressBar(150, 10); got != "[==========]" {
		t.Fatalf("bar above 100%% = %q", got)
	}
}

// TestFirstNonEmpty verifies fallback ordering.
func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Fatalf("firstNonEmpty = %q, want b", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("firstNonEmpty = %q, want empty", got)
	}
}
