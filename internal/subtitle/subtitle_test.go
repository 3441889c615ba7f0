package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowtext/internal/domain"
)

var sample = []domain.Subtitle{
	{ID: "sub_1", StartTime: 0, EndTime: 2.5, Text: "Hello there"},
	{ID: "sub_2", StartTime: 61.25, EndTime: 63.75, Text: "Second line"},
}

// TestExportSRT verifies SRT block structure and comma timestamps.
func TestExportSRT(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(sample, "srt", dir, "movie")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(path) != "movie.srt" {
		t.Fatalf("path = %q, want movie.srt", path)
	}

	content := readFile(t, path)
	for _, fragment := range []string{
		"1\n00:00:00,000 --> 00:00:02,500\nHello there",
		"2\n00:01:01,250 --> 00:01:03,750\nSecond line",
	} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("SRT missing %q in:\n%s", fragment, content)
		}
	}
}

// TestExportVTT verifies the WEBVTT header and dot timestamps.
func TestExportVTT(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(sample, "vtt", dir, "movie")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	content := readFile(t, path)
	if !strings.HasPrefix(content, "WEBVTT\n") {
		t.Fatal("VTT must start with WEBVTT header")
	}
	if !strings.Contains(content, "00:00:00.000 --> 00:00:02.500") {
		t.Fatalf("VTT timestamps wrong:\n%s", content)
	}
}

// TestExportASS verifies script header and centisecond timestamps.
func TestExportASS(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(sample, "ass", dir, "movie")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	content := readFile(t, path)
	if !strings.Contains(content, "[Script Info]") || !strings.Contains(content, "[Events]") {
		t.Fatal("ASS sections missing")
	}
	if !strings.Contains(content, "Dialogue: 0,0:00:00.00,0:00:02.50,Default,,0,0,0,,Hello there") {
		t.Fatalf("ASS dialogue wrong:\n%s", content)
	}
}

// TestExportUnsupportedFormat verifies unknown formats are rejected.
func TestExportUnsupportedFormat(t *testing.T) {
	if _, err := Export(sample, "sub", t.TempDir(), "movie"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

// TestImportSRTRoundTrip verifies exported SRT parses back losslessly.
func TestImportSRTRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(sample, "srt", dir, "movie")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	parsed, err := Import(path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(parsed) != len(sample) {
		t.Fatalf("entries = %d, want %d", len(parsed), len(sample))
	}
	for i := range parsed {
		if parsed[i].Text != sample[i].Text {
			t.Fatalf("entry %d text = %q, want %q", i, parsed[i].Text, sample[i].Text)
		}
		if parsed[i].StartTime != sample[i].StartTime || parsed[i].EndTime != sample[i].EndTime {
			t.Fatalf("entry %d times = %v..%v, want %v..%v",
				i, parsed[i].StartTime, parsed[i].EndTime, sample[i].StartTime, sample[i].EndTime)
		}
	}
}

// TestParseSRTSkipsMalformedBlocks verifies broken blocks do not abort
// parsing.
func TestParseSRTSkipsMalformedBlocks(t *testing.T) {
	content := "1\n00:00:00,000 --> 00:00:01,000\nGood\n\ngarbage block\n\n3\n00:00:02,000 --> 00:00:03,000\nAlso good\n"
	subs, err := ParseSRT(content)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("entries = %d, want 2", len(subs))
	}
}

// TestParseVTTWithCueSettings verifies trailing cue settings are tolerated.
func TestParseVTTWithCueSettings(t *testing.T) {
	content := "WEBVTT\n\n1\n00:00:00.000 --> 00:00:01.500 line:90%\nStyled cue\n"
	subs, err := ParseVTT(content)
	if err != nil {
		t.Fatalf("ParseVTT: %v", err)
	}
	if len(subs) != 1 || subs[0].EndTime != 1.5 {
		t.Fatalf("parsed = %+v", subs)
	}
}

// TestImportUnsupportedExtension verifies extension dispatch.
func TestImportUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.sub")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Import(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

// readFile loads a file or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
