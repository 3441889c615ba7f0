package language

import "testing"

// TestForEngine verifies per-engine catalogs and unknown engine rejection.
func TestForEngine(t *testing.T) {
	whisper, err := ForEngine("whisper")
	if err != nil {
		t.Fatalf("ForEngine(whisper): %v", err)
	}
	if len(whisper) != 8 {
		t.Fatalf("whisper languages = %d, want 8", len(whisper))
	}

	cloud, err := ForEngine("cloud")
	if err != nil {
		t.Fatalf("ForEngine(cloud): %v", err)
	}
	if len(cloud) != 4 {
		t.Fatalf("cloud languages = %d, want 4", len(cloud))
	}

	if _, err := ForEngine("nope"); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

// TestNormalize verifies regional and alternate codes collapse onto the
// engine's code set.
func TestNormalize(t *testing.T) {
	cases := []struct {
		engine string
		in     string
		want   string
	}{
		{"whisper", "", Auto},
		{"whisper", "AUTO", Auto},
		{"whisper", "en", "en"},
		{"whisper", "en-US", "en"},
		{"whisper", "zh-CN", "zh"},
		{"cloud", "ja-JP", "ja"},
	}

	for _, tc := range cases {
		got, err := Normalize(tc.engine, tc.in)
		if err != nil {
			t.Fatalf("Normalize(%s, %q): %v", tc.engine, tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%s, %q) = %q, want %q", tc.engine, tc.in, got, tc.want)
		}
	}
}

// TestNormalizeRejectsGarbage verifies unparseable codes fail.
func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize("whisper", "!!"); err == nil {
		t.Fatal("expected error for invalid code")
	}
}

// TestDisplayName verifies catalog names and fallback behavior.
func TestDisplayName(t *testing.T) {
	if got := DisplayName("en"); got != "English" {
		t.Fatalf("DisplayName(en) = %q, want English", got)
	}
	if got := DisplayName("xx"); got != "xx" {
		t.Fatalf("DisplayName(xx) = %q, want xx", got)
	}
}
