package subtitle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flowtext/internal/domain"
)

// Formats lists the supported export formats.
func Formats() []string {
	return []string{"srt", "vtt", "ass", "txt", "json"}
}

// Export writes subtitles in the given format to dir, naming the file
// "<name>.<format>", and returns the written path.
func Export(subtitles []domain.Subtitle, format, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	format = strings.ToLower(strings.TrimSpace(format))
	path := filepath.Join(dir, name+"."+format)

	var content string
	switch format {
	case "srt":
		content = renderSRT(subtitles)
	case "vtt":
		content = renderVTT(subtitles)
	case "ass":
		content = renderASS(subtitles)
	case "txt":
		content = renderTXT(subtitles)
	case "json":
		data, err := json.MarshalIndent(subtitles, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal subtitles: %w", err)
		}
		content = string(data)
	default:
		return "", fmt.Errorf("unsupported subtitle format: %s", format)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// DefaultExportDir returns the fallback directory for exported subtitles.
func DefaultExportDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, "Documents", "Subtitles")
}

// renderSRT produces numbered SRT blocks.
func renderSRT(subtitles []domain.Subtitle) string {
	var b strings.Builder
	for i, sub := range subtitles {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatSRT(sub.StartTime), formatSRT(sub.EndTime))
		fmt.Fprintf(&b, "%s\n\n", sub.Text)
	}
	return b.String()
}

// renderVTT produces a WEBVTT document with numbered cues.
func renderVTT(subtitles []domain.Subtitle) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, sub := range subtitles {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatVTT(sub.StartTime), formatVTT(sub.EndTime))
		fmt.Fprintf(&b, "%s\n\n", sub.Text)
	}
	return b.String()
}

// assHeader is the static script preamble for generated ASS files.
const assHeader = `[Script Info]
Title: FlowText Generated Subtitles
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes
YCbCr Matrix: TV.601

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

// renderASS produces an Advanced SubStation Alpha document.
func renderASS(subtitles []domain.Subtitle) string {
	var b strings.Builder
	b.WriteString(assHeader)
	for _, sub := range subtitles {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASS(sub.StartTime), formatASS(sub.EndTime), sub.Text)
	}
	return b.String()
}

// renderTXT produces a plain text listing with bracketed time ranges.
func renderTXT(subtitles []domain.Subtitle) string {
	var b strings.Builder
	for _, sub := range subtitles {
		fmt.Fprintf(&b, "[%s] - [%s]\n", formatSRT(sub.StartTime), formatSRT(sub.EndTime))
		fmt.Fprintf(&b, "%s\n\n", sub.Text)
	}
	return b.String()
}
