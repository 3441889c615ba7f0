package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flowtext/internal/domain"
)

// Import reads a subtitle file, dispatching on its extension. SRT and VTT
// are supported.
func Import(path string) ([]domain.Subtitle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return ParseSRT(string(data))
	case ".vtt":
		return ParseVTT(string(data))
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", filepath.Ext(path))
	}
}

// ParseSRT parses SRT content into timed entries. Malformed blocks are
// skipped rather than failing the whole file.
func ParseSRT(content string) ([]domain.Subtitle, error) {
	var subtitles []domain.Subtitle

	for i, block := range splitBlocks(content) {
		lines := strings.Split(block, "\n")
		timeLine := -1
		for j, line := range lines {
			if strings.Contains(line, "-->") {
				timeLine = j
				break
			}
		}
		if timeLine < 0 || timeLine+1 >= len(lines) {
			continue
		}

		start, end, err := parseTimeRange(lines[timeLine])
		if err != nil {
			continue
		}

		text := strings.TrimSpace(strings.Join(lines[timeLine+1:], "\n"))
		if text == "" {
			continue
		}

		subtitles = append(subtitles, domain.Subtitle{
			ID:        fmt.Sprintf("sub_%d", i+1),
			StartTime: start,
			EndTime:   end,
			Text:      text,
		})
	}

	if len(subtitles) == 0 {
		return nil, fmt.Errorf("no subtitle entries found")
	}
	return subtitles, nil
}

// ParseVTT parses WebVTT content, tolerating the header line and cue ids.
func ParseVTT(content string) ([]domain.Subtitle, error) {
	content = strings.TrimPrefix(strings.TrimPrefix(content, "\ufeff"), "WEBVTT")
	return ParseSRT(content)
}

// splitBlocks separates subtitle content into blank-line-delimited blocks.
func splitBlocks(content string) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	var blocks []string
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// parseTimeRange parses one "start --> end" cue timing line.
func parseTimeRange(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time range: %q", line)
	}

	// VTT cue settings may trail the end timestamp.
	endRaw := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endRaw) == 0 {
		return 0, 0, fmt.Errorf("invalid time range: %q", line)
	}

	start, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(endRaw[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
