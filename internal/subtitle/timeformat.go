// Package subtitle serializes timed text entries to and from common
// subtitle file formats.
package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatSRT renders seconds as HH:MM:SS,mmm.
func formatSRT(seconds float64) string {
	h, m, s, ms := splitSeconds(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// formatVTT renders seconds as HH:MM:SS.mmm.
func formatVTT(seconds float64) string {
	h, m, s, ms := splitSeconds(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// formatASS renders seconds as H:MM:SS.cc (centiseconds).
func formatASS(seconds float64) string {
	h, m, s, ms := splitSeconds(seconds)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, ms/10)
}

// splitSeconds decomposes a duration in seconds into clock components.
func splitSeconds(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	ms = int(math.Round((seconds - float64(total)) * 1000))
	if ms >= 1000 {
		total++
		ms -= 1000
	}
	h = total / 3600
	m = (total % 3600) / 60
	s = total % 60
	return h, m, s, ms
}

// parseClock parses "HH:MM:SS,mmm" or "HH:MM:SS.mmm" into seconds.
func parseClock(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	normalized := strings.Replace(raw, ",", ".", 1)

	parts := strings.Split(normalized, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp: %q", raw)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q", raw)
	}
	s, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q", raw)
	}

	return float64(h)*3600 + float64(m)*60 + s, nil
}
