// Package language maps user-supplied language codes onto the code sets
// each recognition engine accepts.
package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flowtext/internal/domain"
)

// Auto requests engine-side language detection.
const Auto = "auto"

// whisperCodes lists the languages offered for the local whisper engine.
var whisperCodes = []string{"zh", "en", "ja", "ko", "fr", "de", "es", "ru"}

// cloudCodes lists the languages offered for the cloud engine.
var cloudCodes = []string{"zh", "en", "ja", "ko"}

// englishNames gives display names for the catalog codes.
var englishNames = map[string]string{
	"zh": "chinese",
	"en": "english",
	"ja": "japanese",
	"ko": "korean",
	"fr": "french",
	"de": "german",
	"es": "spanish",
	"ru": "russian",
}

var titleCaser = cases.Title(language.English)

// ForEngine returns the selectable languages of one engine. The mock
// engine accepts the whisper set.
func ForEngine(engine string) ([]domain.Language, error) {
	var codes []string
	switch engine {
	case "whisper", "mock":
		codes = whisperCodes
	case "cloud":
		codes = cloudCodes
	default:
		return nil, fmt.Errorf("unsupported recognition engine: %s", engine)
	}

	out := make([]domain.Language, 0, len(codes))
	for _, code := range codes {
		out = append(out, domain.Language{Code: code, Name: DisplayName(code)})
	}
	return out, nil
}

// Normalize maps an arbitrary user code (for example "en-US" or "eng")
// onto the engine's supported code set. Empty input and Auto pass through
// as Auto.
func Normalize(engine, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, Auto) {
		return Auto, nil
	}

	supported, err := ForEngine(engine)
	if err != nil {
		return "", err
	}

	tags := make([]language.Tag, 0, len(supported))
	for _, lang := range supported {
		tags = append(tags, language.Make(lang.Code))
	}

	desired, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}

	matcher := language.NewMatcher(tags)
	_, index, confidence := matcher.Match(desired)
	if confidence == language.No {
		return "", fmt.Errorf("language %q is not supported by engine %s", code, engine)
	}
	return supported[index].Code, nil
}

// DisplayName returns the human-readable name for a catalog code, falling
// back to the code itself.
func DisplayName(code string) string {
	if name, ok := englishNames[strings.ToLower(code)]; ok {
		return titleCaser.String(name)
	}
	return code
}
