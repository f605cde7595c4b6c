package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// confidenceMarker matches the trailing structured confidence the prompts
// instruct the service to emit, e.g. `{"confidence": 0.95}`.
var confidenceMarker = regexp.MustCompile(`"confidence"\s*:\s*(-?[0-9]*\.?[0-9]+)`)

// ParseConfidenceMarker extracts the service's self-reported confidence from
// a response. The value is clamped to [0,1]. It returns false when no marker
// is present or the marker is malformed; callers fall back to their
// modality-specific default rather than trusting a broken marker.
func ParseConfidenceMarker(text string) (float64, bool) {
	m := confidenceMarker.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return Clamp01(v), true
}

// Clamp01 clamps v to the [0,1] confidence range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// StripFences removes a markdown code fence wrapping, which some models add
// around JSON output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// FirstJSONObject returns the first balanced {...} span in text, honoring
// string literals and escapes. It returns false when no balanced object is
// found.
func FirstJSONObject(text string) (string, bool) {
	text = StripFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
