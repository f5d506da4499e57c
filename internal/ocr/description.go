package ocr

import (
	"regexp"
	"strings"
)

var (
	descriptionLabel = regexp.MustCompile(`(?i)\b(?:description|property\s+location)\b\s*:?\s*`)
	descriptionNoise = regexp.MustCompile(`[^A-Za-z0-9,.\- ]`)
	pureNumber       = regexp.MustCompile(`^[\d\s,.\-]+$`)

	// Lines that are really fee or tax schedule rows, not property text.
	descriptionReject = regexp.MustCompile(`(?i)\b(fifa|penalt(?:y|ies)|interest|cost(?:s)?|fee(?:s)?|tax(?:es)?\s+due)\b`)
)

// ExtractDescription finds a description or property-location label in
// recognized text and returns the value that follows it, either the rest of
// the labeled line or the next non-empty line. Returns "" when nothing
// usable follows the label.
func ExtractDescription(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		loc := descriptionLabel.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if v := cleanDescription(line[loc[1]:]); v != "" {
			return v
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			return cleanDescription(lines[j])
		}
	}
	return ""
}

func cleanDescription(raw string) string {
	cleaned := descriptionNoise.ReplaceAllString(raw, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" || pureNumber.MatchString(cleaned) || descriptionReject.MatchString(cleaned) {
		return ""
	}
	return cleaned
}
