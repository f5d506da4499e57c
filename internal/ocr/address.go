package ocr

import (
	"regexp"
	"strings"
)

// AddressCandidate is one postal address block found on a page.
type AddressCandidate struct {
	Address string
	Zipcode string
}

// Only the states this portal's filings realistically reference. Widening
// the list multiplies false matches on form boilerplate.
var stateZipPattern = regexp.MustCompile(`(?i)\b(?:GA|FL)\b\s*,?\s*(\d{5})(?:-\d{4})?\b`)

var (
	addressSkipPattern = regexp.MustCompile(`(?i)\b(fifa|county|commissioner|tax|court)\b`)
	locationLabel      = regexp.MustCompile(`(?i)\blocation\b\s*:?`)
	floatNoise         = regexp.MustCompile(`\b\d+\.\d+\b`)
	disallowedChars    = regexp.MustCompile(`[^A-Za-z0-9,.\s\n]`)
	streetStart        = regexp.MustCompile(`(?i)\b(\d+\s+[A-Za-z]|P\.?\s*O\.?\s*BOX)`)
	newlineRuns        = regexp.MustCompile(`\s*\n\s*`)
	spaceRuns          = regexp.MustCompile(`\s{2,}`)
	commaSpacing       = regexp.MustCompile(`\s*,\s*`)
	commaRuns          = regexp.MustCompile(`(, ){2,}`)
)

// ExtractAddresses walks recognized lines for a state-plus-zip anchor and
// gathers the address block above it. A match pulls in up to three preceding
// lines, stopping early when the vertical gap to the previous line exceeds
// 2.5 line heights (a different paragraph) and discarding the whole block if
// it carries non-address vocabulary. Blocks are deduplicated by normalized
// lowercase text.
func ExtractAddresses(lines []Line) []AddressCandidate {
	var out []AddressCandidate
	seen := make(map[string]struct{})

	for i, ln := range lines {
		text := strings.TrimSpace(ln.Text)
		if text == "" {
			continue
		}
		m := stateZipPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		zip := m[1]

		picked := []int{i}
		lineH := max(1.0, ln.Bounds.Height)
		maxGap := 2.5 * lineH

		for j := i - 1; j >= 0 && len(picked) < 4; j-- {
			prev := lines[j]
			if strings.TrimSpace(prev.Text) == "" {
				continue
			}
			gap := lines[picked[len(picked)-1]].Bounds.Y - prev.Bounds.Bottom()
			if gap > maxGap {
				break
			}
			picked = append(picked, j)
		}

		// picked was accumulated bottom-up.
		var blockLines []string
		for k := len(picked) - 1; k >= 0; k-- {
			if t := strings.TrimSpace(lines[picked[k]].Text); t != "" {
				blockLines = append(blockLines, t)
			}
		}
		block := strings.Join(blockLines, "\n")
		if block == "" || addressSkipPattern.MatchString(block) {
			continue
		}

		cleaned := cleanupAddressBlock(block)
		if cleaned == "" {
			continue
		}

		norm := strings.ToLower(strings.Join(strings.Fields(cleaned), " "))
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, AddressCandidate{Address: cleaned, Zipcode: zip})
	}
	return out
}

// cleanupAddressBlock trims the block back to a plausible street or P.O. Box
// start, strips the recurring recognition artifacts around it, and flattens
// the block to a single comma-joined line.
func cleanupAddressBlock(block string) string {
	// Everything after the first exact state+zip match is trailing noise.
	if loc := stateZipPattern.FindStringIndex(block); loc != nil {
		block = block[:loc[1]]
	}
	if loc := streetStart.FindStringIndex(block); loc != nil {
		block = block[loc[0]:]
	}

	block = locationLabel.ReplaceAllString(block, " ")
	block = floatNoise.ReplaceAllString(block, " ")
	block = disallowedChars.ReplaceAllString(block, " ")

	block = newlineRuns.ReplaceAllString(block, ", ")
	block = spaceRuns.ReplaceAllString(block, " ")
	block = commaSpacing.ReplaceAllString(block, ", ")
	block = commaRuns.ReplaceAllString(block, ", ")
	return strings.Trim(block, " ,")
}
