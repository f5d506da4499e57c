package ocr

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

// AmountCandidate is a dollar value found on a page together with the
// evidence for it being the total due.
type AmountCandidate struct {
	Value   float64
	Raw     string
	Line    string
	Keyword string
	Score   float64
}

// keywordWeights rank how strongly a label on the same line indicates the
// lien total. Longer labels are checked before their substrings.
var keywordWeights = []struct {
	Keyword string
	Weight  float64
}{
	{"TOTAL DUE", 12},
	{"TOTAL LIEN", 10},
	{"TOTAL AMOUNT", 10},
	{"BALANCE DUE", 10},
	{"TOTAL", 8},
	{"PAID AMOUNT", 8},
	{"BALANCE", 6},
	{"PAID", 4},
	{"DUE", 4},
	{"TAX", 2},
}

var (
	moneyPattern = regexp.MustCompile(`\$?\s*\d{1,3}(?:,\d{3})*\.\d{2}\b|\$\s*\d+(?:\.\d{1,2})?`)
	digitsOnly   = regexp.MustCompile(`[^0-9.]`)
	sDollar      = regexp.MustCompile(`S(\d)`)
)

// NormalizeAmountText repairs the recurring recognition confusions around
// dollar signs before any money matching runs.
func NormalizeAmountText(text string) string {
	text = strings.ReplaceAll(text, "§", "$")
	return sDollar.ReplaceAllString(text, "$$$1")
}

// ExtractAmounts scans recognized text line by line and returns every money
// value found, scored and sorted best first. The per-thousand bias nudges
// ties toward the larger figure on a page, which is the accumulated total
// rather than a single year's tax.
func ExtractAmounts(text string) []AmountCandidate {
	var out []AmountCandidate
	for _, line := range strings.Split(NormalizeAmountText(text), "\n") {
		upper := strings.ToUpper(line)
		for _, raw := range moneyPattern.FindAllString(line, -1) {
			value, ok := parseMoney(raw)
			if !ok {
				continue
			}
			cand := AmountCandidate{
				Value: value,
				Raw:   strings.TrimSpace(raw),
				Line:  strings.TrimSpace(line),
				Score: value / 1000,
			}
			for _, kw := range keywordWeights {
				if strings.Contains(upper, kw.Keyword) {
					cand.Keyword = kw.Keyword
					cand.Score += kw.Weight
					break
				}
			}
			out = append(out, cand)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// BestAmount returns the highest-scoring candidate, or false when the page
// yielded no money values at all.
func BestAmount(text string) (AmountCandidate, bool) {
	cands := ExtractAmounts(text)
	if len(cands) == 0 {
		return AmountCandidate{}, false
	}
	return cands[0], true
}

// componentLabels are the itemized lines a fi. fa. breaks the total into.
// Payments subtract.
var componentLabels = []struct {
	Label string
	Sign  float64
}{
	{"TAX", 1},
	{"PENALTY", 1},
	{"INTEREST", 1},
	{"FEE", 1},
	{"COST", 1},
	{"PAYMENT", -1},
}

// FallbackComponentTotal reconstructs a total by summing the itemized
// component lines when no line carries a total keyword. It returns false
// unless at least two components were found, since a single line proves
// nothing about the overall figure.
func FallbackComponentTotal(text string) (float64, bool) {
	var sum float64
	found := 0
	for _, line := range strings.Split(NormalizeAmountText(text), "\n") {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "TOTAL") {
			continue
		}
		for _, comp := range componentLabels {
			if !strings.Contains(upper, comp.Label) {
				continue
			}
			matches := moneyPattern.FindAllString(line, -1)
			if len(matches) == 0 {
				break
			}
			if value, ok := parseMoney(matches[len(matches)-1]); ok {
				sum += comp.Sign * value
				found++
			}
			break
		}
	}
	if found < 2 || sum <= 0 {
		return 0, false
	}
	return round2(sum), true
}

// FuzzyTotal is the last resort for badly degraded scans: it finds the line
// most similar to a total label by Jaro-Winkler distance and takes the money
// value on it, requiring a reasonably confident match.
func FuzzyTotal(text string) (AmountCandidate, bool) {
	const threshold = 0.82
	labels := []string{"TOTAL DUE", "TOTAL LIEN", "BALANCE DUE"}

	best := AmountCandidate{}
	bestSim := 0.0
	for _, line := range strings.Split(NormalizeAmountText(text), "\n") {
		matches := moneyPattern.FindAllString(line, -1)
		if len(matches) == 0 {
			continue
		}
		upper := strings.ToUpper(strings.TrimSpace(line))
		for _, word := range strings.Fields(upper) {
			for _, label := range labels {
				sim := matchr.JaroWinkler(word, label, false)
				if sim <= bestSim {
					continue
				}
				if value, ok := parseMoney(matches[len(matches)-1]); ok {
					bestSim = sim
					best = AmountCandidate{
						Value:   value,
						Raw:     strings.TrimSpace(matches[len(matches)-1]),
						Line:    strings.TrimSpace(line),
						Keyword: label,
						Score:   sim,
					}
				}
			}
		}
	}
	if bestSim < threshold {
		return AmountCandidate{}, false
	}
	return best, true
}

func parseMoney(raw string) (float64, bool) {
	cleaned := digitsOnly.ReplaceAllString(raw, "")
	if cleaned == "" || cleaned == "." {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
