package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"regexp"
	"strconv"
	"strings"
)

// Fields is everything the recognition pipeline derives from one page image.
type Fields struct {
	RawText     string
	TotalDue    string
	Addresses   []AddressCandidate
	Description string
}

// Zipcodes returns the distinct zipcodes of the found addresses, in order.
func (f Fields) Zipcodes() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, a := range f.Addresses {
		if _, dup := seen[a.Zipcode]; dup {
			continue
		}
		seen[a.Zipcode] = struct{}{}
		out = append(out, a.Zipcode)
	}
	return out
}

// Pipeline runs tiered text recognition over a page image. The cheap
// full-page pass usually suffices; the narrow bottom-region passes over
// alternate renderings, and finally the secondary engine, run only when the
// markers that matter are still missing.
type Pipeline struct {
	primary   Engine
	secondary Engine
	verbose   bool
}

// NewPipeline wires the default engine pair.
func NewPipeline(verbose bool) *Pipeline {
	return &Pipeline{
		primary:   NewTesseractEngine(),
		secondary: NewSparseTesseractEngine(),
		verbose:   verbose,
	}
}

// NewPipelineWithEngines exists for tests and for swapping the secondary
// recognizer.
func NewPipelineWithEngines(primary, secondary Engine, verbose bool) *Pipeline {
	return &Pipeline{primary: primary, secondary: secondary, verbose: verbose}
}

var (
	totalMarker   = regexp.MustCompile(`(?i)\bTOTAL\b`)
	decimalAmount = regexp.MustCompile(`\d+\.\d{2}\b`)
)

// hasRequiredMarkers reports whether a pass already found what the field
// extractors need: a total keyword alongside a decimal amount, or a
// description label.
func hasRequiredMarkers(text string) bool {
	if totalMarker.MatchString(text) && decimalAmount.MatchString(text) {
		return true
	}
	return descriptionLabel.MatchString(text)
}

// Recognize runs the escalation over one PNG page image and extracts the
// derived fields from the best text obtained.
func (p *Pipeline) Recognize(ctx context.Context, png []byte) (Fields, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return Fields{}, fmt.Errorf("decode page image: %w", err)
	}

	result, err := p.primary.Recognize(ctx, Input{Image: png})
	if err != nil {
		return Fields{}, fmt.Errorf("full-page pass: %w", err)
	}
	text := result.PlainText
	lines := result.Lines

	if !hasRequiredMarkers(text) {
		extra, extraLines := p.escalate(ctx, png, cfg)
		if extra != "" {
			text = text + "\n" + extra
			lines = append(lines, extraLines...)
		}
	}

	fields := Fields{
		RawText:   text,
		Addresses: ExtractAddresses(lines),
	}
	fields.Description = ExtractDescription(text)
	fields.TotalDue = p.totalDue(text)
	return fields, nil
}

// escalate reruns recognition over the bottom region where tabular totals
// live, trying the candidate renderings with the primary engine and then,
// still empty-handed, the secondary engine over the raw crop.
func (p *Pipeline) escalate(ctx context.Context, png []byte, cfg image.Config) (string, []Line) {
	region := &Rect{
		X:      0,
		Y:      float64(cfg.Height * 55 / 100),
		Width:  float64(cfg.Width),
		Height: float64(cfg.Height - cfg.Height*55/100),
	}

	src, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		return "", nil
	}

	for _, rendering := range Renderings(src) {
		if ctx.Err() != nil {
			return "", nil
		}
		encoded, err := EncodePNG(rendering.Image)
		if err != nil {
			continue
		}
		// Renderings may be scaled; recompute the region against each.
		b := rendering.Image.Bounds()
		r := &Rect{X: 0, Y: float64(b.Dy() * 55 / 100), Width: float64(b.Dx()), Height: float64(b.Dy() - b.Dy()*55/100)}

		result, err := p.primary.Recognize(ctx, Input{Image: encoded, Region: r})
		if err != nil {
			if p.verbose {
				log.Printf("[OCR] rendering %s failed: %v", rendering.Name, err)
			}
			continue
		}
		if hasRequiredMarkers(result.PlainText) {
			if p.verbose {
				log.Printf("[OCR] bottom-region pass succeeded on rendering %s", rendering.Name)
			}
			return result.PlainText, result.Lines
		}
	}

	result, err := p.secondary.Recognize(ctx, Input{Image: png, Region: region})
	if err != nil {
		if p.verbose {
			log.Printf("[OCR] %s pass failed: %v", p.secondary.Name(), err)
		}
		return "", nil
	}
	if p.verbose {
		log.Printf("[OCR] escalated to %s", p.secondary.Name())
	}
	return result.PlainText, result.Lines
}

// totalDue runs the extraction ladder: keyword-scored amounts, then the
// component-sum fallback, then fuzzy matching.
func (p *Pipeline) totalDue(text string) string {
	if cand, ok := BestAmount(text); ok {
		return formatMoney(cand.Value)
	}
	if sum, ok := FallbackComponentTotal(text); ok {
		return formatMoney(sum)
	}
	if cand, ok := FuzzyTotal(text); ok {
		return formatMoney(cand.Value)
	}
	return ""
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// JoinAddresses flattens address candidates for tabular output.
func JoinAddresses(cands []AddressCandidate) string {
	var parts []string
	for _, c := range cands {
		parts = append(parts, c.Address)
	}
	return strings.Join(parts, " | ")
}
