package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on the gosseract client. Mode selects the
// page segmentation behavior; the pipeline uses a block-mode engine for the
// cheap pass and a sparse-mode engine as the independent escalation engine.
type TesseractEngine struct {
	name          string
	pageSegMode   gosseract.PageSegMode
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine returns the standard engine: single uniform block of
// text, which fits full-page scans of tabular filings.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{
		name:          "tesseract",
		pageSegMode:   gosseract.PSM_SINGLE_BLOCK,
		clientFactory: gosseract.NewClient,
	}
}

// NewSparseTesseractEngine returns the escalation engine: sparse-text
// segmentation finds amounts in ruled tables that block mode misses.
func NewSparseTesseractEngine() *TesseractEngine {
	return &TesseractEngine{
		name:          "tesseract-sparse",
		pageSegMode:   gosseract.PSM_SPARSE_TEXT,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return e.name }

// Recognize runs tesseract over the input and returns plain text plus
// line-level boxes rebuilt from word geometry.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	imgData, err := cropToRegion(in.Image, in.Region)
	if err != nil {
		return Result{}, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(imgData); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	langs := in.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := c.SetLanguage(langs...); err != nil {
		return Result{}, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(e.pageSegMode); err != nil {
		return Result{}, fmt.Errorf("set page seg mode: %w", err)
	}
	if err := c.SetVariable(gosseract.SettableVariable("preserve_interword_spaces"), "1"); err != nil {
		return Result{}, fmt.Errorf("set variable: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		// Plain text alone is still usable; line-walking extractors get nothing.
		return Result{PlainText: text}, nil
	}

	return Result{PlainText: text, Lines: groupBoxesIntoLines(boxes, in.Region)}, nil
}

// groupBoxesIntoLines merges word boxes into line entries keyed by the
// engine's block/paragraph/line numbering, with a union bounding box per
// line. Line coordinates are shifted back into full-image space when a region
// crop was applied.
func groupBoxesIntoLines(boxes []gosseract.BoundingBox, region *Rect) []Line {
	offsetX, offsetY := 0.0, 0.0
	if region != nil {
		offsetX, offsetY = region.X, region.Y
	}

	type key struct{ block, par, line int }
	order := make([]key, 0)
	groups := make(map[key][]Word)

	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		k := key{b.BlockNum, b.ParNum, b.LineNum}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], Word{
			Text: b.Word,
			Bounds: Rect{
				X:      float64(b.Box.Min.X) + offsetX,
				Y:      float64(b.Box.Min.Y) + offsetY,
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
			Confidence: b.Confidence / 100.0,
		})
	}

	lines := make([]Line, 0, len(order))
	for _, k := range order {
		lines = append(lines, buildLine(groups[k]))
	}
	sortLinesByY(lines)
	return lines
}

func buildLine(words []Word) Line {
	var text bytes.Buffer
	minX, minY := words[0].Bounds.X, words[0].Bounds.Y
	maxX := words[0].Bounds.X + words[0].Bounds.Width
	maxY := words[0].Bounds.Y + words[0].Bounds.Height

	for i, w := range words {
		if i > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(w.Text)
		if w.Bounds.X < minX {
			minX = w.Bounds.X
		}
		if w.Bounds.Y < minY {
			minY = w.Bounds.Y
		}
		if right := w.Bounds.X + w.Bounds.Width; right > maxX {
			maxX = right
		}
		if bottom := w.Bounds.Y + w.Bounds.Height; bottom > maxY {
			maxY = bottom
		}
	}

	return Line{
		Text:   text.String(),
		Bounds: Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
		Words:  words,
	}
}

func sortLinesByY(lines []Line) {
	// Insertion sort: line counts are small and near-sorted already.
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j].Bounds.Y < lines[j-1].Bounds.Y; j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}

// cropToRegion re-encodes the subsection of img covered by region, or returns
// img unchanged when region is nil or empty.
func cropToRegion(imgData []byte, region *Rect) ([]byte, error) {
	if region == nil || region.Width <= 0 || region.Height <= 0 {
		return imgData, nil
	}

	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("decode image for crop: %w", err)
	}

	bounds := img.Bounds()
	crop := image.Rect(
		bounds.Min.X+int(region.X),
		bounds.Min.Y+int(region.Y),
		bounds.Min.X+int(region.X+region.Width),
		bounds.Min.Y+int(region.Y+region.Height),
	).Intersect(bounds)
	if crop.Empty() {
		return imgData, nil
	}

	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return imgData, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(crop)); err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}
