// Package ocr recovers structured fields from scanned document page images.
package ocr

import "context"

// Rect is a pixel-coordinate rectangle with the origin at the image's
// upper-left corner.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Bottom returns the rectangle's lower edge Y coordinate.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Word is a single recognized token with its bounding box.
type Word struct {
	Text       string
	Bounds     Rect
	Confidence float64
}

// Line groups words sharing a baseline, with a union bounding box. The field
// extractors walk lines by vertical position, so Bounds must be populated.
type Line struct {
	Text   string
	Bounds Rect
	Words  []Word
}

// Input is one image submitted for recognition.
type Input struct {
	// Image is PNG-encoded page data.
	Image []byte
	// Region restricts recognition to a subsection of the image; nil means
	// the full page.
	Region *Rect
	// Languages holds tesseract language hints; empty means "eng".
	Languages []string
}

// Result is the recognition output for one input.
type Result struct {
	PlainText string
	Lines     []Line
}

// Engine is the recognition provider contract. The pipeline escalates through
// engines in priority order, so implementations must be swappable.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}
