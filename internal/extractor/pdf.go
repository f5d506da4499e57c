package extractor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/signintech/gopdf"
)

// WritePDF rotates each captured page back upright and assembles the pages
// into a single PDF at path. Page size follows each image's pixel dimensions
// so the document is never rescaled.
func WritePDF(path string, pages [][]byte) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages to assemble")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	pdf := gopdf.GoPdf{}
	started := false
	for i, data := range pages {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decode page %d: %w", i+1, err)
		}
		// The viewer capture rotates right; undo it.
		upright := imaging.Rotate90(img)

		b := upright.Bounds()
		rect := gopdf.Rect{W: float64(b.Dx()), H: float64(b.Dy())}
		if !started {
			pdf.Start(gopdf.Config{PageSize: rect})
			started = true
		}
		pdf.AddPageWithOption(gopdf.PageOption{PageSize: &rect})
		if err := pdf.ImageFrom(upright, 0, 0, &rect); err != nil {
			return fmt.Errorf("place page %d: %w", i+1, err)
		}
	}

	if err := pdf.WritePdf(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}

// UprightPNG rotates a captured page back upright and re-encodes it, for the
// page images kept alongside the PDF so recognition can be rerun offline.
func UprightPNG(capture []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(capture))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Rotate90(img), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode upright page: %w", err)
	}
	return buf.Bytes(), nil
}
