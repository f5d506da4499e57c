package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Rendering is one candidate preprocessing of a page image. No single
// rendering is reliably best across scans, so the recognition strategies try
// several in order.
type Rendering struct {
	Name  string
	Image image.Image
}

// Renderings produces the candidate renderings for a captured page, cheapest
// first. The ruled-line-removal variants exist because table borders bleed
// into glyphs on low-quality scans and break amount recognition.
func Renderings(src image.Image) []Rendering {
	gray := imaging.Grayscale(src)
	contrast := imaging.AdjustContrast(gray, 25)
	denoised := imaging.Sharpen(imaging.Blur(gray, 0.6), 1.0)
	upscaled := upscale(gray, 2.0)
	binary := adaptiveThreshold(toGray(contrast), 31, 10)
	noLines := removeRuledLines(cloneGray(binary))

	return []Rendering{
		{Name: "grayscale", Image: gray},
		{Name: "contrast", Image: contrast},
		{Name: "denoised", Image: denoised},
		{Name: "upscaled", Image: upscaled},
		{Name: "binary", Image: binary},
		{Name: "binary-nolines", Image: noLines},
	}
}

// EncodePNG renders an image to PNG bytes for the recognition engines.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode rendering: %w", err)
	}
	return buf.Bytes(), nil
}

// upscale resizes by factor with Catmull-Rom interpolation. Small-font scans
// recognize much better at 2x.
func upscale(src image.Image, factor float64) image.Image {
	bounds := src.Bounds()
	w := int(float64(bounds.Dx()) * factor)
	h := int(float64(bounds.Dy()) * factor)
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	bounds := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, bounds.Min, xdraw.Src)
	return dst
}

func cloneGray(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// adaptiveThreshold binarizes a grayscale image: a pixel turns black when it
// is darker than its window mean minus bias. Implemented over an integral
// image so the window size does not affect cost.
func adaptiveThreshold(src *image.Gray, window, bias int) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return src
	}

	// integral[y][x] = sum of pixels in the rectangle (0,0)-(x-1,y-1).
	integral := make([][]int64, h+1)
	integral[0] = make([]int64, w+1)
	for y := 0; y < h; y++ {
		integral[y+1] = make([]int64, w+1)
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	half := window / 2
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			area := int64((y1 - y0 + 1) * (x1 - x0 + 1))
			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := sum / area

			v := int64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			if v < mean-int64(bias) {
				dst.Pix[y*dst.Stride+x] = 0
			} else {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// removeRuledLines erases long straight runs of black pixels (table borders)
// from a binarized image, in place. Run length thresholds scale with the
// image so small glyph strokes survive.
func removeRuledLines(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	hLen := max(20, w/30)
	vLen := max(20, h/30)

	// Horizontal rules.
	for y := 0; y < h; y++ {
		run := 0
		for x := 0; x <= w; x++ {
			if x < w && img.Pix[y*img.Stride+x] == 0 {
				run++
				continue
			}
			if run >= hLen {
				for i := x - run; i < x; i++ {
					img.Pix[y*img.Stride+i] = 255
				}
			}
			run = 0
		}
	}

	// Vertical rules.
	for x := 0; x < w; x++ {
		run := 0
		for y := 0; y <= h; y++ {
			if y < h && img.Pix[y*img.Stride+x] == 0 {
				run++
				continue
			}
			if run >= vLen {
				for i := y - run; i < y; i++ {
					img.Pix[i*img.Stride+x] = 255
				}
			}
			run = 0
		}
	}

	return img
}
