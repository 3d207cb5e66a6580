package imagerender

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfpreview/internal/metrics"
	"github.com/local/pdfpreview/internal/pdfdoc"
)

// ColorMode defines the color mode for rendering
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// DefaultDPI matches the resolution previews have always been exported at.
const DefaultDPI = 150

// ParseColorMode maps a configuration value to a ColorMode, defaulting to RGB.
func ParseColorMode(s string) ColorMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ColorGray)) {
		return ColorGray
	}
	return ColorRGB
}

// Renderer rasterizes document pages.
type Renderer struct {
	DPI   int
	Color ColorMode
}

// Page renders the zero-based page of d.
func (r Renderer) Page(d pdfdoc.Doc, page int) (image.Image, error) {
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	start := time.Now()
	img, err := d.Image(page, float64(dpi))
	if err != nil {
		return nil, err
	}
	metrics.ObserveRender(time.Since(start))

	bounds := img.Bounds()
	if r.Color == ColorGray {
		gray := image.NewGray(bounds)
		draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
		img = gray
	}

	log.Debug().
		Int("page", page+1).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("dpi", dpi).
		Str("color", string(r.colorOrDefault())).
		Msg("rendered page")
	return img, nil
}

func (r Renderer) colorOrDefault() ColorMode {
	if r.Color == "" {
		return ColorRGB
	}
	return r.Color
}

// Thumbnail scales img down to fit within w x h, keeping its aspect ratio.
// Images already inside the box are returned unscaled.
func Thumbnail(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
