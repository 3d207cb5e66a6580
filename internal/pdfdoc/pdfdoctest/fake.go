// Package pdfdoctest provides in-memory documents for tests.
package pdfdoctest

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/local/pdfpreview/internal/pdfdoc"
)

// Doc is an in-memory pdfdoc.Doc. Each page renders as a solid image whose red
// channel equals the page index, so tests can tell rendered pages apart.
type Doc struct {
	Texts []string // one entry per page
	W, H  int      // page size in pixels at 72 DPI; defaults to 60x80

	mu       sync.Mutex
	closed   bool
	rendered []int
}

// New returns a document with n pages, each carrying some text.
func New(n int) *Doc {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("page %d", i+1)
	}
	return &Doc{Texts: texts}
}

func (d *Doc) NumPage() int { return len(d.Texts) }

func (d *Doc) Image(page int, dpi float64) (image.Image, error) {
	if page < 0 || page >= len(d.Texts) {
		return nil, fmt.Errorf("page %d out of range", page+1)
	}
	w, h := d.W, d.H
	if w == 0 || h == 0 {
		w, h = 60, 80
	}
	img := image.NewRGBA(image.Rect(0, 0, int(float64(w)*dpi/72), int(float64(h)*dpi/72)))
	c := color.RGBA{R: uint8(page), G: 0x80, B: 0x80, A: 0xff}
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	d.mu.Lock()
	d.rendered = append(d.rendered, page)
	d.mu.Unlock()
	return img, nil
}

func (d *Doc) Text(page int) (string, error) {
	if page < 0 || page >= len(d.Texts) {
		return "", fmt.Errorf("page %d out of range", page+1)
	}
	return d.Texts[page], nil
}

func (d *Doc) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (d *Doc) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Rendered returns the pages rendered so far, in call order.
func (d *Doc) Rendered() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.rendered...)
}

// PageOf returns the page index encoded in an image rendered by Doc.
func PageOf(img image.Image) int {
	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	return int(r >> 8)
}

// Opener serves documents from a map keyed by path.
type Opener map[string]pdfdoc.Doc

func (o Opener) Open(path string) (pdfdoc.Doc, error) {
	d, ok := o[path]
	if !ok {
		return nil, fmt.Errorf("failed to open PDF: %s not found", path)
	}
	return d, nil
}
