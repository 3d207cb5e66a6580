//go:build ocr

package candidate

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// OCREnabled reports whether Tesseract support is compiled in.
const OCREnabled = true

// OCRCounter counts text characters with Tesseract.
type OCRCounter struct {
	Languages []string

	mu sync.Mutex // a Tesseract client is not safe for concurrent use
}

// NewOCRCounter returns a counter for the given Tesseract languages ("eng" when empty).
func NewOCRCounter(langs ...string) *OCRCounter {
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &OCRCounter{Languages: langs}
}

// CountText runs OCR on data and returns the number of non-space characters found.
func (o *OCRCounter) CountText(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.Languages...); err != nil {
		return 0, fmt.Errorf("ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return 0, fmt.Errorf("ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return 0, fmt.Errorf("ocr: %w", err)
	}
	return countNonSpace(text), nil
}
