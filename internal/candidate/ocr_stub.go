//go:build !ocr

package candidate

import "context"

// OCREnabled reports whether Tesseract support is compiled in.
// Build with -tags ocr (needs the tesseract and leptonica headers) to enable it.
const OCREnabled = false

// OCRCounter is the stand-in used when OCR is not compiled in. CountText
// always fails with ErrOCRNotEnabled.
type OCRCounter struct {
	Languages []string
}

// NewOCRCounter returns a counter for the given Tesseract languages ("eng" when empty).
func NewOCRCounter(langs ...string) *OCRCounter {
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &OCRCounter{Languages: langs}
}

func (o *OCRCounter) CountText(context.Context, []byte) (int, error) {
	return 0, ErrOCRNotEnabled
}
