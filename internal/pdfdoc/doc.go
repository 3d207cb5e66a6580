// Package pdfdoc opens PDF documents and exposes page count, page text and
// page rasterization behind small interfaces so callers can swap backends.
package pdfdoc

import (
	"errors"
	"image"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfpreview/internal/selector"
)

// Doc abstracts an open PDF document.
type Doc interface {
	NumPage() int
	Image(page int, dpi float64) (image.Image, error)
	Text(page int) (string, error)
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Doc, error)

func (f OpenerFunc) Open(path string) (Doc, error) { return f(path) }

// defaultOpener is provided in fitz.go using go-fitz.
var defaultOpener Opener

// DefaultOpener returns the go-fitz backed opener.
func DefaultOpener() Opener { return defaultOpener }

// Open opens path with the default opener.
func Open(path string) (Doc, error) {
	if defaultOpener == nil {
		return nil, errors.New("no PDF opener configured")
	}
	return defaultOpener.Open(path)
}

// IsBlankText reports whether s has no characters once Unicode whitespace
// (including NBSP and the ideographic space) is removed.
func IsBlankText(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}

// BlankFunc returns a predicate reporting pages of d without extractable text.
// Pages whose text cannot be extracted count as non-blank so they stay eligible.
func BlankFunc(d Doc) selector.BlankFunc {
	return func(page int) bool {
		text, err := d.Text(page)
		if err != nil {
			log.Warn().Err(err).Int("page", page+1).Msg("text extraction failed; treating page as non-blank")
			return false
		}
		return IsBlankText(text)
	}
}
