package pdfdoc

import (
	"fmt"
	"image"

	fitz "github.com/gen2brain/go-fitz"
)

// fitzOpener implements Opener using github.com/gen2brain/go-fitz.
type fitzOpener struct{}

func (fitzOpener) Open(path string) (Doc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzDoc{doc: doc}, nil
}

func init() {
	defaultOpener = fitzOpener{}
}

type fitzDoc struct{ doc *fitz.Document }

func (d *fitzDoc) NumPage() int { return d.doc.NumPage() }

func (d *fitzDoc) Image(page int, dpi float64) (image.Image, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDoc) Text(page int) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page+1, err)
	}
	return text, nil
}

func (d *fitzDoc) Close() error { return d.doc.Close() }

func (d *fitzDoc) checkPage(page int) error {
	if page < 0 || page >= d.doc.NumPage() {
		return fmt.Errorf("page %d out of range (document has %d pages)", page+1, d.doc.NumPage())
	}
	return nil
}
