package filetype

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRequirePDF(t *testing.T) {
	d := New()

	pdf := writeFile(t, "doc.pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n"))
	if err := d.RequirePDF(pdf); err != nil {
		t.Errorf("RequirePDF(pdf) = %v", err)
	}

	fake := writeFile(t, "fake.pdf", []byte("just some text pretending to be a pdf"))
	err := d.RequirePDF(fake)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("RequirePDF(text) error = %v, want *ValidationError", err)
	}
	if verr.Path != fake {
		t.Errorf("ValidationError.Path = %q", verr.Path)
	}

	if err := d.RequirePDF(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("RequirePDF(missing) = nil, want error")
	}
}

func TestDetectBytesImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	info := New().DetectBytes(buf.Bytes())
	if !info.IsImage || info.MIMEType != "image/png" {
		t.Errorf("DetectBytes(png) = %+v", info)
	}
	if New().DetectBytes([]byte("<html></html>")).IsImage {
		t.Error("html detected as image")
	}
}
