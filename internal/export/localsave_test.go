package export

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/local/pdfpreview/internal/pdfdoc/pdfdoctest"
	"github.com/local/pdfpreview/internal/storage"
)

func renderPages(t *testing.T, pages ...int) []image.Image {
	t.Helper()
	doc := pdfdoctest.New(20)
	var out []image.Image
	for _, p := range pages {
		img, err := doc.Image(p, 72)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, img)
	}
	return out
}

func TestFolderAndFileNames(t *testing.T) {
	if got := FolderName("/data/Pump Manual.v2.pdf"); got != "pdf_preview_images_Pump Manual.v2" {
		t.Errorf("FolderName = %q", got)
	}
	if got := FileName(0); got != "page_1.png" {
		t.Errorf("FileName(0) = %q", got)
	}
}

func TestExportWritesPagesInSelectionOrder(t *testing.T) {
	root := t.TempDir()
	e := &Exporter{Root: root}

	res, err := e.Export(context.Background(), "manual.pdf", renderPages(t, 0, 7, 3))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	wantDir := filepath.Join(root, "pdf_preview_images_manual")
	if res.Dir != wantDir {
		t.Errorf("Dir = %q, want %q", res.Dir, wantDir)
	}

	for i, wantPage := range []int{0, 7, 3} {
		f, err := os.Open(filepath.Join(wantDir, FileName(i)))
		if err != nil {
			t.Fatalf("missing file for position %d: %v", i, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode position %d: %v", i, err)
		}
		if got := pdfdoctest.PageOf(img); got != wantPage {
			t.Errorf("page_%d.png shows page %d, want %d", i+1, got, wantPage)
		}
	}
}

func TestExportReplacesExistingFolder(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, "pdf_preview_images_doc", "page_9.png")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := (&Exporter{Root: root}).Export(context.Background(), "doc.pdf", renderPages(t, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file survived export: %v", err)
	}
}

func TestExportFailsWhenRootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(root, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (&Exporter{Root: root}).Export(context.Background(), "doc.pdf", renderPages(t, 0)); err == nil {
		t.Error("Export under a regular file = nil error")
	}
}

type memUploader struct {
	keys []string
	fail bool
}

func (m *memUploader) Upload(_ context.Context, key string, body io.Reader, contentType string) error {
	if m.fail {
		return errors.New("boom")
	}
	if contentType != "image/png" {
		return errors.New("unexpected content type " + contentType)
	}
	if _, err := io.ReadAll(body); err != nil {
		return err
	}
	m.keys = append(m.keys, key)
	return nil
}

func TestExportMirrors(t *testing.T) {
	up := &memUploader{}
	e := &Exporter{Root: t.TempDir(), Mirror: up, MirrorTo: storage.Location{Bucket: "b", Key: "previews/"}}
	res, err := e.Export(context.Background(), "doc.pdf", renderPages(t, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"previews/pdf_preview_images_doc/page_1.png", "previews/pdf_preview_images_doc/page_2.png"}
	if !reflect.DeepEqual(up.keys, want) || !reflect.DeepEqual(res.Mirrored, want) {
		t.Errorf("mirrored %v / %v, want %v", up.keys, res.Mirrored, want)
	}

	up.fail = true
	if _, err := e.Export(context.Background(), "doc.pdf", renderPages(t, 0)); err == nil {
		t.Error("mirror failure not reported")
	}
}

func TestExportMirrorsAtBucketRoot(t *testing.T) {
	up := &memUploader{}
	e := &Exporter{Root: t.TempDir(), Mirror: up, MirrorTo: storage.Location{Bucket: "b"}}
	if _, err := e.Export(context.Background(), "doc.pdf", renderPages(t, 0)); err != nil {
		t.Fatal(err)
	}
	if want := []string{"pdf_preview_images_doc/page_1.png"}; !reflect.DeepEqual(up.keys, want) {
		t.Errorf("mirrored %v, want %v", up.keys, want)
	}
}
