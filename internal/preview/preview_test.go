package preview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/local/pdfpreview/internal/export"
	"github.com/local/pdfpreview/internal/filetype"
	"github.com/local/pdfpreview/internal/imagerender"
	"github.com/local/pdfpreview/internal/pdfdoc"
	"github.com/local/pdfpreview/internal/pdfdoc/pdfdoctest"
	"github.com/local/pdfpreview/internal/selector"
)

func acceptAll(string) error { return nil }

func newService(t *testing.T, opts Options, docs pdfdoctest.Opener) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	if opts.Renderer.DPI == 0 {
		opts.Renderer = imagerender.Renderer{DPI: 72}
	}
	return New(opts, Dependencies{
		Opener:   docs,
		Exporter: &export.Exporter{Root: root},
		Validate: acceptAll,
	}), root
}

func TestProcessExportsSpreadSelection(t *testing.T) {
	doc := pdfdoctest.New(20)
	svc, root := newService(t, Options{}, pdfdoctest.Opener{"in/manual.pdf": doc})

	res := svc.Process(context.Background(), "in/manual.pdf")
	if res.Err != nil {
		t.Fatalf("Process failed: %v", res.Err)
	}
	want := []int{0, 1, 3, 5, 7, 9, 12, 14, 16, 18}
	if !reflect.DeepEqual(res.Selection, want) {
		t.Errorf("Selection = %v, want %v", res.Selection, want)
	}
	if !reflect.DeepEqual(doc.Rendered(), want) {
		t.Errorf("rendered %v, want %v", doc.Rendered(), want)
	}
	if !doc.Closed() {
		t.Error("document left open")
	}

	dir := filepath.Join(root, "pdf_preview_images_manual")
	if res.Export == nil || res.Export.Dir != dir || len(res.Export.Files) != 10 {
		t.Fatalf("Export = %+v", res.Export)
	}
	if _, err := os.Stat(filepath.Join(dir, "page_10.png")); err != nil {
		t.Errorf("page_10.png missing: %v", err)
	}
}

func TestPlanExcerptSkipsBlankPages(t *testing.T) {
	doc := &pdfdoctest.Doc{Texts: []string{"", "Contents", "", "Intro", "Body", "Body", "Body", "Body", "Body", "Index"}}
	svc, _ := newService(t, Options{Mode: selector.ModeExcerpt, SkipBlank: true}, pdfdoctest.Opener{"m.pdf": doc})

	plan, err := svc.Plan(context.Background(), "m.pdf")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	defer plan.Close()
	want := []int{1, 3, 4, 5, 7}
	if !reflect.DeepEqual(plan.Selection, want) {
		t.Errorf("Selection = %v, want %v", plan.Selection, want)
	}
	if plan.Total != 10 {
		t.Errorf("Total = %d", plan.Total)
	}
}

func TestPlanExcerptTreatsUnicodeSpacesAsBlank(t *testing.T) {
	doc := &pdfdoctest.Doc{Texts: []string{" 　 ", "a", "b", "c", "d", "e"}}
	svc, _ := newService(t, Options{Mode: selector.ModeExcerpt, SkipBlank: true}, pdfdoctest.Opener{"u.pdf": doc})

	plan, err := svc.Plan(context.Background(), "u.pdf")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	defer plan.Close()
	want := []int{1, 2, 3, 4, 5}
	if !reflect.DeepEqual(plan.Selection, want) {
		t.Errorf("Selection = %v, want %v", plan.Selection, want)
	}
}

func TestPlanRejectsEmptyDocuments(t *testing.T) {
	svc, _ := newService(t, Options{}, pdfdoctest.Opener{"empty.pdf": pdfdoctest.New(0)})
	_, err := svc.Plan(context.Background(), "empty.pdf")
	if !errors.Is(err, selector.ErrNoPages) {
		t.Errorf("error = %v, want ErrNoPages", err)
	}
	if Classify(err) != "invalid" {
		t.Errorf("Classify = %q, want invalid", Classify(err))
	}

	blank := &pdfdoctest.Doc{Texts: []string{" ", ""}}
	svc, _ = newService(t, Options{Mode: selector.ModeExcerpt, SkipBlank: true}, pdfdoctest.Opener{"blank.pdf": blank})
	_, err = svc.Plan(context.Background(), "blank.pdf")
	var verr *filetype.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want ValidationError", err)
	}
	if !blank.Closed() {
		t.Error("document left open after failed plan")
	}
}

func TestPlanUsesPreOpenCount(t *testing.T) {
	opened := false
	svc := New(Options{}, Dependencies{
		Opener: pdfdoc.OpenerFunc(func(string) (pdfdoc.Doc, error) {
			opened = true
			return pdfdoctest.New(3), nil
		}),
		Validate: acceptAll,
		Count:    func(string) (int, error) { return 0, nil },
	})
	_, err := svc.Plan(context.Background(), "zero.pdf")
	var verr *filetype.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want ValidationError", err)
	}
	if opened {
		t.Error("document opened although the page count was zero")
	}
}

func TestPlanValidationFailure(t *testing.T) {
	svc := New(Options{}, Dependencies{
		Opener: pdfdoctest.Opener{},
		Validate: func(p string) error {
			return &filetype.ValidationError{Path: p, Message: "not a PDF"}
		},
	})
	res := svc.Process(context.Background(), "notes.txt")
	if Classify(res.Err) != "invalid" {
		t.Errorf("Classify(%v) = %q", res.Err, Classify(res.Err))
	}
}

func TestProcessAllIsolatesFailures(t *testing.T) {
	docs := pdfdoctest.Opener{
		"a.pdf": pdfdoctest.New(12),
		"c.pdf": pdfdoctest.New(3),
	}
	svc, root := newService(t, Options{}, docs)

	results := svc.ProcessAll(context.Background(), []string{"a.pdf", "b.pdf", "c.pdf"})
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy documents failed: %v / %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("missing document did not fail")
	}
	if Classify(results[1].Err) != "failed" {
		t.Errorf("Classify = %q, want failed", Classify(results[1].Err))
	}
	for _, name := range []string{"pdf_preview_images_a", "pdf_preview_images_c"} {
		if _, err := os.Stat(filepath.Join(root, name, "page_1.png")); err != nil {
			t.Errorf("%s not exported: %v", name, err)
		}
	}
}

func TestProcessAllStopsOnCancel(t *testing.T) {
	svc, _ := newService(t, Options{}, pdfdoctest.Opener{"a.pdf": pdfdoctest.New(2)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := svc.ProcessAll(ctx, []string{"a.pdf"})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", results[0].Err)
	}
}
