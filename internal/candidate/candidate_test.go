package candidate

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func img(w, h int) image.Image { return image.NewRGBA(image.Rect(0, 0, w, h)) }

func TestFirstReturnsFirstAccepted(t *testing.T) {
	src := NewSliceSource(
		Candidate{URL: "https://x/logo.png", Image: img(800, 800)},
		Candidate{URL: "https://x/tiny.png", Image: img(10, 10)},
		Candidate{URL: "https://x/pump.png", Image: img(640, 480)},
		Candidate{URL: "https://x/pump2.png", Image: img(640, 480)},
	)
	pred := All(Blacklist("logo"), MinSize(300, 300))

	got, err := First(context.Background(), src, pred)
	if err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if got.URL != "https://x/pump.png" {
		t.Errorf("accepted %q, want pump.png", got.URL)
	}
}

func TestFirstExhausted(t *testing.T) {
	src := NewSliceSource(Candidate{URL: "a", Image: img(1, 1)})
	if _, err := First(context.Background(), src, MinSize(2, 2)); !errors.Is(err, ErrExhausted) {
		t.Errorf("error = %v, want ErrExhausted", err)
	}
	if _, err := First(context.Background(), NewSliceSource(), nil); !errors.Is(err, ErrExhausted) {
		t.Errorf("empty source error = %v, want ErrExhausted", err)
	}
}

type flakySource struct {
	calls int
}

func (f *flakySource) Next(context.Context) (Candidate, error) {
	f.calls++
	switch f.calls {
	case 1:
		return Candidate{URL: "broken"}, errors.New("connection reset")
	case 2:
		return Candidate{URL: "ok", Image: img(5, 5)}, nil
	default:
		return Candidate{}, io.EOF
	}
}

func TestFirstSkipsSourceErrors(t *testing.T) {
	got, err := First(context.Background(), &flakySource{}, nil)
	if err != nil || got.URL != "ok" {
		t.Errorf("First = %q, %v; want ok", got.URL, err)
	}
}

func TestFirstSkipsPredicateErrors(t *testing.T) {
	calls := 0
	failOnce := PredicateFunc("fail-once", func(context.Context, Candidate) (bool, error) {
		calls++
		if calls == 1 {
			return false, errors.New("ocr crashed")
		}
		return true, nil
	})
	src := NewSliceSource(Candidate{URL: "a"}, Candidate{URL: "b"})
	got, err := First(context.Background(), src, failOnce)
	if err != nil || got.URL != "b" {
		t.Errorf("First = %q, %v; want b", got.URL, err)
	}
}

func TestFirstStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := First(ctx, NewSliceSource(Candidate{URL: "a"}), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBlacklistMatchesTitleCaseInsensitive(t *testing.T) {
	p := Blacklist(" Watermark ", "")
	ok, _ := p.Accept(context.Background(), Candidate{URL: "https://x/a.png", Title: "Stock WATERMARK photo"})
	if ok {
		t.Error("blacklisted title accepted")
	}
	ok, _ = p.Accept(context.Background(), Candidate{URL: "https://x/a.png", Title: "Pump"})
	if !ok {
		t.Error("clean candidate rejected")
	}
}

type fixedCounter int

func (f fixedCounter) CountText(context.Context, []byte) (int, error) { return int(f), nil }

func TestMaxText(t *testing.T) {
	c := Candidate{URL: "a", Data: []byte{1}}
	if ok, _ := MaxText(fixedCounter(10), 40).Accept(context.Background(), c); !ok {
		t.Error("image under the text limit rejected")
	}
	if ok, _ := MaxText(fixedCounter(41), 40).Accept(context.Background(), c); ok {
		t.Error("text-heavy image accepted")
	}
	if ok, _ := MaxText(fixedCounter(0), 40).Accept(context.Background(), Candidate{}); ok {
		t.Error("candidate without data accepted")
	}
}

func TestAllName(t *testing.T) {
	if got := All(MinSize(1, 2), Blacklist()).Name(); got != "min-size(1x2)+blacklist" {
		t.Errorf("Name = %q", got)
	}
}

func TestURLSource(t *testing.T) {
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, img(400, 300)); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			w.Write(pngData.Bytes())
		case "/page.html":
			w.Write([]byte("<html><body>not an image</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewURLSource(srv.Client(), srv.URL+"/missing.png", srv.URL+"/page.html", srv.URL+"/photo.png")
	ctx := context.Background()

	if _, err := src.Next(ctx); err == nil {
		t.Error("404 produced a candidate")
	}
	if _, err := src.Next(ctx); err == nil {
		t.Error("html produced a candidate")
	}
	c, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("png candidate failed: %v", err)
	}
	if c.MIME != "image/png" || c.Image.Bounds().Dx() != 400 {
		t.Errorf("candidate = %s %v", c.MIME, c.Image.Bounds())
	}
	if _, err := src.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("after last URL error = %v, want io.EOF", err)
	}

	src = NewURLSource(srv.Client(), srv.URL+"/missing.png", srv.URL+"/photo.png")
	got, err := First(ctx, src, MinSize(300, 300))
	if err != nil || got.URL != srv.URL+"/photo.png" {
		t.Errorf("First over URLs = %q, %v", got.URL, err)
	}
}

func TestCountNonSpace(t *testing.T) {
	if got := countNonSpace(" ab\n c\t"); got != 3 {
		t.Errorf("countNonSpace = %d, want 3", got)
	}
}
