package candidate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/local/pdfpreview/internal/filetype"
)

// maxImageBytes caps a single download.
const maxImageBytes = 20 << 20

// URLSource fetches a fixed list of image URLs one at a time, only when asked.
type URLSource struct {
	Client *http.Client
	URLs   []string

	detector *filetype.Detector
	pos      int
}

// NewURLSource returns a Source over urls.
func NewURLSource(client *http.Client, urls ...string) *URLSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &URLSource{Client: client, URLs: urls, detector: filetype.New()}
}

func (s *URLSource) Next(ctx context.Context) (Candidate, error) {
	if s.pos >= len(s.URLs) {
		return Candidate{}, io.EOF
	}
	u := s.URLs[s.pos]
	s.pos++
	c := Candidate{URL: u}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return c, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return c, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c, fmt.Errorf("http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return c, err
	}
	if len(data) > maxImageBytes {
		return c, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}

	if s.detector == nil {
		s.detector = filetype.New()
	}
	info := s.detector.DetectBytes(data)
	if !info.IsImage {
		return c, fmt.Errorf("not an image (detected %s)", info.MIMEType)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return c, fmt.Errorf("decode %s: %w", info.MIMEType, err)
	}
	c.MIME = info.MIMEType
	c.Data = data
	c.Image = img
	return c, nil
}
