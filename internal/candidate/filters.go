package candidate

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

// MinSize rejects images smaller than w x h pixels, and candidates without an image.
func MinSize(w, h int) Predicate {
	return PredicateFunc(fmt.Sprintf("min-size(%dx%d)", w, h), func(_ context.Context, c Candidate) (bool, error) {
		if c.Image == nil {
			return false, nil
		}
		b := c.Image.Bounds()
		return b.Dx() >= w && b.Dy() >= h, nil
	})
}

// Blacklist rejects candidates whose URL or title contains any of words,
// compared case-insensitively.
func Blacklist(words ...string) Predicate {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}
	return PredicateFunc("blacklist", func(_ context.Context, c Candidate) (bool, error) {
		hay := strings.ToLower(c.URL + " " + c.Title)
		for _, w := range lowered {
			if strings.Contains(hay, w) {
				return false, nil
			}
		}
		return true, nil
	})
}

// TextCounter counts the characters of text found in an encoded image.
type TextCounter interface {
	CountText(ctx context.Context, data []byte) (int, error)
}

// MaxText rejects images that carry more than limit characters of text.
func MaxText(counter TextCounter, limit int) Predicate {
	return PredicateFunc(fmt.Sprintf("max-text(%d)", limit), func(ctx context.Context, c Candidate) (bool, error) {
		if len(c.Data) == 0 {
			return false, nil
		}
		n, err := counter.CountText(ctx, c.Data)
		if err != nil {
			return false, err
		}
		log.Debug().Str("url", c.URL).Int("chars", n).Msg("ocr text count")
		return n <= limit, nil
	})
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
