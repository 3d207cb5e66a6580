// Package selector picks representative page indices from a document.
//
// Two variants exist. Spread returns exactly ten indices spread evenly across
// the document and is what the preview export uses. Excerpt returns up to five
// indices and can skip pages the caller considers blank.
package selector

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Mode names a sampling variant.
type Mode string

const (
	ModeSpread  Mode = "spread"
	ModeExcerpt Mode = "excerpt"
)

const (
	// SpreadCount is the number of indices Spread always returns.
	SpreadCount = 10
	// ExcerptCount is the maximum number of indices Excerpt returns.
	ExcerptCount = 5
)

// ErrNoPages is returned when a document has no pages to sample.
var ErrNoPages = errors.New("document has no pages")

// BlankFunc reports whether the page at a zero-based index is blank.
type BlankFunc func(page int) bool

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSpread:
		return ModeSpread, nil
	case ModeExcerpt:
		return ModeExcerpt, nil
	default:
		return "", fmt.Errorf("unknown preview mode %q", s)
	}
}

// Select runs the variant named by m. blank is only consulted by Excerpt.
func Select(m Mode, totalPages int, blank BlankFunc) ([]int, error) {
	if m == ModeExcerpt {
		return Excerpt(totalPages, blank)
	}
	return Spread(totalPages)
}

// Spread returns exactly SpreadCount page indices. The first is always 0, the
// rest are spaced (totalPages-1)/9 apart starting at page 1. Repeated
// indices are replaced by the lowest page not yet chosen, and the result is
// padded with 0 when the document has fewer pages than slots.
func Spread(totalPages int) ([]int, error) {
	if totalPages < 1 {
		return nil, ErrNoPages
	}

	candidates := make([]int, 0, SpreadCount)
	candidates = append(candidates, 0)
	if totalPages > 1 {
		step := float64(totalPages-1) / float64(SpreadCount-1)
		last := totalPages - 1
		for i := 0; i < SpreadCount-1; i++ {
			idx := int(math.RoundToEven(1 + float64(i)*step))
			candidates = append(candidates, min(idx, last))
		}
	} else {
		for i := 0; i < SpreadCount-1; i++ {
			candidates = append(candidates, 0)
		}
	}

	seen := make(map[int]bool, SpreadCount)
	out := make([]int, 0, SpreadCount)
	for _, idx := range candidates {
		if !seen[idx] {
			out = append(out, idx)
			seen[idx] = true
			continue
		}
		for alt := 0; alt < totalPages; alt++ {
			if !seen[alt] {
				out = append(out, alt)
				seen[alt] = true
				break
			}
		}
	}

	for len(out) < SpreadCount {
		out = append(out, 0)
	}
	return out[:SpreadCount], nil
}

// Excerpt returns up to ExcerptCount page indices: a first page followed by
// four pages at (total-1)/4 intervals starting from page 1.
//
// Without a blank predicate the first page is 0 and the candidates are used
// as computed, clamped to the last page. With a predicate the first page is
// the first non-blank page and each candidate moves forward to the next
// non-blank page that has not been picked yet; candidates that cannot be
// placed are dropped, so the result may be shorter than ExcerptCount.
func Excerpt(totalPages int, blank BlankFunc) ([]int, error) {
	if totalPages < 1 {
		return nil, ErrNoPages
	}

	last := totalPages - 1
	interval := last / (ExcerptCount - 1)
	candidates := make([]int, 0, ExcerptCount-1)
	for i := 0; i < ExcerptCount-1; i++ {
		candidates = append(candidates, min(i*interval+1, last))
	}

	if blank == nil {
		return append([]int{0}, candidates...), nil
	}

	out := make([]int, 0, ExcerptCount)
	picked := make(map[int]bool, ExcerptCount)
	next := func(from int) (int, bool) {
		for p := from; p < totalPages; p++ {
			if !picked[p] && !blank(p) {
				return p, true
			}
		}
		return 0, false
	}

	if first, ok := next(0); ok {
		out = append(out, first)
		picked[first] = true
	}
	for _, c := range candidates {
		p, ok := next(c)
		if !ok {
			continue
		}
		out = append(out, p)
		picked[p] = true
	}
	return out, nil
}
