// Package candidate walks a lazy sequence of search results and accepts the
// first one that passes every filter. It knows nothing about where results
// come from; search providers only need to implement Source.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfpreview/internal/metrics"
)

// ErrExhausted is returned when no candidate passes the filters.
var ErrExhausted = errors.New("no acceptable candidate")

// ErrOCRNotEnabled is returned by OCRCounter in builds without the "ocr" tag.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Candidate is one result from a Source.
type Candidate struct {
	URL   string
	Title string
	MIME  string
	Data  []byte
	Image image.Image
}

// Source yields candidates lazily. Next returns io.EOF once the sequence is
// exhausted; any other error means that one candidate could not be produced.
type Source interface {
	Next(ctx context.Context) (Candidate, error)
}

// Predicate decides whether a candidate is acceptable.
type Predicate interface {
	Name() string
	Accept(ctx context.Context, c Candidate) (bool, error)
}

type predicateFunc struct {
	name string
	fn   func(ctx context.Context, c Candidate) (bool, error)
}

func (p predicateFunc) Name() string { return p.name }
func (p predicateFunc) Accept(ctx context.Context, c Candidate) (bool, error) {
	return p.fn(ctx, c)
}

// PredicateFunc wraps fn as a named Predicate.
func PredicateFunc(name string, fn func(ctx context.Context, c Candidate) (bool, error)) Predicate {
	return predicateFunc{name: name, fn: fn}
}

// All composes predicates; a candidate must pass each of them, checked in order.
func All(preds ...Predicate) Predicate {
	names := make([]string, 0, len(preds))
	for _, p := range preds {
		names = append(names, p.Name())
	}
	return PredicateFunc(strings.Join(names, "+"), func(ctx context.Context, c Candidate) (bool, error) {
		for _, p := range preds {
			ok, err := p.Accept(ctx, c)
			if err != nil {
				return false, fmt.Errorf("%s: %w", p.Name(), err)
			}
			if !ok {
				log.Debug().Str("url", c.URL).Str("filter", p.Name()).Msg("candidate rejected")
				return false, nil
			}
		}
		return true, nil
	})
}

// First returns the first candidate from src accepted by pred. Candidates the
// source fails to produce, or that pred cannot evaluate, are skipped.
func First(ctx context.Context, src Source, pred Predicate) (Candidate, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		c, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return Candidate{}, ErrExhausted
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Candidate{}, ctxErr
			}
			metrics.IncCandidate("error")
			log.Warn().Err(err).Str("url", c.URL).Msg("skipping candidate")
			continue
		}

		ok := true
		if pred != nil {
			ok, err = pred.Accept(ctx, c)
			if err != nil {
				metrics.IncCandidate("error")
				log.Warn().Err(err).Str("url", c.URL).Msg("skipping candidate")
				continue
			}
		}
		if !ok {
			metrics.IncCandidate("rejected")
			continue
		}
		metrics.IncCandidate("accepted")
		log.Info().Str("url", c.URL).Msg("candidate accepted")
		return c, nil
	}
}

// SliceSource serves candidates from memory.
type SliceSource struct {
	items []Candidate
	pos   int
}

// NewSliceSource returns a Source over items.
func NewSliceSource(items ...Candidate) *SliceSource { return &SliceSource{items: items} }

func (s *SliceSource) Next(context.Context) (Candidate, error) {
	if s.pos >= len(s.items) {
		return Candidate{}, io.EOF
	}
	c := s.items[s.pos]
	s.pos++
	return c, nil
}
