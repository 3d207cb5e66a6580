// Package picker holds the click-to-advance state behind the preview picker:
// one cursor per preview slot, each cycling through the document's pages.
package picker

import "fmt"

// Slots is a fixed set of page cursors. It is not safe for concurrent use.
type Slots struct {
	total   int
	cursors []int
}

// New returns slots starting at the given page indices.
func New(totalPages int, initial []int) (*Slots, error) {
	if totalPages < 1 {
		return nil, fmt.Errorf("picker needs at least one page, got %d", totalPages)
	}
	cursors := make([]int, len(initial))
	for i, p := range initial {
		if p < 0 || p >= totalPages {
			return nil, fmt.Errorf("slot %d: page index %d out of range [0,%d)", i, p, totalPages)
		}
		cursors[i] = p
	}
	return &Slots{total: totalPages, cursors: cursors}, nil
}

// Len returns the number of slots.
func (s *Slots) Len() int { return len(s.cursors) }

// Total returns the number of pages the cursors cycle through.
func (s *Slots) Total() int { return s.total }

// Page returns the page shown in slot.
func (s *Slots) Page(slot int) (int, error) {
	if err := s.check(slot); err != nil {
		return 0, err
	}
	return s.cursors[slot], nil
}

// Advance moves slot to the next page, wrapping after the last one.
func (s *Slots) Advance(slot int) (int, error) {
	if err := s.check(slot); err != nil {
		return 0, err
	}
	s.cursors[slot] = (s.cursors[slot] + 1) % s.total
	return s.cursors[slot], nil
}

// Selection returns the current page of every slot, in slot order.
func (s *Slots) Selection() []int {
	return append([]int(nil), s.cursors...)
}

func (s *Slots) check(slot int) error {
	if slot < 0 || slot >= len(s.cursors) {
		return fmt.Errorf("slot %d out of range [0,%d)", slot, len(s.cursors))
	}
	return nil
}
