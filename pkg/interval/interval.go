// Package interval resolves overlapping spans into a sorted, disjoint sequence.
package interval

import (
	"fmt"
	"slices"
)

// Span is a half-open range [Start, End) carrying a payload.
type Span[T any] struct {
	Start int
	End   int

	// Priority orders spans that start at the same offset.
	// Lower values win.
	Priority int

	Value T
}

// Len returns the length of the span.
func (s Span[T]) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether the two spans share at least one offset.
func (s Span[T]) Overlaps(other Span[T]) bool {
	return s.Start < other.End && other.Start < s.End
}

// Disjoint returns the spans that survive overlap resolution, sorted by Start.
//
// Spans are ordered by Start, then Priority, then input order. A sweep keeps
// the first span of that order and drops every later span that starts before
// the kept span ends. The input slice is not modified.
//
// A span with Start > End or a negative Start is a caller bug and panics.
func Disjoint[T any](spans []Span[T]) []Span[T] {
	if len(spans) == 0 {
		return nil
	}

	for _, s := range spans {
		if s.Start < 0 || s.Start > s.End {
			panic(fmt.Sprintf("interval: invalid span [%d, %d)", s.Start, s.End))
		}
	}

	sorted := slices.Clone(spans)
	slices.SortStableFunc(sorted, func(a, b Span[T]) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.Priority - b.Priority
	})

	out := make([]Span[T], 0, len(sorted))
	end := -1
	for _, s := range sorted {
		if s.Start < end {
			continue
		}
		out = append(out, s)
		end = s.End
	}

	return out
}

// Set accumulates spans and resolves them on demand.
// The zero value is ready to use.
type Set[T any] struct {
	spans []Span[T]
}

// Add registers a span. Registration order breaks ties between spans with
// equal Start and Priority.
func (s *Set[T]) Add(start, end, priority int, value T) {
	s.spans = append(s.spans, Span[T]{Start: start, End: end, Priority: priority, Value: value})
}

// Len returns the number of registered spans.
func (s *Set[T]) Len() int {
	return len(s.spans)
}

// Disjoint resolves the registered spans. See the package-level Disjoint.
func (s *Set[T]) Disjoint() []Span[T] {
	return Disjoint(s.spans)
}
