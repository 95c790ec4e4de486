package markup

import (
	"slices"
	"strings"
)

// cut is a half-open byte range removed from a text.
type cut struct {
	start, end int
}

// edit collects cuts against one text and applies them in a single pass.
// Cuts may be added in any order but must not overlap.
type edit struct {
	cuts []cut
}

func (e *edit) remove(start, end int) {
	if end > start {
		e.cuts = append(e.cuts, cut{start: start, end: end})
	}
}

func (e *edit) empty() bool {
	return len(e.cuts) == 0
}

func (e *edit) sort() {
	slices.SortFunc(e.cuts, func(a, b cut) int { return a.start - b.start })
}

// apply returns text with every cut removed.
func (e *edit) apply(text string) string {
	if e.empty() {
		return text
	}
	e.sort()

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, c := range e.cuts {
		b.WriteString(text[prev:c.start])
		prev = c.end
	}
	b.WriteString(text[prev:])
	return b.String()
}

// mapOffset translates an offset in the original text to the edited text.
// Offsets inside a cut collapse to the cut's start. Requires sorted cuts.
func (e *edit) mapOffset(offset int) int {
	shift := 0
	for _, c := range e.cuts {
		if c.start >= offset {
			break
		}
		shift += min(offset, c.end) - c.start
	}
	return offset - shift
}

// remapStyles translates style spans to the edited text in place.
func (e *edit) remapStyles(spans []StyleSpan) {
	if e.empty() {
		return
	}
	e.sort()
	for i := range spans {
		spans[i].Start = e.mapOffset(spans[i].Start)
		spans[i].End = e.mapOffset(spans[i].End)
	}
}
