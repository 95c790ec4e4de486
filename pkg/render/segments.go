package render

import (
	"slices"

	"github.com/yaklabco/forummark/pkg/markup"
)

// segment is a maximal piece of a TextRun with a constant set of styles.
// Formulas and emoticons are never split.
type segment struct {
	start, end int

	text     string
	styles   []markup.StyleSpan
	formula  *markup.Formula
	emoticon *markup.Emoticon
}

// has returns true if the segment carries a style of kind.
func (s segment) has(kind markup.StyleKind) bool {
	_, ok := s.style(kind)
	return ok
}

// style returns the innermost span of kind covering the segment.
func (s segment) style(kind markup.StyleKind) (markup.StyleSpan, bool) {
	for i := len(s.styles) - 1; i >= 0; i-- {
		if s.styles[i].Kind == kind {
			return s.styles[i], true
		}
	}
	return markup.StyleSpan{}, false
}

// splitRun cuts run into segments at every style, formula, emoticon and
// newline boundary. Newlines become segments of their own.
func splitRun(run *markup.TextRun) []segment {
	if run.Text == "" {
		return nil
	}

	cuts := []int{0, len(run.Text)}
	for _, s := range run.Styles {
		cuts = append(cuts, s.Start, s.End)
	}
	for i := range run.Text {
		if run.Text[i] == '\n' {
			cuts = append(cuts, i, i+1)
		}
	}
	slices.Sort(cuts)
	cuts = slices.Compact(cuts)

	atoms := make(map[int]segment, len(run.Formulas)+len(run.Emoticons))
	ends := make(map[int]int, len(run.Formulas)+len(run.Emoticons))
	for i := range run.Formulas {
		f := &run.Formulas[i]
		atoms[f.Start] = segment{formula: f}
		ends[f.Start] = f.End
	}
	for i := range run.Emoticons {
		e := &run.Emoticons[i]
		atoms[e.Start] = segment{emoticon: e}
		ends[e.Start] = e.End
	}

	var out []segment
	pos := 0
	for pos < len(run.Text) {
		end, atomic := ends[pos]
		if !atomic {
			end = nextCut(cuts, pos, ends)
		}

		seg := atoms[pos]
		seg.start, seg.end = pos, end
		seg.text = run.Text[pos:end]
		seg.styles = activeStyles(run.Styles, pos)
		out = append(out, seg)
		pos = end
	}
	return out
}

// nextCut returns the first boundary after pos, stopping early at the start
// of a formula or emoticon.
func nextCut(cuts []int, pos int, atoms map[int]int) int {
	i, _ := slices.BinarySearch(cuts, pos+1)
	end := cuts[i]
	for p := pos + 1; p < end; p++ {
		if _, ok := atoms[p]; ok {
			return p
		}
	}
	return end
}

func activeStyles(styles []markup.StyleSpan, pos int) []markup.StyleSpan {
	var out []markup.StyleSpan
	for _, s := range styles {
		if s.Start <= pos && pos < s.End {
			out = append(out, s)
		}
	}
	return out
}
