package markup

import (
	"context"
	"strings"
)

// minSeparatorDashes is the number of dashes a separator cell needs.
const minSeparatorDashes = 2

// line is one line of a text segment. end excludes the line break, next is
// the start of the following line.
type line struct {
	start, end, next int
}

// cellSpan is the trimmed extent of one cell, in segment offsets.
type cellSpan struct {
	start, end int
}

// tableGrid is a recognized pipe table before its cells are parsed.
type tableGrid struct {
	start, end int

	// nextLine is the index of the first line after the table.
	nextLine int

	header     []cellSpan
	alignments []Alignment
	rows       [][]cellSpan
}

// ParseTable recognizes the first pipe table in text. The returned range is
// relative to text and covers whole lines, including the last row's line
// break. Cells are parsed as nested documents with default options.
func ParseTable(text string) (SourceRange, *Table, bool) {
	grid, ok := findTable(text, splitLines(text), 0)
	if !ok {
		return SourceRange{}, nil, false
	}

	state := &parseState{ctx: context.Background(), opts: Options{MaxDepth: DefaultMaxDepth}}
	tbl := state.table(text, grid, 0, 0)
	return tbl.Range, tbl, true
}

// findTable locates the first pipe table starting at or after lines[from]: an
// optional header row, a separator row, then one or more data rows with the
// separator's cell count.
func findTable(text string, lines []line, from int) (tableGrid, bool) {
	for k := from; k < len(lines); k++ {
		sep := lines[k]
		seps, ok := splitRow(text, sep)
		if !ok {
			continue
		}
		alignments, ok := parseSeparator(text, seps)
		if !ok {
			continue
		}

		var rows [][]cellSpan
		last := k
		for j := k + 1; j < len(lines); j++ {
			cells, ok := splitRow(text, lines[j])
			if !ok || len(cells) != len(alignments) {
				break
			}
			rows = append(rows, cells)
			last = j
		}
		if len(rows) == 0 {
			continue
		}

		grid := tableGrid{
			start:      sep.start,
			end:        lines[last].next,
			nextLine:   last + 1,
			alignments: alignments,
			rows:       rows,
		}
		if k > from {
			prev := lines[k-1]
			if header, ok := splitRow(text, prev); ok && len(header) == len(alignments) {
				grid.header = header
				grid.start = prev.start
			}
		}
		return grid, true
	}

	return tableGrid{}, false
}

// splitLines splits text at \n, keeping \r out of the line content.
func splitLines(text string) []line {
	var lines []line
	for start := 0; start < len(text); {
		next := len(text)
		end := len(text)
		if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
			end = start + i
			next = end + 1
		}
		content := end
		if content > start && text[content-1] == '\r' {
			content--
		}
		lines = append(lines, line{start: start, end: content, next: next})
		start = next
	}
	return lines
}

// parseSeparator recognizes a separator row such as "| :--- | ---: |".
func parseSeparator(text string, cells []cellSpan) ([]Alignment, bool) {
	alignments := make([]Alignment, 0, len(cells))
	for _, c := range cells {
		align, ok := parseSeparatorCell(text[c.start:c.end])
		if !ok {
			return nil, false
		}
		alignments = append(alignments, align)
	}
	return alignments, true
}

// parseSeparatorCell matches :?-{2,}:? and derives the column alignment.
func parseSeparatorCell(cell string) (Alignment, bool) {
	left := strings.HasPrefix(cell, ":")
	right := strings.HasSuffix(cell, ":") && len(cell) > 1
	dashes := strings.TrimSuffix(strings.TrimPrefix(cell, ":"), ":")

	if len(dashes) < minSeparatorDashes || strings.Trim(dashes, "-") != "" {
		return AlignLeft, false
	}

	switch {
	case left && right:
		return AlignCenter, true
	case right:
		return AlignRight, true
	default:
		return AlignLeft, true
	}
}

// splitRow splits a pipe-delimited line into trimmed cells. The empty cells
// produced by a leading or trailing pipe are dropped. ok is false when the
// line has no pipe or no cells.
func splitRow(text string, ln line) ([]cellSpan, bool) {
	row := text[ln.start:ln.end]
	if strings.IndexByte(row, '|') < 0 {
		return nil, false
	}

	var cells []cellSpan
	cellStart := 0
	for i := 0; i <= len(row); i++ {
		if i < len(row) && row[i] != '|' {
			continue
		}
		cells = append(cells, trimCell(row, ln.start, cellStart, i))
		cellStart = i + 1
	}

	trimmed := strings.TrimSpace(row)
	if strings.HasPrefix(trimmed, "|") {
		cells = cells[1:]
	}
	if strings.HasSuffix(trimmed, "|") && len(cells) > 0 {
		cells = cells[:len(cells)-1]
	}
	if len(cells) == 0 {
		return nil, false
	}
	return cells, true
}

// trimCell trims whitespace from row[start:end] and returns it in text offsets.
func trimCell(row string, base, start, end int) cellSpan {
	for start < end && isSpace(row[start]) {
		start++
	}
	for end > start && isSpace(row[end-1]) {
		end--
	}
	return cellSpan{start: base + start, end: base + end}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
