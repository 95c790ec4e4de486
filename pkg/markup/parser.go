package markup

import (
	"context"
	"fmt"
	"strings"

	"github.com/yaklabco/forummark/pkg/langdetect"
)

// DefaultMaxDepth bounds quote and table-cell nesting.
const DefaultMaxDepth = 32

// Options configures a Parser.
type Options struct {
	// FormulaURL, AttachmentURL and BaseURL are passed to the FormulaScanner.
	FormulaURL    string
	AttachmentURL string
	BaseURL       string

	// MaxDepth bounds recursion into quotes and table cells. Zero means
	// DefaultMaxDepth. Quote bodies below the limit become a single text
	// run and tables below it are not recognized.
	MaxDepth int
}

// Parser turns post bodies into Documents. It holds no per-call state and is
// safe for concurrent use.
type Parser struct {
	opts Options
}

// NewParser creates a Parser.
func NewParser(opts Options) *Parser {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Parser{opts: opts}
}

// MaxDepth returns the effective nesting limit.
func (p *Parser) MaxDepth() int {
	return p.opts.MaxDepth
}

// Parse converts a post body into a Document.
//
// Blocks are split out in passes: [code] regions first, then [quote] regions
// in the text between them (parsed recursively), then pipe tables, and the
// remaining text becomes styled runs. Malformed markup never fails the parse;
// the only error is context cancellation.
func (p *Parser) Parse(ctx context.Context, body string, attachments []Attachment) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	state := &parseState{
		ctx:  ctx,
		opts: p.opts,
		scanner: FormulaScanner{
			FormulaURL:    p.opts.FormulaURL,
			AttachmentURL: p.opts.AttachmentURL,
			BaseURL:       p.opts.BaseURL,
			Attachments:   attachments,
		},
	}

	doc := &Document{
		Blocks: state.full(body, 0, 0),
		Range:  SourceRange{Start: 0, End: len(body)},
	}

	if state.err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", state.err)
	}
	return doc, nil
}

// parseState carries one Parse call. base arguments are the absolute offset
// of a segment in the root body.
type parseState struct {
	ctx     context.Context
	opts    Options
	scanner FormulaScanner
	err     error
}

func (s *parseState) cancelled() bool {
	if s.err == nil {
		s.err = s.ctx.Err()
	}
	return s.err != nil
}

// full parses a segment from the top of the grammar.
func (s *parseState) full(seg string, base, depth int) []Block {
	if seg == "" || s.cancelled() {
		return nil
	}
	return s.codeBlocks(seg, base, depth)
}

// codeBlocks splits out [code] regions. An unterminated [code] runs to the
// end of the segment.
func (s *parseState) codeBlocks(seg string, base, depth int) []Block {
	var blocks []Block
	prev := 0

	for prev < len(seg) {
		pos, n := indexOpenTag(seg, "code", prev)
		if pos < 0 {
			break
		}
		blocks = append(blocks, s.quoteBlocks(seg[prev:pos], base+prev, depth)...)

		code := &CodeBlock{Language: langdetect.Normalize(openTagParam(seg[pos:], "code", n))}
		closeStart, end, ok := BalanceTag(seg, "code", pos)
		if !ok {
			closeStart, end = len(seg), len(seg)
			code.Unterminated = true
		}
		code.Raw = seg[pos+n : closeStart]
		code.Range = SourceRange{Start: base + pos, End: base + end}
		if code.Language == "" {
			code.Language = langdetect.Detect(code.Raw)
		}

		blocks = append(blocks, code)
		prev = end
	}

	return append(blocks, s.quoteBlocks(seg[prev:], base+prev, depth)...)
}

// quoteBlocks splits out [quote] regions and parses their bodies as nested
// documents.
func (s *parseState) quoteBlocks(seg string, base, depth int) []Block {
	if seg == "" || s.cancelled() {
		return nil
	}

	var blocks []Block
	prev := 0

	for prev < len(seg) {
		pos, n := indexOpenTag(seg, "quote", prev)
		if pos < 0 {
			break
		}
		blocks = append(blocks, s.tableBlocks(seg[prev:pos], base+prev, depth)...)

		quote := &Quote{}
		quote.PostID, quote.Username = parseQuoteParam(openTagParam(seg[pos:], "quote", n))

		closeStart, end, ok := BalanceTag(seg, "quote", pos)
		if !ok {
			closeStart, end = len(seg), len(seg)
			quote.Unterminated = true
		}
		quote.Range = SourceRange{Start: base + pos, End: base + end}
		quote.Nested = s.nested(seg[pos+n:closeStart], base+pos+n, depth+1)

		blocks = append(blocks, quote)
		prev = end
	}

	return append(blocks, s.tableBlocks(seg[prev:], base+prev, depth)...)
}

// nested parses a quote body or table cell. Past the depth limit the content
// is kept as one styled run.
func (s *parseState) nested(seg string, base, depth int) *Document {
	doc := &Document{Range: SourceRange{Start: base, End: base + len(seg)}}
	if depth > s.opts.MaxDepth {
		if run := s.textRun(seg, base); run != nil {
			doc.Blocks = []Block{run}
		}
		return doc
	}
	doc.Blocks = s.full(seg, base, depth)
	return doc
}

// tableBlocks splits out pipe tables. Text around them becomes runs.
func (s *parseState) tableBlocks(seg string, base, depth int) []Block {
	if seg == "" || s.cancelled() {
		return nil
	}

	var blocks []Block
	prev := 0

	if depth < s.opts.MaxDepth && strings.Contains(seg, "|") {
		lines := splitLines(seg)
		for next := 0; next < len(lines); {
			grid, ok := findTable(seg, lines, next)
			if !ok {
				break
			}
			if run := s.textRun(seg[prev:grid.start], base+prev); run != nil {
				blocks = append(blocks, run)
			}
			blocks = append(blocks, s.table(seg, grid, base, depth))
			prev = grid.end
			next = grid.nextLine
		}
	}

	if run := s.textRun(seg[prev:], base+prev); run != nil {
		blocks = append(blocks, run)
	}
	return blocks
}

// table parses every cell of a recognized grid as a nested document.
func (s *parseState) table(seg string, grid tableGrid, base, depth int) *Table {
	tbl := &Table{
		Range:      SourceRange{Start: base + grid.start, End: base + grid.end},
		Alignments: grid.alignments,
	}

	cells := func(spans []cellSpan) Row {
		row := make(Row, len(spans))
		for i, c := range spans {
			text := seg[c.start:c.end]
			row[i] = Cell{Text: text, Content: s.nested(text, base+c.start, depth+1)}
		}
		return row
	}

	if grid.header != nil {
		header := cells(grid.header)
		tbl.Header = &header
	}
	for _, spans := range grid.rows {
		tbl.Rows = append(tbl.Rows, cells(spans))
	}
	return tbl
}

// textRun styles a plain segment and scans it for formulas and emoticons.
func (s *parseState) textRun(seg string, base int) *TextRun {
	if seg == "" {
		return nil
	}

	text, styles := ApplyStyles(seg)
	text, newlines, formulas := s.scanner.scan(text)
	newlines.remapStyles(styles)

	return &TextRun{
		Range:     SourceRange{Start: base, End: base + len(seg)},
		Text:      text,
		Styles:    styles,
		Formulas:  formulas,
		Emoticons: ScanEmoticons(text, formulas),
	}
}

// parseQuoteParam splits "<postId>:@<name>". A parameter without ":@" is a
// post id, or a user name when it starts with "@".
func parseQuoteParam(param string) (postID, username string) {
	param = strings.TrimSpace(param)
	if i := strings.Index(param, ":@"); i >= 0 {
		return param[:i], param[i+2:]
	}
	if name, ok := strings.CutPrefix(param, "@"); ok {
		return "", name
	}
	return param, ""
}
