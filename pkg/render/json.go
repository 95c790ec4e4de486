package render

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"github.com/yaklabco/forummark/pkg/markup"
)

// JSONDocument is the JSON form of a Document.
type JSONDocument struct {
	Start  int         `json:"start"`
	End    int         `json:"end"`
	Blocks []JSONBlock `json:"blocks"`
}

// JSONBlock is one block. Fields not used by a kind are omitted.
type JSONBlock struct {
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`

	// Code.
	Raw      string `json:"raw,omitempty"`
	Language string `json:"language,omitempty"`

	// Code and quote.
	Unterminated bool `json:"unterminated,omitempty"`

	// Quote.
	PostID   string        `json:"postId,omitempty"`
	Username string        `json:"username,omitempty"`
	Nested   *JSONDocument `json:"nested,omitempty"`

	// Table.
	Alignments []string     `json:"alignments,omitempty"`
	Header     []JSONCell   `json:"header,omitempty"`
	Rows       [][]JSONCell `json:"rows,omitempty"`

	// Text.
	Text      string         `json:"text,omitempty"`
	Styles    []JSONStyle    `json:"styles,omitempty"`
	Formulas  []JSONFormula  `json:"formulas,omitempty"`
	Emoticons []JSONEmoticon `json:"emoticons,omitempty"`
}

// JSONCell is a table cell.
type JSONCell struct {
	Text    string        `json:"text"`
	Content *JSONDocument `json:"content,omitempty"`
}

// JSONStyle is a style span.
type JSONStyle struct {
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Color string `json:"color,omitempty"`
	URL   string `json:"url,omitempty"`
}

// JSONFormula is a formula placeholder.
type JSONFormula struct {
	Kind       string             `json:"kind"`
	Start      int                `json:"start"`
	End        int                `json:"end"`
	Content    string             `json:"content"`
	URL        string             `json:"url,omitempty"`
	SizeHint   int                `json:"sizeHint,omitempty"`
	Attachment *markup.Attachment `json:"attachment,omitempty"`
	Resolved   bool               `json:"resolved"`
	Width      int                `json:"width,omitempty"`
	Height     int                `json:"height,omitempty"`
}

// JSONEmoticon is an emoticon.
type JSONEmoticon struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Code  string `json:"code"`
	Icon  string `json:"icon"`
}

// JSONRenderer writes documents as JSON.
type JSONRenderer struct {
	opts Options
}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer(opts Options) *JSONRenderer {
	return &JSONRenderer{opts: opts}
}

// Render implements Renderer.
func (r *JSONRenderer) Render(_ context.Context, doc *markup.Document) (err error) {
	bw := bufio.NewWriterSize(r.opts.Writer, bufWriterSize)
	defer func() {
		if flushErr := bw.Flush(); err == nil && flushErr != nil {
			err = fmt.Errorf("write json: %w", flushErr)
		}
	}()

	encoder := json.NewEncoder(bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(BuildJSON(doc)); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// BuildJSON converts doc to its JSON form.
func BuildJSON(doc *markup.Document) *JSONDocument {
	if doc == nil {
		return &JSONDocument{Blocks: []JSONBlock{}}
	}

	out := &JSONDocument{
		Start:  doc.Range.Start,
		End:    doc.Range.End,
		Blocks: make([]JSONBlock, 0, len(doc.Blocks)),
	}
	for _, block := range doc.Blocks {
		out.Blocks = append(out.Blocks, buildBlock(block))
	}
	return out
}

func buildBlock(block markup.Block) JSONBlock {
	src := block.Source()
	jb := JSONBlock{Kind: block.Kind().String(), Start: src.Start, End: src.End}

	switch block := block.(type) {
	case *markup.CodeBlock:
		jb.Raw = block.Raw
		jb.Language = block.Language
		jb.Unterminated = block.Unterminated

	case *markup.Quote:
		jb.PostID = block.PostID
		jb.Username = block.Username
		jb.Unterminated = block.Unterminated
		jb.Nested = BuildJSON(block.Nested)

	case *markup.Table:
		jb.Alignments = lo.Map(block.Alignments, func(a markup.Alignment, _ int) string { return a.String() })
		if block.Header != nil {
			jb.Header = buildRow(*block.Header)
		}
		jb.Rows = lo.Map(block.Rows, func(row markup.Row, _ int) []JSONCell { return buildRow(row) })

	case *markup.TextRun:
		jb.Text = block.Text
		jb.Styles = lo.Map(block.Styles, func(s markup.StyleSpan, _ int) JSONStyle {
			style := JSONStyle{Kind: s.Kind.String(), Start: s.Start, End: s.End, URL: s.URL}
			if s.Kind == markup.StyleColor {
				style.Color = s.Color.Hex()
			}
			return style
		})
		jb.Formulas = lo.Map(block.Formulas, func(f markup.Formula, _ int) JSONFormula {
			jf := JSONFormula{
				Kind:       f.Kind.String(),
				Start:      f.Start,
				End:        f.End,
				Content:    f.Content,
				URL:        f.URL,
				SizeHint:   f.SizeHint,
				Attachment: f.Attachment,
				Resolved:   f.Resolved(),
			}
			if f.Image != nil {
				jf.Width, jf.Height = f.Image.Width, f.Image.Height
			}
			return jf
		})
		jb.Emoticons = lo.Map(block.Emoticons, func(e markup.Emoticon, _ int) JSONEmoticon {
			return JSONEmoticon{Start: e.Start, End: e.End, Code: e.Code, Icon: e.Icon}
		})
	}

	return jb
}

func buildRow(row markup.Row) []JSONCell {
	return lo.Map(row, func(c markup.Cell, _ int) JSONCell {
		return JSONCell{Text: c.Text, Content: BuildJSON(c.Content)}
	})
}
