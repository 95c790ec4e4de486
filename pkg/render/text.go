package render

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/yaklabco/forummark/pkg/markup"
)

const (
	quoteIndent   = 2
	minInnerWidth = 10
)

// Theme holds the lipgloss styles of the text renderer.
type Theme struct {
	Bold          lipgloss.Style
	Italic        lipgloss.Style
	Underline     lipgloss.Style
	Strikethrough lipgloss.Style
	Link          lipgloss.Style
	LinkTarget    lipgloss.Style
	Heading       lipgloss.Style
	Spoiler       lipgloss.Style
	Formula       lipgloss.Style
	Image         lipgloss.Style
	Emoticon      lipgloss.Style

	Code        lipgloss.Style
	CodeLabel   lipgloss.Style
	Quote       lipgloss.Style
	QuoteAuthor lipgloss.Style
	TableHeader lipgloss.Style
	TableBorder lipgloss.Style

	color bool
}

// NewTheme creates the text styles. Without color every style is plain and
// the output carries no escape sequences.
func NewTheme(color bool) *Theme {
	if !color {
		plain := lipgloss.NewStyle()
		return &Theme{
			Bold: plain, Italic: plain, Underline: plain, Strikethrough: plain,
			Link: plain, LinkTarget: plain, Heading: plain, Spoiler: plain,
			Formula: plain, Image: plain, Emoticon: plain,
			Code:        plain.Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1),
			CodeLabel:   plain,
			Quote:       plain.Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1),
			QuoteAuthor: plain,
			TableHeader: plain,
			TableBorder: plain,
		}
	}

	return &Theme{
		Bold:          lipgloss.NewStyle().Bold(true),
		Italic:        lipgloss.NewStyle().Italic(true),
		Underline:     lipgloss.NewStyle().Underline(true),
		Strikethrough: lipgloss.NewStyle().Strikethrough(true),
		Link:          lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Underline(true),
		LinkTarget:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Heading:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		Spoiler:       lipgloss.NewStyle().Reverse(true),
		Formula:       lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Image:         lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Emoticon:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),

		Code: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("8")).
			PaddingLeft(1),
		CodeLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		Quote: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("12")).
			PaddingLeft(1),
		QuoteAuthor: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		TableHeader: lipgloss.NewStyle().Bold(true),
		TableBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),

		color: true,
	}
}

// TextRenderer writes documents as terminal text.
type TextRenderer struct {
	opts  Options
	theme *Theme
}

// NewTextRenderer creates a TextRenderer.
func NewTextRenderer(opts Options) *TextRenderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	return &TextRenderer{opts: opts, theme: NewTheme(opts.Color)}
}

// Render implements Renderer.
func (r *TextRenderer) Render(_ context.Context, doc *markup.Document) error {
	bw := bufio.NewWriterSize(r.opts.Writer, bufWriterSize)

	out := r.document(doc, r.opts.Width)
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if _, err := bw.WriteString(out); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}

// RenderString renders doc to a string at the given width.
func (r *TextRenderer) RenderString(doc *markup.Document, width int) string {
	return r.document(doc, width)
}

func (r *TextRenderer) document(doc *markup.Document, width int) string {
	if doc.IsEmpty() {
		return ""
	}

	var b strings.Builder
	for _, block := range doc.Blocks {
		switch block := block.(type) {
		case *markup.TextRun:
			b.WriteString(r.run(block, width))
		case *markup.CodeBlock:
			b.WriteString(r.blockBreak(b.String()))
			b.WriteString(r.code(block))
			b.WriteString("\n")
		case *markup.Quote:
			b.WriteString(r.blockBreak(b.String()))
			b.WriteString(r.quote(block, width))
			b.WriteString("\n")
		case *markup.Table:
			b.WriteString(r.blockBreak(b.String()))
			b.WriteString(r.table(block, width))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// blockBreak returns the newline needed to start a block on its own line.
func (r *TextRenderer) blockBreak(sofar string) string {
	if sofar == "" || strings.HasSuffix(sofar, "\n") {
		return ""
	}
	return "\n"
}

func (r *TextRenderer) code(block *markup.CodeBlock) string {
	body := strings.TrimSuffix(strings.TrimPrefix(block.Raw, "\n"), "\n")
	if block.Language != "" {
		body = r.theme.CodeLabel.Render(block.Language) + "\n" + body
	}
	return r.theme.Code.Render(body)
}

func (r *TextRenderer) quote(block *markup.Quote, width int) string {
	inner := max(width-quoteIndent, minInnerWidth)

	var header string
	switch {
	case block.Username != "":
		header = r.theme.QuoteAuthor.Render(block.Username+" wrote:") + "\n"
	case block.PostID != "":
		header = r.theme.QuoteAuthor.Render("#"+block.PostID) + "\n"
	}

	body := strings.Trim(r.document(block.Nested, inner), "\n")
	return r.theme.Quote.Render(header + body)
}

func (r *TextRenderer) table(block *markup.Table, width int) string {
	cell := func(c markup.Cell) string {
		return strings.Trim(r.document(c.Content, width), "\n")
	}
	row := func(cells markup.Row) []string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = cell(c)
		}
		return out
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.theme.TableBorder).
		StyleFunc(func(rowIdx, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if col < len(block.Alignments) {
				style = style.Align(lipglossAlign(block.Alignments[col]))
			}
			if rowIdx == table.HeaderRow {
				style = style.Inherit(r.theme.TableHeader)
			}
			return style
		})

	if block.Header != nil {
		t = t.Headers(row(*block.Header)...)
	}
	for _, cells := range block.Rows {
		t = t.Row(row(cells)...)
	}
	return t.Render()
}

func lipglossAlign(a markup.Alignment) lipgloss.Position {
	switch a {
	case markup.AlignRight:
		return lipgloss.Right
	case markup.AlignCenter:
		return lipgloss.Center
	default:
		return lipgloss.Left
	}
}

// run renders styled inline text. Lines made up only of centered text are
// centered within width.
func (r *TextRenderer) run(run *markup.TextRun, width int) string {
	var (
		b        strings.Builder
		line     strings.Builder
		centered = true
		visible  = false
	)

	flush := func(newline bool) {
		text := line.String()
		if visible && centered {
			text = lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.TrimSpace(text))
			text = strings.TrimRight(text, " ")
		}
		b.WriteString(text)
		if newline {
			b.WriteString("\n")
		}
		line.Reset()
		centered, visible = true, false
	}

	for _, seg := range splitRun(run) {
		if seg.text == "\n" && seg.formula == nil {
			flush(true)
			continue
		}
		if strings.TrimSpace(seg.text) != "" {
			visible = true
			if !seg.has(markup.StyleCentered) {
				centered = false
			}
		}
		line.WriteString(r.segment(run.Text, seg))
	}
	flush(false)

	return b.String()
}

func (r *TextRenderer) segment(source string, seg segment) string {
	text := seg.text

	switch {
	case seg.formula != nil:
		text = r.formula(seg.formula, text)
	case seg.emoticon != nil:
		text = r.theme.Emoticon.Render(text)
	}

	style := lipgloss.NewStyle()
	for _, s := range seg.styles {
		switch s.Kind {
		case markup.StyleBold:
			style = style.Inherit(r.theme.Bold)
		case markup.StyleItalic:
			style = style.Inherit(r.theme.Italic)
		case markup.StyleUnderline:
			style = style.Inherit(r.theme.Underline)
		case markup.StyleStrikethrough:
			style = style.Inherit(r.theme.Strikethrough)
		case markup.StyleHeading:
			style = style.Inherit(r.theme.Heading)
		case markup.StyleSpoiler:
			style = style.Inherit(r.theme.Spoiler)
		case markup.StyleLink:
			style = style.Inherit(r.theme.Link)
		case markup.StyleColor:
			if r.theme.color {
				style = style.Foreground(lipgloss.Color(s.Color.Hex()))
			}
		case markup.StyleCentered:
		}
	}

	if seg.formula == nil && seg.emoticon == nil {
		text = style.Render(text)
	}

	// Show the target after the last segment of a link whose text differs.
	if link, ok := seg.style(markup.StyleLink); ok && link.End == seg.end {
		if label := strings.TrimSpace(source[link.Start:link.End]); label != link.URL {
			text += r.theme.LinkTarget.Render(" <" + link.URL + ">")
		}
	}
	return text
}

func (r *TextRenderer) formula(f *markup.Formula, placeholder string) string {
	if f.IsFileLink() {
		text := r.theme.Link.Render(f.Attachment.Filename)
		if f.URL != "" {
			text += r.theme.LinkTarget.Render(" <" + f.URL + ">")
		}
		return text
	}
	if img := f.Image; img != nil {
		return r.theme.Image.Render(fmt.Sprintf("[%s %dx%d]", imageLabel(f), img.Width, img.Height))
	}
	if f.Kind.IsMath() {
		return r.theme.Formula.Render(placeholder)
	}
	return r.theme.Image.Render("[" + imageLabel(f) + ": " + f.Content + "]")
}

func imageLabel(f *markup.Formula) string {
	switch {
	case f.Kind.IsMath():
		return "formula"
	case f.Attachment != nil:
		return "attachment " + f.Attachment.Filename
	default:
		return "image"
	}
}
