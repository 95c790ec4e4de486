package render

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"image/png"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"

	"github.com/yaklabco/forummark/pkg/markup"
)

const mimeHTML = "text/html"

// NewPolicy returns the sanitizer applied to HTML output: the UGC policy plus
// the classes, colors and alignments the renderer emits.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("details", "summary", "figure", "figcaption")
	p.AllowAttrs("class").
		Matching(regexp.MustCompile(`^[a-z]+(-[a-z]+)*( [a-z]+(-[a-z]+)*)*$`)).
		OnElements("span", "div", "blockquote", "figure", "img", "details", "p", "a")
	p.AllowStyles("color").
		Matching(regexp.MustCompile(`(?i)^#[0-9a-f]{6}$`)).
		OnElements("span")
	p.AllowStyles("text-align").
		MatchingEnum("left", "right", "center").
		OnElements("th", "td", "p")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("img")
	p.AllowAttrs("data-post-id").Matching(bluemonday.Number).OnElements("blockquote")
	p.AllowDataURIImages()
	return p
}

// HTMLRenderer writes documents as an HTML fragment.
type HTMLRenderer struct {
	opts     Options
	policy   *bluemonday.Policy
	minifier *minify.M
}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer(opts Options) *HTMLRenderer {
	r := &HTMLRenderer{opts: opts, policy: NewPolicy()}
	if opts.Minify {
		r.minifier = minify.New()
		r.minifier.AddFunc(mimeHTML, minhtml.Minify)
		r.minifier.AddFunc("text/css", css.Minify)
	}
	return r
}

// Render implements Renderer.
func (r *HTMLRenderer) Render(_ context.Context, doc *markup.Document) error {
	out, err := r.RenderString(doc)
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(r.opts.Writer, bufWriterSize)
	if _, err := bw.WriteString(out); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// RenderString returns the sanitized, optionally minified HTML for doc.
func (r *HTMLRenderer) RenderString(doc *markup.Document) (string, error) {
	var b strings.Builder
	r.document(&b, doc)

	out := r.policy.Sanitize(b.String())
	if r.minifier != nil {
		minified, err := r.minifier.String(mimeHTML, out)
		if err != nil {
			return "", fmt.Errorf("minify html: %w", err)
		}
		out = minified
	}
	return out, nil
}

func (r *HTMLRenderer) document(b *strings.Builder, doc *markup.Document) {
	if doc == nil {
		return
	}
	for _, block := range doc.Blocks {
		switch block := block.(type) {
		case *markup.TextRun:
			r.run(b, block)
		case *markup.CodeBlock:
			b.WriteString("<pre><code")
			if block.Language != "" {
				fmt.Fprintf(b, ` class="language-%s"`, html.EscapeString(block.Language))
			}
			b.WriteString(">")
			b.WriteString(html.EscapeString(block.Raw))
			b.WriteString("</code></pre>\n")
		case *markup.Quote:
			r.quote(b, block)
		case *markup.Table:
			r.table(b, block)
		}
	}
}

func (r *HTMLRenderer) quote(b *strings.Builder, q *markup.Quote) {
	b.WriteString(`<blockquote class="quote"`)
	if q.PostID != "" {
		fmt.Fprintf(b, ` data-post-id="%s"`, html.EscapeString(q.PostID))
	}
	b.WriteString(">\n")
	if q.Username != "" {
		fmt.Fprintf(b, "<div class=\"quote-author\">%s wrote:</div>\n", html.EscapeString(q.Username))
	}
	r.document(b, q.Nested)
	b.WriteString("</blockquote>\n")
}

func (r *HTMLRenderer) table(b *strings.Builder, t *markup.Table) {
	cells := func(tag string, row markup.Row) {
		b.WriteString("<tr>")
		for i, c := range row {
			fmt.Fprintf(b, `<%s style="text-align: %s">`, tag, cssAlign(t, i))
			r.document(b, c.Content)
			fmt.Fprintf(b, "</%s>", tag)
		}
		b.WriteString("</tr>\n")
	}

	b.WriteString("<table>\n")
	if t.Header != nil {
		b.WriteString("<thead>\n")
		cells("th", *t.Header)
		b.WriteString("</thead>\n")
	}
	b.WriteString("<tbody>\n")
	for _, row := range t.Rows {
		cells("td", row)
	}
	b.WriteString("</tbody>\n</table>\n")
}

func cssAlign(t *markup.Table, col int) string {
	if col >= len(t.Alignments) {
		return "left"
	}
	return strings.ToLower(t.Alignments[col].String())
}

// run writes inline text. Each segment reopens its own tags so that spans
// crossing each other still produce well-formed HTML.
func (r *HTMLRenderer) run(b *strings.Builder, run *markup.TextRun) {
	for _, seg := range splitRun(run) {
		if seg.text == "\n" && seg.formula == nil {
			b.WriteString("<br>\n")
			continue
		}

		var closers []string
		for _, s := range seg.styles {
			open, closeTag := htmlTags(s)
			if open == "" {
				continue
			}
			b.WriteString(open)
			closers = append(closers, closeTag)
		}

		switch {
		case seg.formula != nil:
			r.formula(b, seg.formula, seg.text)
		case seg.emoticon != nil:
			fmt.Fprintf(b, `<span class="emoticon emoticon-%s">%s</span>`,
				seg.emoticon.Icon, html.EscapeString(seg.text))
		default:
			b.WriteString(html.EscapeString(seg.text))
		}

		for i := len(closers) - 1; i >= 0; i-- {
			b.WriteString(closers[i])
		}
	}
}

func htmlTags(s markup.StyleSpan) (string, string) {
	switch s.Kind {
	case markup.StyleBold:
		return "<strong>", "</strong>"
	case markup.StyleItalic:
		return "<em>", "</em>"
	case markup.StyleUnderline:
		return "<u>", "</u>"
	case markup.StyleStrikethrough:
		return "<s>", "</s>"
	case markup.StyleColor:
		return fmt.Sprintf(`<span style="color: %s">`, s.Color.Hex()), "</span>"
	case markup.StyleLink:
		return fmt.Sprintf(`<a href="%s">`, html.EscapeString(s.URL)), "</a>"
	case markup.StyleCentered:
		return `<span class="center">`, "</span>"
	case markup.StyleHeading:
		return `<span class="heading">`, "</span>"
	case markup.StyleSpoiler:
		return `<span class="spoiler">`, "</span>"
	default:
		return "", ""
	}
}

func (r *HTMLRenderer) formula(b *strings.Builder, f *markup.Formula, placeholder string) {
	class := "formula"
	if !f.Kind.IsMath() {
		class = "inline-image"
	}

	if f.IsFileLink() {
		name := html.EscapeString(f.Attachment.Filename)
		if f.URL == "" {
			fmt.Fprintf(b, `<span class="attachment">%s</span>`, name)
			return
		}
		fmt.Fprintf(b, `<a class="attachment" href="%s">%s</a>`, html.EscapeString(f.URL), name)
		return
	}

	if f.Image != nil {
		if src, ok := dataURI(f.Image); ok {
			fmt.Fprintf(b, `<img class="%s" src="%s" width="%d" height="%d" alt="%s">`,
				class, src, f.Image.Width, f.Image.Height, html.EscapeString(f.Content))
			return
		}
	}

	if f.URL != "" {
		fmt.Fprintf(b, `<img class="%s" src="%s" alt="%s">`, class, html.EscapeString(f.URL), html.EscapeString(f.Content))
		return
	}

	fmt.Fprintf(b, `<span class="%s">%s</span>`, class, html.EscapeString(placeholder))
}

// dataURI encodes a resolved image as an inline PNG.
func dataURI(img *markup.Image) (string, bool) {
	if img.Data == nil {
		return "", false
	}

	var buf bytes.Buffer
	buf.WriteString("data:image/png;base64,")
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := png.Encode(enc, img.Data); err != nil {
		return "", false
	}
	if err := enc.Close(); err != nil {
		return "", false
	}
	return buf.String(), true
}
