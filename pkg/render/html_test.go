package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/forummark/pkg/markup"
)

func renderHTML(t *testing.T, doc *markup.Document, minify bool) string {
	t.Helper()

	out, err := NewHTMLRenderer(Options{Minify: minify}).RenderString(doc)
	require.NoError(t, err)
	return out
}

func TestHTMLRendererInline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{"bold", "[b]x[/b]", []string{"<strong>x</strong>"}},
		{"nested styles", "[b][i]x[/i][/b]", []string{"<strong><em>x</em></strong>"}},
		{"color", "[c=red]x[/c]", []string{"#ff0000", ">x</span>"}},
		{"link", "[url=example.com]site[/url]", []string{`href="http://example.com"`, `rel="nofollow"`, ">site</a>"}},
		{"spoiler", "[curtain]boo[/curtain]", []string{`class="spoiler"`}},
		{"line break", "a\nb", []string{"a<br"}},
		{"emoticon", "hi :)", []string{`class="emoticon emoticon-smile"`}},
		{"math placeholder", "$x$", []string{`<img class="formula" src="https://tex.example/render?x"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := renderHTML(t, parseDoc(t, tt.input), false)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestHTMLRendererEscapes(t *testing.T) {
	t.Parallel()

	out := renderHTML(t, parseDoc(t, `<script>alert(1)</script> [b]<img src=x onerror=alert(1)>[/b]`), false)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<img src=x")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestHTMLRendererSanitizesLinks(t *testing.T) {
	t.Parallel()

	out := renderHTML(t, parseDoc(t, `[url="javascript:alert(1)"]x[/url]`), false)
	assert.NotContains(t, out, `href="javascript:`)
}

func TestHTMLRendererBlocks(t *testing.T) {
	t.Parallel()

	input := "[quote=7:@bob]hi[/quote]\n| A | B |\n| :-- | --: |\n| 1 | 2 |\n[code=go]a < b[/code]"
	out := renderHTML(t, parseDoc(t, input), false)

	assert.Contains(t, out, `<blockquote class="quote" data-post-id="7">`)
	assert.Contains(t, out, "bob wrote:")
	assert.Contains(t, out, "<th")
	assert.Contains(t, out, "text-align")
	assert.Contains(t, out, "right")
	assert.Contains(t, out, "<td")
	assert.Contains(t, out, `<code class="language-go">a &lt; b</code>`)
}

func TestHTMLRendererResolvedImage(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, "[attachment:9]", markup.Attachment{ID: "9", Filename: "cat.png"})
	resolveFirst(doc, 2, 2)

	out := renderHTML(t, doc, false)
	assert.Contains(t, out, `src="data:image/png;base64,`)
	assert.Contains(t, out, `class="inline-image"`)
}

func TestHTMLRendererAttachmentWithoutImage(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, "[attachment:9]", markup.Attachment{ID: "9", Filename: "notes.pdf"})
	out := renderHTML(t, doc, false)
	assert.Contains(t, out, `class="attachment"`)
	assert.Contains(t, out, `href="https://forum.example/att/9/notes.pdf"`)
	assert.Contains(t, out, `>notes.pdf</a>`)
	assert.NotContains(t, out, "<img")
}

func TestHTMLRendererMinify(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, "| A |\n|---|\n| 1 |\n")
	plain := renderHTML(t, doc, false)
	minified := renderHTML(t, doc, true)

	assert.Contains(t, plain, "\n")
	assert.NotContains(t, minified, "\n")
	assert.Less(t, len(minified), len(plain))
}
