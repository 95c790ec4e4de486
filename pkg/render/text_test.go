package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/forummark/pkg/markup"
)

func renderText(t *testing.T, input string, width int) string {
	t.Helper()

	return NewTextRenderer(Options{Width: width}).RenderString(parseDoc(t, input), width)
}

func TestTextRendererFileAttachment(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, "see [attachment:9]", markup.Attachment{ID: "9", Filename: "notes.pdf"})
	out := NewTextRenderer(Options{Width: 80}).RenderString(doc, 80)
	assert.Equal(t, "see notes.pdf <https://forum.example/att/9/notes.pdf>", out)
}

func TestTextRendererInline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"styles stripped without color", "[b]Hi[/b] [i]there[/i]", "Hi there"},
		{"link target shown", "[url=example.com]site[/url]", "site <http://example.com>"},
		{"bare link", "[url=http://example.com]http://example.com[/url]", "http://example.com"},
		{"unresolved math", "a $x^2$ b", "a $x^2$ b"},
		{"unresolved image", "[img]pic.png[/img]", "[image: pic.png]"},
		{"emoticon", "ok :)", "ok :)"},
		{"newlines kept", "a\nb", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, renderText(t, tt.input, 40))
		})
	}
}

func TestTextRendererCentered(t *testing.T) {
	t.Parallel()

	out := renderText(t, "[center]Title[/center]\nbody", 20)
	assert.Equal(t, "       Title\nbody", out)
}

func TestTextRendererResolvedFormula(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, "see $x$")
	resolveFirst(doc, 3, 4)

	out := NewTextRenderer(Options{}).RenderString(doc, 40)
	assert.Equal(t, "see [formula 3x4]", out)
}

func TestTextRendererBlocks(t *testing.T) {
	t.Parallel()

	input := "intro [quote=7:@bob]hi there[/quote]\n| A | B |\n| :-- | --: |\n| 1 | 2 |\n[code=python]print(1)[/code]"
	out := renderText(t, input, 60)

	assert.True(t, strings.HasPrefix(out, "intro \n"), "blocks start on their own line: %q", out)
	assert.Contains(t, out, "bob wrote:")
	assert.Contains(t, out, "hi there")
	assert.Contains(t, out, "python")
	assert.Contains(t, out, "print(1)")
	for _, cell := range []string{"A", "B", "1", "2"} {
		assert.Contains(t, out, cell)
	}
	assert.Contains(t, out, "│")
}

func TestTextRendererRender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTextRenderer(Options{Writer: &buf})
	require.NoError(t, r.Render(context.Background(), parseDoc(t, "[s]gone[/s]")))
	assert.Equal(t, "gone\n", buf.String())

	buf.Reset()
	require.NoError(t, r.Render(context.Background(), parseDoc(t, "")))
	assert.Empty(t, buf.String())
}

func TestTextRendererColor(t *testing.T) {
	t.Parallel()

	theme := NewTheme(true)
	assert.True(t, theme.color)
	assert.True(t, theme.Bold.GetBold())
	assert.False(t, NewTheme(false).Bold.GetBold())
}
