package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyStyles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantText  string
		wantSpans []StyleSpan
	}{
		{
			name:     "plain text untouched",
			input:    "nothing to see",
			wantText: "nothing to see",
		},
		{
			name:      "bold",
			input:     "[b]bold[/b] text",
			wantText:  "bold text",
			wantSpans: []StyleSpan{{Start: 0, End: 4, Kind: StyleBold}},
		},
		{
			name:     "invalid color degrades to plain text",
			input:    "[c=not-a-color]x[/c]",
			wantText: "x",
		},
		{
			name:      "named color",
			input:     "[color=red]r[/color]",
			wantText:  "r",
			wantSpans: []StyleSpan{{Start: 0, End: 1, Kind: StyleColor, Color: RGB{R: 255}}},
		},
		{
			name:      "hex color",
			input:     "a [c=#00ff00]g[/c]",
			wantText:  "a g",
			wantSpans: []StyleSpan{{Start: 2, End: 3, Kind: StyleColor, Color: RGB{G: 255}}},
		},
		{
			name:      "link without scheme gets http",
			input:     "[url=example.com]site[/url]",
			wantText:  "site",
			wantSpans: []StyleSpan{{Start: 0, End: 4, Kind: StyleLink, URL: "http://example.com"}},
		},
		{
			name:      "bare url tag links its body",
			input:     "[url]https://a.b/c[/url]",
			wantText:  "https://a.b/c",
			wantSpans: []StyleSpan{{Start: 0, End: 13, Kind: StyleLink, URL: "https://a.b/c"}},
		},
		{
			name:     "empty link degrades to plain text",
			input:    "[url][/url]x",
			wantText: "x",
		},
		{
			name:     "different tags nest",
			input:    "[b][i]x[/i][/b]",
			wantText: "x",
			wantSpans: []StyleSpan{
				{Start: 0, End: 1, Kind: StyleBold},
				{Start: 0, End: 1, Kind: StyleItalic},
			},
		},
		{
			name:     "same tag nests",
			input:    "[b]a[b]b[/b]c[/b]",
			wantText: "abc",
			wantSpans: []StyleSpan{
				{Start: 0, End: 3, Kind: StyleBold},
				{Start: 1, End: 2, Kind: StyleBold},
			},
		},
		{
			name:     "unterminated bold stays literal",
			input:    "a [b]b",
			wantText: "a [b]b",
		},
		{
			name:     "index expressions survive",
			input:    "a[i] + b[i]",
			wantText: "a[i] + b[i]",
		},
		{
			name:      "invalid outer color around valid inner color",
			input:     "[c=bad][c=red]x[/c][/c]",
			wantText:  "x",
			wantSpans: []StyleSpan{{Start: 0, End: 1, Kind: StyleColor, Color: RGB{R: 255}}},
		},
		{
			name:     "block styles",
			input:    "[h]Title[/h]\n[center]mid[/center][curtain]secret[/curtain]",
			wantText: "Title\nmidsecret",
			wantSpans: []StyleSpan{
				{Start: 9, End: 15, Kind: StyleSpoiler},
				{Start: 6, End: 9, Kind: StyleCentered},
				{Start: 0, End: 5, Kind: StyleHeading},
			},
		},
		{
			name:     "underline then strikethrough",
			input:    "[s]strike[/s] [u]under[/u]",
			wantText: "strike under",
			wantSpans: []StyleSpan{
				{Start: 7, End: 12, Kind: StyleUnderline},
				{Start: 0, End: 6, Kind: StyleStrikethrough},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			text, spans := ApplyStyles(tt.input)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantSpans, spans)

			for _, s := range spans {
				assert.LessOrEqual(t, 0, s.Start)
				assert.LessOrEqual(t, s.Start, s.End)
				assert.LessOrEqual(t, s.End, len(text))
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   RGB
		wantOk bool
	}{
		{"red", RGB{R: 255}, true},
		{" Blue ", RGB{B: 255}, true},
		{"#0f0", RGB{G: 255}, true},
		{"#336699", RGB{R: 0x33, G: 0x66, B: 0x99}, true},
		{"#80ff0000", RGB{R: 255}, true},
		{"", RGB{}, false},
		{"nope", RGB{}, false},
		{"#12345", RGB{}, false},
		{"336699", RGB{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseColor(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRGBHex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "#ff0000", RGB{R: 255}.Hex())
	assert.Equal(t, "#0a0b0c", RGB{R: 10, G: 11, B: 12}.Hex())
}
