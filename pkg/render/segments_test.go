package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/forummark/pkg/markup"
)

func segmentTexts(segs []segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.text
	}
	return out
}

func TestSplitRun(t *testing.T) {
	t.Parallel()

	run := &markup.TextRun{
		Text: "ab $x$ cd\nef :)",
		Styles: []markup.StyleSpan{
			{Start: 1, End: 5, Kind: markup.StyleBold},
			{Start: 4, End: 8, Kind: markup.StyleItalic},
		},
		Formulas:  []markup.Formula{{Start: 3, End: 6, Kind: markup.FormulaInlineMath}},
		Emoticons: []markup.Emoticon{{Start: 13, End: 15, Code: ":)", Icon: "smile"}},
	}

	segs := splitRun(run)
	assert.Equal(t, []string{"a", "b ", "$x$", " c", "d", "\n", "ef ", ":)"}, segmentTexts(segs))

	formula := segs[2]
	require.NotNil(t, formula.formula)
	assert.True(t, formula.has(markup.StyleBold))
	assert.False(t, formula.has(markup.StyleItalic), "styles are taken at the formula start")

	assert.True(t, segs[3].has(markup.StyleItalic))
	assert.False(t, segs[3].has(markup.StyleBold))
	require.NotNil(t, segs[7].emoticon)

	pos := 0
	for _, s := range segs {
		assert.Equal(t, pos, s.start)
		pos = s.end
	}
	assert.Equal(t, len(run.Text), pos)
}

func TestSplitRunEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, splitRun(&markup.TextRun{}))
}
