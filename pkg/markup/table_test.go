package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	t.Parallel()

	t.Run("header and alignments", func(t *testing.T) {
		t.Parallel()

		input := "| A | B |\n| :--- | ---: |\n| 1 | 2 |"
		rng, tbl, ok := ParseTable(input)
		require.True(t, ok)

		assert.Equal(t, SourceRange{Start: 0, End: len(input)}, rng)
		require.NotNil(t, tbl.Header)
		assert.Equal(t, []string{"A", "B"}, tbl.Header.Texts())
		assert.Equal(t, []Alignment{AlignLeft, AlignRight}, tbl.Alignments)
		require.Len(t, tbl.Rows, 1)
		assert.Equal(t, []string{"1", "2"}, tbl.Rows[0].Texts())
		assert.Equal(t, 2, tbl.Columns())
	})

	t.Run("no header", func(t *testing.T) {
		t.Parallel()

		input := "text above\n|:---:|---|\n|x|y|\n|z|w|\nafter"
		rng, tbl, ok := ParseTable(input)
		require.True(t, ok)

		assert.Nil(t, tbl.Header)
		assert.Equal(t, []Alignment{AlignCenter, AlignLeft}, tbl.Alignments)
		require.Len(t, tbl.Rows, 2)
		assert.Equal(t, []string{"z", "w"}, tbl.Rows[1].Texts())
		assert.Equal(t, "|:---:|---|\n|x|y|\n|z|w|\n", input[rng.Start:rng.End])
	})

	t.Run("rows stop at cell count mismatch", func(t *testing.T) {
		t.Parallel()

		input := "a | b\n--|--\n1 | 2\n1 | 2 | 3\n"
		rng, tbl, ok := ParseTable(input)
		require.True(t, ok)

		assert.Equal(t, []string{"a", "b"}, tbl.Header.Texts())
		require.Len(t, tbl.Rows, 1)
		assert.Equal(t, "a | b\n--|--\n1 | 2\n", input[rng.Start:rng.End])
	})

	t.Run("cells carry nested documents", func(t *testing.T) {
		t.Parallel()

		_, tbl, ok := ParseTable("| [b]x[/b] |\n| --- |\n| y |")
		require.True(t, ok)

		cell := (*tbl.Header)[0]
		assert.Equal(t, "[b]x[/b]", cell.Text)
		require.Len(t, cell.Content.Blocks, 1)

		run, ok := cell.Content.Blocks[0].(*TextRun)
		require.True(t, ok)
		assert.Equal(t, "x", run.Text)
		assert.Equal(t, []StyleSpan{{Start: 0, End: 1, Kind: StyleBold}}, run.Styles)
		assert.Equal(t, SourceRange{Start: 2, End: 10}, run.Range)
	})

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{
			"",
			"no table here",
			"| A | B |\n| - | - |\n| 1 | 2 |",
			"| A | B |\n| --- | --- |",
			"| A | B |\n| --x | --- |\n| 1 | 2 |",
			"---\n---",
		} {
			_, _, ok := ParseTable(input)
			assert.False(t, ok, "input %q", input)
		}
	})
}

func TestParseSeparatorCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell   string
		want   Alignment
		wantOk bool
	}{
		{"---", AlignLeft, true},
		{":---", AlignLeft, true},
		{"---:", AlignRight, true},
		{":---:", AlignCenter, true},
		{"--", AlignLeft, true},
		{"-", AlignLeft, false},
		{":-:", AlignLeft, false},
		{"::", AlignLeft, false},
		{"-- -", AlignLeft, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			t.Parallel()

			got, ok := parseSeparatorCell(tt.cell)
			assert.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
