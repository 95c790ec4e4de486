package pretty_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/forummark/internal/ui/pretty"
	"github.com/yaklabco/forummark/pkg/markup"
	"github.com/yaklabco/forummark/pkg/resolve"
)

func TestCollectStats(t *testing.T) {
	doc, err := markup.NewParser(markup.Options{}).Parse(context.Background(),
		"$a$ and $b$\n[quote]$c$[/quote]\n[code]$d$[/code]", nil)
	require.NoError(t, err)

	stats := pretty.CollectStats(doc)
	assert.Equal(t, len(doc.Blocks), stats.Blocks)
	assert.Equal(t, 3, stats.Formulas)
	assert.GreaterOrEqual(t, stats.Runs, 2)
}

func TestFormatSummaryOneLine(t *testing.T) {
	styles := pretty.NewStyles(false)

	tests := []struct {
		name  string
		stats pretty.Stats
		want  string
	}{
		{
			name:  "no resolution",
			stats: pretty.Stats{Blocks: 1, Formulas: 2},
			want:  "1 block, 2 formulas\n",
		},
		{
			name: "mixed outcome",
			stats: pretty.Stats{
				Blocks:   3,
				Formulas: 5,
				Resolve:  &resolve.DocumentSummary{Resolved: 3, Failed: 1, Skipped: 1},
				Elapsed:  120 * time.Millisecond,
			},
			want: "3 blocks, 5 formulas (3 resolved, 1 failed, 1 skipped) in 120ms\n",
		},
		{
			name: "cancelled",
			stats: pretty.Stats{
				Blocks:   1,
				Formulas: 1,
				Resolve:  &resolve.DocumentSummary{Cancelled: 1},
			},
			want: "1 block, 1 formula (1 cancelled)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, styles.FormatSummaryOneLine(tt.stats))
		})
	}
}

func TestFormatSummary(t *testing.T) {
	styles := pretty.NewStyles(false)

	t.Run("resolution disabled", func(t *testing.T) {
		result := styles.FormatSummary(pretty.Stats{Source: "post.txt", Bytes: 42, Blocks: 2})

		assert.Contains(t, result, "Summary")
		assert.Contains(t, result, "post.txt")
		assert.Contains(t, result, "Bytes:")
		assert.Contains(t, result, "42")
		assert.Contains(t, result, "Resolution disabled")
		assert.NotContains(t, result, "Resolved:")
	})

	t.Run("failures", func(t *testing.T) {
		result := styles.FormatSummary(pretty.Stats{
			Formulas: 4,
			Resolve:  &resolve.DocumentSummary{Resolved: 3, Failed: 1},
		})

		assert.Contains(t, result, "Resolved:")
		assert.Contains(t, result, "Failed:")
		assert.NotContains(t, result, "Skipped:")
		assert.Contains(t, result, "Resolution completed with failures")
	})

	t.Run("complete", func(t *testing.T) {
		result := styles.FormatSummary(pretty.Stats{
			Formulas: 2,
			Resolve:  &resolve.DocumentSummary{Resolved: 2},
		})

		assert.Contains(t, result, "Resolution complete")
	})
}
