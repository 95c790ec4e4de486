package pretty

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yaklabco/forummark/pkg/markup"
	"github.com/yaklabco/forummark/pkg/resolve"
)

const summaryDividerWidth = 40

// Stats describes one render command invocation.
type Stats struct {
	Source   string
	Bytes    int
	Blocks   int
	Runs     int
	Formulas int
	Resolve  *resolve.DocumentSummary
	Elapsed  time.Duration
}

// CollectStats counts the blocks, text runs and formulas of doc.
func CollectStats(doc *markup.Document) Stats {
	stats := Stats{Blocks: len(doc.Blocks)}
	markup.WalkTextRuns(doc, func(run *markup.TextRun) {
		stats.Runs++
		stats.Formulas += len(run.Formulas)
	})
	return stats
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatSummaryOneLine formats stats as a single line.
// Example: "3 blocks, 5 formulas (4 resolved, 1 failed) in 120ms".
func (s *Styles) FormatSummaryOneLine(stats Stats) string {
	parts := []string{
		fmt.Sprintf("%d %s", stats.Blocks, plural(stats.Blocks, "block", "blocks")),
	}

	formulas := fmt.Sprintf("%d %s", stats.Formulas, plural(stats.Formulas, "formula", "formulas"))
	if r := stats.Resolve; r != nil {
		var outcome []string
		if r.Resolved > 0 {
			outcome = append(outcome, s.Success.Render(fmt.Sprintf("%d resolved", r.Resolved)))
		}
		if r.Failed > 0 {
			outcome = append(outcome, s.Failure.Render(fmt.Sprintf("%d failed", r.Failed)))
		}
		if r.Skipped > 0 {
			outcome = append(outcome, s.Dim.Render(fmt.Sprintf("%d skipped", r.Skipped)))
		}
		if r.Cancelled > 0 {
			outcome = append(outcome, s.Warning.Render(fmt.Sprintf("%d cancelled", r.Cancelled)))
		}
		if len(outcome) > 0 {
			formulas += " (" + strings.Join(outcome, ", ") + ")"
		}
	}
	parts = append(parts, formulas)

	line := strings.Join(parts, ", ")
	if stats.Elapsed > 0 {
		line += s.Dim.Render(" in " + stats.Elapsed.Round(time.Millisecond).String())
	}
	return line + "\n"
}

// FormatSummary formats stats as a summary block.
func (s *Styles) FormatSummary(stats Stats) string {
	var builder strings.Builder

	row := func(label string, style func(...string) string, value int) {
		builder.WriteString(fmt.Sprintf("  %-18s %s\n", label+":", style(strconv.Itoa(value))))
	}

	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Summary"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")

	if stats.Source != "" {
		builder.WriteString(fmt.Sprintf("  %-18s %s\n", "Source:", s.Bold.Render(stats.Source)))
	}
	row("Bytes", s.SummaryValue.Render, stats.Bytes)
	row("Blocks", s.SummaryValue.Render, stats.Blocks)
	row("Text runs", s.SummaryValue.Render, stats.Runs)
	row("Formulas", s.SummaryValue.Render, stats.Formulas)

	r := stats.Resolve
	if r == nil {
		builder.WriteString("\n")
		builder.WriteString(s.Dim.Render("Resolution disabled"))
		builder.WriteString("\n")
		return builder.String()
	}

	builder.WriteString("\n")
	row("Resolved", s.Success.Render, r.Resolved)
	if r.Failed > 0 {
		row("Failed", s.Failure.Render, r.Failed)
	}
	if r.Skipped > 0 {
		row("Skipped", s.Dim.Render, r.Skipped)
	}
	if r.Cancelled > 0 {
		row("Cancelled", s.Warning.Render, r.Cancelled)
	}
	builder.WriteString("\n")

	switch {
	case r.Cancelled > 0:
		builder.WriteString(s.Warning.Render("Resolution cancelled"))
	case r.Failed > 0:
		builder.WriteString(s.Failure.Render("Resolution completed with failures"))
	default:
		builder.WriteString(s.Success.Render("Resolution complete"))
	}
	builder.WriteString("\n")

	return builder.String()
}
