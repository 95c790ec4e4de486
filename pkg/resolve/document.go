package resolve

import (
	"context"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/forummark/pkg/markup"
)

// DocumentSummary aggregates the run summaries of a document.
type DocumentSummary struct {
	Runs      int
	Resolved  int
	Failed    int
	Skipped   int
	Cancelled int
}

// ResolveDocument resolves every text run of doc, including runs inside
// quotes and table cells. Up to Options.Jobs runs proceed at once; formulas
// within a run stay sequential. It returns once every run has completed.
func (r *Resolver) ResolveDocument(ctx context.Context, doc *markup.Document) DocumentSummary {
	var runs []*markup.TextRun
	markup.WalkTextRuns(doc, func(run *markup.TextRun) {
		if len(run.Formulas) > 0 {
			runs = append(runs, run)
		}
	})

	summaries := make([]Summary, len(runs))

	var group errgroup.Group
	group.SetLimit(r.opts.Jobs)
	for i, run := range runs {
		group.Go(func() error {
			summaries[i] = r.Resolve(ctx, run)
			return nil
		})
	}
	_ = group.Wait()

	return DocumentSummary{
		Runs:      len(runs),
		Resolved:  lo.SumBy(summaries, func(s Summary) int { return s.Resolved }),
		Failed:    lo.SumBy(summaries, func(s Summary) int { return s.Failed }),
		Skipped:   lo.SumBy(summaries, func(s Summary) int { return s.Skipped }),
		Cancelled: lo.SumBy(summaries, func(s Summary) int { return s.Cancelled }),
	}
}
