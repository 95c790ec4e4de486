// Package resolve substitutes remote-rendered images for the formula
// placeholders of parsed text runs.
//
// Each text run is resolved by one goroutine that fetches its formulas in
// ascending offset order, one at a time. A failed fetch leaves its
// placeholder in place and never stops the remaining formulas. The goroutine
// is the only writer of Formula.Image; readers wait for completion.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/forummark/internal/logging"
	"github.com/yaklabco/forummark/pkg/markup"
)

// Defaults for a Resolver.
const (
	DefaultTimeout         = 15 * time.Second
	DefaultMaxWidth        = 640
	DefaultInlineMaxHeight = 48
	DefaultJobs            = 4
)

// ErrNoURL is recorded for formulas that have nothing to fetch.
var ErrNoURL = errors.New("formula has no url")

// Fetcher retrieves the bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetchFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Options configures a Resolver.
type Options struct {
	// Timeout bounds each fetch. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxWidth is the widest an image may be after scaling. Zero means
	// DefaultMaxWidth; negative disables scaling.
	MaxWidth int

	// InlineMaxHeight is the tallest image rendered on the text baseline.
	// Zero means DefaultInlineMaxHeight.
	InlineMaxHeight int

	// Jobs bounds how many runs ResolveDocument resolves at once.
	Jobs int

	// Logger receives per-formula diagnostics. Nil means the logger carried
	// by the context passed to Start.
	Logger *log.Logger

	// Metrics records outcomes. Nil disables metrics.
	Metrics *Metrics
}

// Resolver starts resolution of text runs.
type Resolver struct {
	fetcher Fetcher
	opts    Options
}

// New creates a Resolver that fetches through fetcher.
func New(fetcher Fetcher, opts Options) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxWidth == 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if opts.InlineMaxHeight <= 0 {
		opts.InlineMaxHeight = DefaultInlineMaxHeight
	}
	if opts.Jobs <= 0 {
		opts.Jobs = DefaultJobs
	}

	return &Resolver{fetcher: fetcher, opts: opts}
}

// Result is the outcome for one formula.
type Result struct {
	// Index is the formula's position in the run.
	Index int
	URL   string
	Kind  markup.FormulaKind

	// Err is nil on success. ErrNoURL marks a skipped formula; a context
	// error marks one interrupted or never attempted because the run was
	// cancelled.
	Err error
}

// Summary is the outcome for one run.
type Summary struct {
	Results []Result

	Resolved  int
	Failed    int
	Skipped   int
	Cancelled int
}

// Start begins resolving run in the background and returns its handle.
//
// The formula list is snapshotted here: later edits to run.Formulas are not
// seen, and callers re-parse rather than patch a stale run. Cancelling ctx
// or the handle stops scheduling further fetches. Substitutions already made
// stay in place.
func (r *Resolver) Start(ctx context.Context, run *markup.TextRun) *Handle {
	logger := r.opts.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	handle := newHandle(cancel)

	targets := make([]*markup.Formula, len(run.Formulas))
	for i := range run.Formulas {
		targets[i] = &run.Formulas[i]
	}
	snapshot := make([]markup.Formula, len(run.Formulas))
	copy(snapshot, run.Formulas)

	r.opts.Metrics.runStarted()
	go func() {
		summary := r.resolveAll(ctx, logger, snapshot, targets)
		cancel()
		r.opts.Metrics.runFinished()
		handle.complete(summary)
	}()

	return handle
}

// Resolve resolves run synchronously.
func (r *Resolver) Resolve(ctx context.Context, run *markup.TextRun) Summary {
	h := r.Start(ctx, run)
	<-h.Done()
	return h.Summary()
}

func (r *Resolver) resolveAll(ctx context.Context, logger *log.Logger, snapshot []markup.Formula, targets []*markup.Formula) Summary {
	summary := Summary{Results: make([]Result, 0, len(snapshot))}

	for i, f := range snapshot {
		res := Result{Index: i, URL: f.URL, Kind: f.Kind}
		kind := f.Kind.String()

		switch {
		case ctx.Err() != nil:
			res.Err = ctx.Err()
			summary.Cancelled++
			r.opts.Metrics.observe(kind, resultCancelled, 0)

		case f.URL == "" || f.IsFileLink():
			res.Err = ErrNoURL
			summary.Skipped++
			r.opts.Metrics.observe(kind, resultSkipped, 0)

		default:
			began := time.Now()
			img, err := r.resolveOne(ctx, f)
			elapsed := time.Since(began)

			if err != nil && ctx.Err() != nil {
				res.Err = err
				summary.Cancelled++
				r.opts.Metrics.observe(kind, resultCancelled, elapsed.Seconds())
				logger.Debug("formula fetch interrupted",
					logging.FieldIndex, i,
					logging.FieldURL, f.URL)
				break
			}
			if err != nil {
				res.Err = err
				summary.Failed++
				r.opts.Metrics.observe(kind, resultFailed, elapsed.Seconds())
				logger.Warn("formula not resolved",
					logging.FieldIndex, i,
					logging.FieldKind, kind,
					logging.FieldURL, f.URL,
					logging.FieldError, err)
				break
			}

			targets[i].Image = img
			summary.Resolved++
			r.opts.Metrics.observe(kind, resultResolved, elapsed.Seconds())
			logger.Debug("formula resolved",
				logging.FieldIndex, i,
				logging.FieldKind, kind,
				logging.FieldDuration, elapsed)
		}

		summary.Results = append(summary.Results, res)
	}

	return summary
}

func (r *Resolver) resolveOne(ctx context.Context, f markup.Formula) (*markup.Image, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	data, err := r.fetcher.Fetch(fetchCtx, f.URL)
	if err != nil {
		return nil, err
	}

	img, err := decodeImage(data, r.opts.MaxWidth, f.SizeHint, r.opts.InlineMaxHeight)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.URL, err)
	}
	return img, nil
}
