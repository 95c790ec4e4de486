package resolve

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/forummark/internal/logging"
	"github.com/yaklabco/forummark/pkg/markup"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func runWith(urls ...string) *markup.TextRun {
	run := &markup.TextRun{}
	for i, u := range urls {
		run.Text += "$x$ "
		run.Formulas = append(run.Formulas, markup.Formula{
			Start:   4 * i,
			End:     4*i + 3,
			Content: "x",
			URL:     u,
			Kind:    markup.FormulaInlineMath,
		})
	}
	return run
}

func TestResolverResilience(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 20, 10)
	fetcher := FetchFunc(func(_ context.Context, url string) ([]byte, error) {
		if url == "b" {
			return nil, errors.New("connection reset")
		}
		return data, nil
	})

	run := runWith("a", "b", "c")
	var calls atomic.Int32
	handle := New(fetcher, Options{}).Start(context.Background(), run)
	handle.OnComplete(func(Summary) { calls.Add(1) })

	summary, err := handle.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 2, summary.Resolved)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 3)
	require.Error(t, summary.Results[1].Err)

	assert.True(t, run.Formulas[0].Resolved())
	assert.False(t, run.Formulas[1].Resolved())
	assert.True(t, run.Formulas[2].Resolved())
	assert.Equal(t, "$x$ $x$ $x$ ", run.Text)
}

func TestResolverSequentialInOrder(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 4, 4)

	var (
		mu     sync.Mutex
		order  []string
		active atomic.Int32
		peak   atomic.Int32
	)
	fetcher := FetchFunc(func(_ context.Context, url string) ([]byte, error) {
		n := active.Add(1)
		defer active.Add(-1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(time.Millisecond)

		mu.Lock()
		order = append(order, url)
		mu.Unlock()
		return data, nil
	})

	summary := New(fetcher, Options{}).Resolve(context.Background(), runWith("1", "2", "3", "4"))
	assert.Equal(t, 4, summary.Resolved)
	assert.Equal(t, []string{"1", "2", "3", "4"}, order)
	assert.Equal(t, int32(1), peak.Load())
}

func TestResolverSkipsEmptyURL(t *testing.T) {
	t.Parallel()

	var fetched atomic.Int32
	fetcher := FetchFunc(func(context.Context, string) ([]byte, error) {
		fetched.Add(1)
		return nil, errors.New("unused")
	})

	summary := New(fetcher, Options{}).Resolve(context.Background(), runWith(""))
	assert.Equal(t, 1, summary.Skipped)
	assert.ErrorIs(t, summary.Results[0].Err, ErrNoURL)
	assert.Zero(t, fetched.Load())
}

func TestResolverSkipsFileAttachment(t *testing.T) {
	t.Parallel()

	var fetched atomic.Int32
	fetcher := FetchFunc(func(context.Context, string) ([]byte, error) {
		fetched.Add(1)
		return nil, errors.New("unused")
	})

	run := &markup.TextRun{
		Text: "[attachment:3]",
		Formulas: []markup.Formula{{
			End:        14,
			Content:    "3",
			URL:        "https://forum.example/att/3/notes.pdf",
			Kind:       markup.FormulaAttachmentImage,
			Attachment: &markup.Attachment{ID: "3", Filename: "notes.pdf"},
		}},
	}
	summary := New(fetcher, Options{}).Resolve(context.Background(), run)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, fetched.Load())
	assert.False(t, run.Formulas[0].Resolved())
}

func TestResolverScaling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		width, height  int
		sizeHint       int
		wantW, wantH   int
		centerBaseline bool
	}{
		{"fits", 100, 20, 0, 100, 20, false},
		{"scaled to max width", 1000, 40, 0, 500, 20, false},
		{"size hint narrows", 1000, 40, 100, 100, 4, false},
		{"size hint above max width", 1000, 40, 800, 800, 32, false},
		{"size hint enlarges small image", 100, 10, 300, 300, 30, false},
		{"size hint equal to width", 100, 20, 100, 100, 20, false},
		{"tall image", 10, 100, 0, 10, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := pngBytes(t, tt.width, tt.height)
			fetcher := FetchFunc(func(context.Context, string) ([]byte, error) { return data, nil })

			run := runWith("img")
			run.Formulas[0].SizeHint = tt.sizeHint

			summary := New(fetcher, Options{MaxWidth: 500, InlineMaxHeight: 48}).Resolve(context.Background(), run)
			require.Equal(t, 1, summary.Resolved)

			img := run.Formulas[0].Image
			require.NotNil(t, img)
			assert.Equal(t, tt.wantW, img.Width)
			assert.Equal(t, tt.wantH, img.Height)
			assert.Equal(t, tt.centerBaseline, img.CenterBaseline)
			assert.Equal(t, tt.wantW, img.Data.Bounds().Dx())
		})
	}
}

func TestResolverDecodeFailure(t *testing.T) {
	t.Parallel()

	fetcher := FetchFunc(func(context.Context, string) ([]byte, error) { return []byte("not an image"), nil })

	run := runWith("a")
	summary := New(fetcher, Options{}).Resolve(context.Background(), run)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, run.Formulas[0].Resolved())
}

func TestResolverCancel(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	fetcher := FetchFunc(func(ctx context.Context, _ string) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	run := runWith("a", "b", "c")
	var calls atomic.Int32
	handle := New(fetcher, Options{}).Start(context.Background(), run)
	handle.OnComplete(func(Summary) { calls.Add(1) })

	<-started
	handle.Cancel()

	summary, err := handle.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, summary.Failed, "an interrupted fetch is not a failure")
	assert.Equal(t, 3, summary.Cancelled)
	assert.ErrorIs(t, summary.Results[0].Err, context.Canceled)
	assert.ErrorIs(t, summary.Results[2].Err, context.Canceled)
	for _, f := range run.Formulas {
		assert.False(t, f.Resolved())
	}
}

func TestResolverLogsToContextLogger(t *testing.T) {
	t.Parallel()

	fetcher := FetchFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	})

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.NewWriter(&buf, "warn"))

	summary := New(fetcher, Options{}).Resolve(ctx, runWith("https://tex.example/a"))
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, buf.String(), "formula not resolved")
	assert.Contains(t, buf.String(), "https://tex.example/a")
}

func TestResolverTimeout(t *testing.T) {
	t.Parallel()

	fetcher := FetchFunc(func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	summary := New(fetcher, Options{Timeout: 5 * time.Millisecond}).Resolve(context.Background(), runWith("a", "b"))
	assert.Equal(t, 2, summary.Failed)
	assert.ErrorIs(t, summary.Results[0].Err, context.DeadlineExceeded)
}

func TestHandleOnCompleteAfterDone(t *testing.T) {
	t.Parallel()

	handle := New(FetchFunc(nil), Options{}).Start(context.Background(), &markup.TextRun{})
	<-handle.Done()

	var got *Summary
	handle.OnComplete(func(s Summary) { got = &s })
	require.NotNil(t, got, "callback runs immediately once complete")
	assert.Empty(t, got.Results)
}

func TestHandleWaitContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	fetcher := FetchFunc(func(context.Context, string) ([]byte, error) {
		<-release
		return nil, errors.New("released")
	})

	handle := New(fetcher, Options{}).Start(context.Background(), runWith("a"))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := handle.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolverMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	data := pngBytes(t, 2, 2)
	fetcher := FetchFunc(func(_ context.Context, url string) ([]byte, error) {
		if url == "bad" {
			return nil, errors.New("boom")
		}
		return data, nil
	})

	New(fetcher, Options{Metrics: metrics}).Resolve(context.Background(), runWith("ok", "bad", "", "ok"))

	kind := markup.FormulaInlineMath.String()
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.formulas.WithLabelValues(kind, resultResolved)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.formulas.WithLabelValues(kind, resultFailed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.formulas.WithLabelValues(kind, resultSkipped)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.inflight), 0)

	_, err = NewMetrics(reg)
	require.Error(t, err, "registering twice fails")
}

func TestResolveDocument(t *testing.T) {
	t.Parallel()

	input := "$a$ [quote]$b$ [quote]$c$[/quote][/quote]\n| h |\n|---|\n| $d$ |\n[code]$e$[/code]"
	doc, err := markup.NewParser(markup.Options{FormulaURL: "https://tex.example/{tex}"}).
		Parse(context.Background(), input, nil)
	require.NoError(t, err)

	data := pngBytes(t, 8, 8)
	var fetched atomic.Int32
	fetcher := FetchFunc(func(context.Context, string) ([]byte, error) {
		fetched.Add(1)
		return data, nil
	})

	summary := New(fetcher, Options{Jobs: 2}).ResolveDocument(context.Background(), doc)
	assert.Equal(t, 4, summary.Runs)
	assert.Equal(t, 4, summary.Resolved)
	assert.Equal(t, int32(4), fetched.Load())

	markup.WalkTextRuns(doc, func(run *markup.TextRun) {
		for _, f := range run.Formulas {
			assert.True(t, f.Resolved())
		}
	})
}
