package resolve

import (
	"context"
	"sync"
)

// Handle tracks one run's resolution.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	finished  bool
	summary   Summary
	callbacks []func(Summary)
}

func newHandle(cancel context.CancelFunc) *Handle {
	return &Handle{cancel: cancel, done: make(chan struct{})}
}

// OnComplete registers fn to run once every formula has been attempted. fn
// runs exactly once, on the resolver goroutine, or immediately on the calling
// goroutine if resolution has already finished.
func (h *Handle) OnComplete(fn func(Summary)) {
	h.mu.Lock()
	if !h.finished {
		h.callbacks = append(h.callbacks, fn)
		h.mu.Unlock()
		return
	}
	summary := h.summary
	h.mu.Unlock()

	fn(summary)
}

// Done is closed when resolution finishes, after the OnComplete callbacks
// registered before then have returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until resolution finishes or ctx ends.
func (h *Handle) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-h.done:
		return h.Summary(), nil
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}
}

// Summary returns the outcome. It is empty until Done is closed.
func (h *Handle) Summary() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.summary
}

// Cancel stops scheduling further fetches. Completion still fires.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) complete(summary Summary) {
	h.mu.Lock()
	h.finished = true
	h.summary = summary
	callbacks := h.callbacks
	h.callbacks = nil
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn(summary)
	}
	close(h.done)
}
