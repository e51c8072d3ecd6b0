package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// defaultAsyncBuffer is used when logging.async_buffer is unset.
const defaultAsyncBuffer = 1024

// Closer flushes and stops background logging work.
type Closer interface {
	Close()
}

// nopCloser is returned when logging runs synchronously.
type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler keeps log writes off the request path. Records are queued
// and written by one background goroutine, which keeps output ordered;
// a full queue drops the record instead of blocking the caller. Generation
// streams log per-chunk at debug level, so a stalled stdout must never
// stall the stream itself.
type AsyncHandler struct {
	inner   slog.Handler
	queue   chan slog.Record
	stopped chan struct{}
	dropped *atomic.Int64
}

// NewAsyncHandler wraps inner with a queue of the given capacity and starts
// the writer goroutine. A non-positive buffer falls back to the default.
func NewAsyncHandler(inner slog.Handler, buffer int) *AsyncHandler {
	if buffer <= 0 {
		buffer = defaultAsyncBuffer
	}
	h := &AsyncHandler{
		inner:   inner,
		queue:   make(chan slog.Record, buffer),
		stopped: make(chan struct{}),
		dropped: &atomic.Int64{},
	}
	go h.pump()
	return h
}

// pump writes queued records until the queue is closed.
func (h *AsyncHandler) pump() {
	defer close(h.stopped)
	for rec := range h.queue {
		_ = h.inner.Handle(context.Background(), rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it when the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.queue <- rec:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs wraps a new inner handler around the shared queue.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{
		inner:   h.inner.WithAttrs(attrs),
		queue:   h.queue,
		stopped: h.stopped,
		dropped: h.dropped,
	}
}

// WithGroup wraps a new inner handler around the shared queue.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{
		inner:   h.inner.WithGroup(name),
		queue:   h.queue,
		stopped: h.stopped,
		dropped: h.dropped,
	}
}

// DroppedCount reports how many records were discarded because the queue
// was full.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.dropped.Load()
}

// Close stops accepting records and blocks until the queue is drained.
func (h *AsyncHandler) Close() {
	close(h.queue)
	<-h.stopped
}
