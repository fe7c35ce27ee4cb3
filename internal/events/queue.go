package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// MemoryQueue is an in-process buffered queue drained by a fixed pool of workers.
// Events are delivered at most once; anything still buffered at Close is drained first.
type MemoryQueue struct {
	queue   chan CommentCreated
	handle  Handler
	workers int
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewMemoryQueue(size, workers int, handle Handler, log *slog.Logger) *MemoryQueue {
	if size <= 0 {
		size = 1000
	}
	if workers <= 0 {
		workers = 1
	}
	return &MemoryQueue{
		queue:   make(chan CommentCreated, size),
		handle:  handle,
		workers: workers,
		log:     log.With("component", "event_queue"),
	}
}

// Start launches the workers. ctx is passed to every handler call.
func (q *MemoryQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Publish never blocks: when the buffer is full the event is dropped and logged.
func (q *MemoryQueue) Publish(ctx context.Context, ev CommentCreated) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.queue <- ev:
		return nil
	default:
		q.log.WarnContext(ctx, "event queue full, dropping event", "comment_id", ev.CommentID, "post_id", ev.PostID)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the workers to drain the buffer.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *MemoryQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for ev := range q.queue {
		q.dispatch(ctx, ev)
	}
}

func (q *MemoryQueue) dispatch(ctx context.Context, ev CommentCreated) {
	defer func() {
		if r := recover(); r != nil {
			q.log.ErrorContext(ctx, "event handler panicked", "comment_id", ev.CommentID, "panic", r)
		}
	}()
	if err := q.handle(ctx, ev); err != nil {
		q.log.WarnContext(ctx, "event handler failed", "comment_id", ev.CommentID, "error", err)
	}
}
