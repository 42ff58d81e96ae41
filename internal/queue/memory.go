package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// defaultCapacity is generous for the expected load; enqueue blocks if it
	// ever fills, which is the documented backpressure policy.
	defaultCapacity = 256
	// drainTimeout caps the best-effort flush of remaining tasks on shutdown.
	drainTimeout = 10 * time.Second
)

// MemoryQueue is the in-process task queue: a channel drained by a single
// consumer loop. One failing task never stops the loop, and shutdown drains
// remaining tasks best-effort.
type MemoryQueue struct {
	tasks  chan *Task
	logger *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemoryQueue creates a queue with the default capacity.
func NewMemoryQueue(logger *zap.Logger) *MemoryQueue {
	return &MemoryQueue{
		tasks:  make(chan *Task, defaultCapacity),
		logger: logger,
		closed: make(chan struct{}),
	}
}

var _ TaskQueue = (*MemoryQueue)(nil)

// Enqueue adds a task to the queue. It fails fast on a nil task or nil run
// function and rejects tasks after shutdown has begun.
func (q *MemoryQueue) Enqueue(task *Task) error {
	if task == nil || task.Run == nil {
		return fmt.Errorf("task and task run function are required")
	}

	select {
	case <-q.closed:
		return fmt.Errorf("queue is shut down")
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	case <-q.closed:
		return fmt.Errorf("queue is shut down")
	}
}

// Len returns the number of queued, unexecuted tasks.
func (q *MemoryQueue) Len() int {
	return len(q.tasks)
}

// Run consumes tasks sequentially until ctx is cancelled, then drains
// whatever is still queued. It always returns ctx's error.
func (q *MemoryQueue) Run(ctx context.Context) error {
	q.logger.Info("task_queue_started")

	for {
		select {
		case <-ctx.Done():
			q.closeOnce.Do(func() { close(q.closed) })
			q.drain()
			q.logger.Info("task_queue_stopped")
			return ctx.Err()
		case task := <-q.tasks:
			q.execute(ctx, task)
		}
	}
}

// drain flush-attempts remaining tasks after shutdown was requested, bounded
// by drainTimeout. No durability guarantee: whatever does not finish is lost.
func (q *MemoryQueue) drain() {
	remaining := len(q.tasks)
	if remaining == 0 {
		return
	}
	q.logger.Info("task_queue_draining", zap.Int("remaining", remaining))

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case task := <-q.tasks:
			q.execute(ctx, task)
		case <-ctx.Done():
			q.logger.Warn("task_queue_drain_timeout", zap.Int("dropped", len(q.tasks)))
			return
		default:
			return
		}
	}
}

// execute runs one task, isolating errors and panics so the loop survives.
func (q *MemoryQueue) execute(ctx context.Context, task *Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task_panicked",
				zap.String("task_id", task.ID.String()),
				zap.String("task_name", task.Name),
				zap.Any("panic", r),
			)
		}
	}()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		q.logger.Error("task_failed",
			zap.String("task_id", task.ID.String()),
			zap.String("task_name", task.Name),
			zap.Error(err),
		)
		return
	}

	q.logger.Debug("task_completed",
		zap.String("task_id", task.ID.String()),
		zap.String("task_name", task.Name),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}
