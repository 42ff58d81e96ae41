package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task is a deferred unit of work enqueued by the synchronous API layer so
// that HTTP responses are not blocked by conversation or storage I/O. Tasks
// are in-memory only: a process crash loses unexecuted items, which is
// acceptable because every item is re-derivable from the next scheduler tick
// or the next user action.
type Task struct {
	ID         uuid.UUID
	Name       string
	Run        func(ctx context.Context) error
	EnqueuedAt time.Time
}

// NewTask creates a task with a fresh id.
func NewTask(name string, run func(ctx context.Context) error) *Task {
	return &Task{
		ID:         uuid.New(),
		Name:       name,
		Run:        run,
		EnqueuedAt: time.Now(),
	}
}
