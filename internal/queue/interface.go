package queue

// TaskQueue is the enqueue-side interface handed to the API layer.
// This enables better testability by allowing mock implementations
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *Task) error
}
