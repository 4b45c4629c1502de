package tasks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Task is one unit of deferred work, owned by the request that submitted
// it until the response is sent.
type Task struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// Queue collects tasks during a request. After the response is emitted
// the queue is drained onto the runtime in submission order.
type Queue struct {
	mu    sync.Mutex
	tasks []Task
}

func NewQueue() *Queue {
	return &Queue{}
}

// Add submits a named task. The returned id identifies the task in logs.
func (q *Queue) Add(name string, run func(ctx context.Context) error) string {
	id := uuid.NewString()
	q.mu.Lock()
	q.tasks = append(q.tasks, Task{ID: id, Name: name, Run: run})
	q.mu.Unlock()
	return id
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) drain() []Task {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	return tasks
}
