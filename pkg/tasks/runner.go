package tasks

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/typedapi/typedapi/pkg/logger"
)

// Runner executes drained queues. Tasks from one request run sequentially
// in submission order on a single detached goroutine; tasks from distinct
// requests are independent.
type Runner struct {
	log *slog.Logger
	wg  sync.WaitGroup
}

func NewRunner(log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{log: log}
}

// Drain detaches the queue's tasks onto the runtime. Each task runs under
// a panic guard: a panicking task is logged with its id and location and
// does not affect its peers.
func (r *Runner) Drain(q *Queue) {
	tasks := q.drain()
	if len(tasks) == 0 {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for _, task := range tasks {
			r.runOne(task)
		}
	}()
}

// Wait blocks until all detached tasks have finished. Called during
// shutdown so in-flight work completes before the process exits.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) runOne(task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			r.log.Error("background task panicked",
				logger.TaskID(task.ID),
				slog.String("task_name", task.Name),
				slog.Any("panic", rec),
				slog.String("stack", string(buf[:n])),
			)
		}
	}()

	if err := task.Run(context.Background()); err != nil {
		r.log.Error("background task failed",
			logger.TaskID(task.ID),
			slog.String("task_name", task.Name),
			logger.Error(err),
		)
	}
}
