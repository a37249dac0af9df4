package jobs

import (
	"context"
	"log/slog"
	"sync"
)

// Worker is the in-process queue: a bounded channel drained by a fixed set
// of goroutines. Submit never blocks; when the buffer is full the job is
// dropped and logged.
type Worker struct {
	ch      chan Job
	handler Handler
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker starts workers goroutines draining a buffer of capacity jobs.
func NewWorker(handler Handler, workers, capacity int, logger *slog.Logger) *Worker {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		ch:      make(chan Job, capacity),
		handler: handler,
		logger:  logger,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
	return w
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.ch:
			if !ok {
				return
			}
			w.handler(ctx, job)
		}
	}
}

func (w *Worker) Submit(_ context.Context, job Job) error {
	select {
	case w.ch <- job:
	default:
		w.logger.Warn("job queue full, dropping job", "kind", job.Kind, "interview_id", job.InterviewID)
	}
	return nil
}

// Close stops the workers. Queued jobs that have not started are discarded.
func (w *Worker) Close() {
	w.cancel()
	w.wg.Wait()
}
