package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	done := make(chan struct{}, 3)

	w := NewWorker(func(_ context.Context, job Job) {
		mu.Lock()
		seen[job.InterviewID] = true
		mu.Unlock()
		done <- struct{}{}
	}, 1, 8, discard())
	defer w.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := w.Submit(context.Background(), Job{Kind: KindSnapshot, InterviewID: id}); err != nil {
			t.Fatalf("Submit(%s) error = %v", id, err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, id := range []string{"a", "b", "c"} {
		if !seen[id] {
			t.Errorf("job %q not processed", id)
		}
	}
}

func TestWorkerFullQueueDropsWithoutBlocking(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	w := NewWorker(func(_ context.Context, _ Job) {
		once.Do(func() { close(started) })
		<-block
	}, 1, 1, discard())
	defer w.Close()
	defer close(block)

	// First job occupies the worker, second fills the buffer.
	_ = w.Submit(context.Background(), Job{InterviewID: "busy"})
	<-started
	_ = w.Submit(context.Background(), Job{InterviewID: "queued"})

	// Further submissions must return immediately.
	returned := make(chan struct{})
	go func() {
		_ = w.Submit(context.Background(), Job{InterviewID: "dropped"})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
}
