package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"employee-export/internal/core/domain"
)

type recordingRunner struct {
	mu    sync.Mutex
	ran   []string
	done  chan string
	block chan struct{}
	panic bool
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{done: make(chan string, 100)}
}

func (r *recordingRunner) Execute(ctx context.Context, referenceID string) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
		}
	}
	r.mu.Lock()
	r.ran = append(r.ran, referenceID)
	r.mu.Unlock()
	r.done <- referenceID
	if r.panic {
		panic("runner exploded")
	}
	return nil
}

func waitFor(t *testing.T, ch <-chan string, n int) []string {
	t.Helper()
	var got []string
	for len(got) < n {
		select {
		case id := <-ch:
			got = append(got, id)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d of %d jobs", len(got), n)
		}
	}
	return got
}

func TestWorkerPoolRunsInFIFOOrder(t *testing.T) {
	runner := newRecordingRunner()
	pool := NewWorkerPool(runner, 1, 10)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, pool.Enqueue(id))
	}
	assert.Equal(t, 3, pool.Len())

	pool.Start(context.Background())
	defer pool.Stop(context.Background())

	assert.Equal(t, []string{"a", "b", "c"}, waitFor(t, runner.done, 3))
}

func TestWorkerPoolQueueFull(t *testing.T) {
	pool := NewWorkerPool(newRecordingRunner(), 1, 2)

	require.NoError(t, pool.Enqueue("a"))
	require.NoError(t, pool.Enqueue("b"))
	assert.ErrorIs(t, pool.Enqueue("c"), domain.ErrQueueFull)
}

func TestWorkerPoolSurvivesPanics(t *testing.T) {
	runner := newRecordingRunner()
	runner.panic = true
	pool := NewWorkerPool(runner, 1, 10)
	pool.Start(context.Background())
	defer pool.Stop(context.Background())

	require.NoError(t, pool.Enqueue("a"))
	require.NoError(t, pool.Enqueue("b"))

	assert.Equal(t, []string{"a", "b"}, waitFor(t, runner.done, 2))
}

func TestWorkerPoolStop(t *testing.T) {
	runner := newRecordingRunner()
	pool := NewWorkerPool(runner, 2, 10)
	pool.Start(context.Background())

	require.NoError(t, pool.Enqueue("a"))
	waitFor(t, runner.done, 1)

	require.NoError(t, pool.Stop(context.Background()))
	assert.ErrorIs(t, pool.Enqueue("b"), ErrPoolStopped)
	assert.NoError(t, pool.Stop(context.Background()), "stopping twice is harmless")
}

func TestWorkerPoolStopTimeoutCancelsRunningJobs(t *testing.T) {
	runner := newRecordingRunner()
	runner.block = make(chan struct{})
	pool := NewWorkerPool(runner, 1, 10)
	pool.Start(context.Background())

	require.NoError(t, pool.Enqueue("slow"))
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := pool.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"slow"}, waitFor(t, runner.done, 1))
}

func TestWorkerPoolConcurrentEnqueue(t *testing.T) {
	runner := newRecordingRunner()
	pool := NewWorkerPool(runner, 4, 100)
	pool.Start(context.Background())
	defer pool.Stop(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = pool.Enqueue(string(rune('A' + i%26)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, waitFor(t, runner.done, 50), 50)
}
