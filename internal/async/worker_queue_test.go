package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerQueueProcessesAll(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Path)
		if job.Path == "ruim.txt" {
			return errors.New("boom")
		}
		return nil
	}, nil, WithWorkers(3))

	for _, p := range []string{"a.txt", "b.xlsx", "ruim.txt", "c.pdf"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.ElementsMatch(t, []string{"a.txt", "b.xlsx", "ruim.txt", "c.pdf"}, seen)
	processed, failed := q.Stats()
	assert.Equal(t, int64(3), processed)
	assert.Equal(t, int64(1), failed)
}

func TestWorkerQueueRejectsAfterShutdown(t *testing.T) {
	q := NewWorkerQueue(func(context.Context, Job) error { return nil }, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "a.txt"}), ErrClosed)
}

func TestWorkerQueueSurvivesPanic(t *testing.T) {
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		if job.Path == "panic" {
			panic("bad input")
		}
		return nil
	}, nil, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "panic"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "ok"}))
	q.Shutdown(context.Background())

	processed, failed := q.Stats()
	assert.Equal(t, int64(1), processed)
	assert.Equal(t, int64(1), failed)
}

func TestWorkerQueueTimeoutAndBackpressure(t *testing.T) {
	release := make(chan struct{})
	var depths []int
	var mu sync.Mutex
	q := NewWorkerQueue(func(ctx context.Context, _ Job) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, nil,
		WithWorkers(1),
		WithQueueSize(1),
		WithProcessTimeout(time.Hour),
		WithDepthHook(func(n int) {
			mu.Lock()
			defer mu.Unlock()
			depths = append(depths, n)
		}),
	)

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "1"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "2"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Path: "3"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	q.Shutdown(context.Background())
	processed, _ := q.Stats()
	assert.Equal(t, int64(2), processed)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, depths)
	assert.Equal(t, 0, depths[len(depths)-1])
}
