package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "a"}))
	require.NoError(t, q.TryEnqueue(Job{ID: "b"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, got)
}

func TestQueueRetriesThenReportsFailure(t *testing.T) {
	var calls int32
	failed := make(chan Job, 1)
	q := NewQueue("retry", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnFailure:  func(j Job, _ error) { failed <- j },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.TryEnqueue(Job{ID: "x"}))

	select {
	case job := <-failed:
		assert.Equal(t, 3, job.Attempt)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("failure hook not called")
	}
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.TryEnqueue(Job{ID: "a"})
	assert.ErrorIs(t, err, ErrQueueClosed)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{}), ErrQueueClosed)
}

func TestQueueTryEnqueueFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(context.Context, Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.TryEnqueue(Job{ID: "1"}))
	// Wait until the worker has taken job 1 so the buffer is empty again.
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.TryEnqueue(Job{ID: "2"}))
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "3"}), ErrQueueFull)
}
