package sender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func TestQueueRunsJobsInOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue(Options{QueueSize: 2})
	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, q.Enqueue(context.Background(), "reply", func(context.Context) error {
			time.Sleep(time.Millisecond)
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	require.NoError(t, q.Close())

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
	assert.Equal(t, uint64(10), q.Sent())
}

func TestQueueFirstFailurePoisons(t *testing.T) {
	t.Parallel()

	q := NewQueue(Options{QueueSize: 8})
	boom := errors.New("boom")
	release := make(chan struct{})
	ran := make(chan int, 8)

	require.NoError(t, q.Enqueue(context.Background(), "reply", func(context.Context) error {
		<-release
		ran <- 1
		return boom
	}))
	require.NoError(t, q.Enqueue(context.Background(), "reply", func(context.Context) error {
		ran <- 2
		return nil
	}))
	close(release)

	select {
	case <-q.Failed():
	case <-time.After(time.Second):
		t.Fatal("queue did not report failure")
	}
	require.ErrorIs(t, q.Err(), boom)
	require.ErrorIs(t, q.Enqueue(context.Background(), "reply", func(context.Context) error { return nil }), boom)
	require.ErrorIs(t, q.Close(), boom)

	close(ran)
	var order []int
	for v := range ran {
		order = append(order, v)
	}
	assert.Equal(t, []int{1}, order, "jobs behind a failure must be skipped")
}

func TestQueueClosed(t *testing.T) {
	t.Parallel()

	q := NewQueue(Options{})
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	require.ErrorIs(t, q.Enqueue(context.Background(), "reply", func(context.Context) error { return nil }), ErrQueueClosed)
	require.ErrorIs(t, q.Enqueue(context.Background(), "reply", nil), ErrNilJob)
}

func TestQueueJobDeadline(t *testing.T) {
	t.Parallel()

	q := NewQueue(Options{MaxDuration: 10 * time.Millisecond})
	require.NoError(t, q.Enqueue(context.Background(), "reply", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	err := q.Close()
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "timeout", classifyError(err))
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", classifyError(nil))
	assert.Equal(t, "http_4xx", classifyError(fmt.Errorf("wrapped: %w", statusErr(403))))
	assert.Equal(t, "http_5xx", classifyError(statusErr(502)))
	assert.Equal(t, "cancelled", classifyError(context.Canceled))
	assert.Equal(t, "unknown", classifyError(errors.New("odd")))
}

func TestSanitizeErrorMessage(t *testing.T) {
	t.Parallel()

	err := errors.New(`Post "https://api.telegram.org/bot123:ABC_def/sendMessage": EOF; token xoxb-1-2-abc`)
	msg := sanitizeErrorMessage(err)
	assert.NotContains(t, msg, "123:ABC_def")
	assert.NotContains(t, msg, "xoxb-1-2-abc")
	assert.Contains(t, msg, "<redacted>")
}
