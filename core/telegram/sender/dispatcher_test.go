package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsJobsInOrder(t *testing.T) {
	d := NewDispatcher(Options{})
	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
			return nil
		}))
	}
	d.Close()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("chat not found")
	}))
	d.Close()
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_cc/sendMessage": timeout`)
	assert.NotContains(t, sanitizeErrorMessage(err), "123456:AA")
	assert.Contains(t, sanitizeErrorMessage(err), "bot<redacted>")
}
