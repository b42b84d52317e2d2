package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(errors.New("bad request")))
	assert.True(t, ShouldRetry(timeoutErr{}))
	assert.True(t, ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}))
	assert.False(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: errors.New("eof")}))
}

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 8, Workers: 1})
	var mu sync.Mutex
	ran := 0
	require.NoError(t, d.Enqueue(context.Background(), "test", func() error {
		mu.Lock()
		defer mu.Unlock()
		ran++
		return nil
	}))
	d.Close()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, ran)
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 8, Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var mu sync.Mutex
	attempts := 0
	require.NoError(t, d.Enqueue(context.Background(), "test", func() error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return timeoutErr{}
		}
		return nil
	}))
	d.Close()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 8, Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var mu sync.Mutex
	attempts := 0
	require.NoError(t, d.Enqueue(context.Background(), "test", func() error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("telegram: bad request (400)")
	}))
	d.Close()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts)
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherClosedQueue(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "test", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := fmt.Errorf("Post \"https://api.telegram.org/bot12345:AAbbCCdd-ee/sendMessage\": eof")
	got := sanitizeErrorMessage(err)
	assert.NotContains(t, got, "12345:AAbbCCdd")
	assert.Contains(t, got, "bot<redacted>")
}

func TestHTTPStatusFromError(t *testing.T) {
	assert.Equal(t, 404, httpStatusFromError(&tele.Error{Code: 404}))
	assert.Equal(t, 429, httpStatusFromError(tele.FloodError{RetryAfter: 1}))
	assert.Equal(t, 502, httpStatusFromError(errors.New("api error (502)")))
	assert.Equal(t, 0, httpStatusFromError(errors.New("plain")))
}
