package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(fmt.Errorf("wrapped: %w", statusErr(503))))
	assert.True(t, IsRetryableError(statusErr(429)))
	assert.False(t, IsRetryableError(statusErr(400)))
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	assert.Equal(t, 10*time.Second, RetryAfterDuration(resp, time.Second, 10*time.Second))
	assert.Equal(t, time.Second, RetryAfterDuration(nil, time.Second, 10*time.Second))
}

func TestJitterSleep(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := JitterSleep(time.Second)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
	assert.Zero(t, JitterSleep(0))
}
