package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNetError implements net.Error for testing
type mockNetError struct {
	msg     string
	timeout bool
}

func (e *mockNetError) Error() string   { return e.msg }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return false }

func fastRetry(attempts int) *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    common.NewDuration(10 * time.Millisecond),
		MaxBackoff:        common.NewDuration(100 * time.Millisecond),
		BackoffMultiplier: 2.0,
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil error", err: nil},
		{name: "network timeout error", err: &mockNetError{msg: "network timeout", timeout: true}, retryable: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, retryable: true},
		{name: "connection reset", err: syscall.ECONNRESET, retryable: true},
		{name: "wrapped broken pipe", err: fmt.Errorf("write: %w", syscall.EPIPE), retryable: true},
		{name: "net.OpError", err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, retryable: true},
		{name: "context deadline exceeded", err: context.DeadlineExceeded, retryable: true},
		{name: "context canceled", err: context.Canceled},
		{name: "rate limit 429", err: errors.New("HTTP 429"), retryable: true},
		{name: "too many requests", err: errors.New("too many requests"), retryable: true},
		{name: "503 service unavailable", err: errors.New("503 Service Unavailable"), retryable: true},
		{name: "connection pool exhausted", err: errors.New("connection pool exhausted"), retryable: true},
		{name: "range too wide", err: errors.New("query timeout exceeded, narrow the block range")},
		{name: "too many results", err: errors.New("Query returned more than 10000 results")},
		{name: "invalid parameter", err: errors.New("invalid parameter")},
		{name: "authentication failed", err: errors.New("401 Unauthorized")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &config.RetryConfig{
		InitialBackoff:    common.NewDuration(1 * time.Second),
		MaxBackoff:        common.NewDuration(30 * time.Second),
		BackoffMultiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		min, max time.Duration
	}{
		{attempt: 1, min: 0, max: 0},
		{attempt: 2, min: 750 * time.Millisecond, max: 1250 * time.Millisecond},
		{attempt: 3, min: 1500 * time.Millisecond, max: 2500 * time.Millisecond},
		{attempt: 5, min: 6 * time.Second, max: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			for range 10 {
				backoff := calculateBackoff(tt.attempt, cfg)
				assert.GreaterOrEqual(t, backoff, tt.min)
				assert.LessOrEqual(t, backoff, tt.max)
			}
		})
	}

	cfg.MaxBackoff = common.NewDuration(5 * time.Second)
	assert.LessOrEqual(t, calculateBackoff(10, cfg), 6250*time.Millisecond, "capped at max + 25% jitter")
}

func TestRetryWithBackoff(t *testing.T) {
	transient := &mockNetError{msg: "temporary error", timeout: true}
	permanent := errors.New("invalid parameter")

	tests := []struct {
		name      string
		cfg       *config.RetryConfig
		failures  int
		failWith  error
		wantCalls int
		wantErr   string
	}{
		{name: "first attempt", cfg: fastRetry(3), wantCalls: 1},
		{name: "after retries", cfg: fastRetry(5), failures: 2, failWith: transient, wantCalls: 3},
		{name: "non-retryable", cfg: fastRetry(5), failures: 5, failWith: permanent, wantCalls: 1, wantErr: "non-retryable error"},
		{name: "exhausted", cfg: fastRetry(3), failures: 5, failWith: transient, wantCalls: 3, wantErr: "all 3 attempts failed"},
		{name: "nil config", cfg: nil, failures: 1, failWith: permanent, wantCalls: 1, wantErr: "invalid parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryWithBackoff(context.Background(), tt.cfg, "test_operation", func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			require.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
			require.ErrorIs(t, err, tt.failWith)
		})
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := retryWithBackoff(ctx, fastRetry(5), "test_operation", func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return &mockNetError{msg: "temporary error", timeout: true}
	})

	require.ErrorContains(t, err, "context cancelled")
	require.Equal(t, 2, calls)
}

func TestRetryWithBackoff_ContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cfg := &config.RetryConfig{
		MaxAttempts:       10,
		InitialBackoff:    common.NewDuration(100 * time.Millisecond),
		MaxBackoff:        common.NewDuration(1 * time.Second),
		BackoffMultiplier: 2.0,
	}

	calls := 0
	err := retryWithBackoff(ctx, cfg, "test_operation", func() error {
		calls++
		return &mockNetError{msg: "temporary error", timeout: true}
	})

	require.ErrorContains(t, err, "context")
	require.Less(t, calls, 10)
}
