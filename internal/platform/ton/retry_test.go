package ton

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "ad-escrow-backend/internal/common/errors"

	"github.com/gojek/heimdall/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     heimdall.NewConstantBackoff(time.Millisecond, 0),
		Retryable:   IsTransient,
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("429 too many requests")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoPropagatesNonRetryableImmediately(t *testing.T) {
	calls := 0
	permanent := errors.New("account not found")
	err := testPolicy().Do(context.Background(), "op", func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), "op", func() error {
		calls++
		return errors.New("503 service unavailable")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     heimdall.NewConstantBackoff(time.Hour, 0),
		Retryable:   IsTransient,
	}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := policy.Do(ctx, "op", func() error {
		calls++
		return errors.New("rate limit")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit text", errors.New("rate limit exceeded"), true},
		{"http 429", errors.New("status 429"), true},
		{"http 503", errors.New("503 service unavailable"), true},
		{"timeout text", errors.New("adnl timeout"), true},
		{"app rate limit", apperrors.NewRateLimitError("tonapi", time.Second), true},
		{"verification failure", apperrors.NewVerificationError("bad signature"), false},
		{"plain failure", errors.New("exit code 9"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
