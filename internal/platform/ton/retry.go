package ton

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	apperrors "ad-escrow-backend/internal/common/errors"
	"ad-escrow-backend/internal/common/logger"

	"github.com/gojek/heimdall/v7"
	"github.com/xssnick/tonutils-go/liteclient"
)

// RetryPolicy bounds every liteserver call: a fixed number of attempts with
// exponential backoff, retrying only errors the classifier deems transient.
// Injected into the chain client so it can be unit-tested without a network.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     heimdall.Backoff
	Retryable   func(error) bool
}

// DefaultRetryPolicy: 3 attempts, backoff seeded at 2s, rate-limit and
// 5xx-class errors only.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     heimdall.NewExponentialBackoff(2*time.Second, 30*time.Second, 2, 500*time.Millisecond),
		Retryable:   IsTransient,
	}
}

// Do runs fn until it succeeds, a non-retryable error occurs, or attempts
// run out. The last error is returned as-is so callers keep its type.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := p.Backoff.Next(attempt)
			logger.Warn().
				Str("operation", op).
				Int("attempt", attempt+1).
				Dur("backoff", wait).
				Err(err).
				Msg("Retrying chain call")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
	}
	return err
}

// IsTransient classifies rate-limit and 5xx-class failures. Anything else
// propagates to the caller on the first attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Code == apperrors.ErrCodeRateLimit
	}
	if errors.Is(err, liteclient.ErrADNLReqTimeout) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit",
		"ratelimit",
		"429",
		"too many requests",
		"500",
		"502",
		"503",
		"internal server error",
		"temporarily unavailable",
		"timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
