package retry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// StatusCoder is implemented by errors that carry an HTTP status
type StatusCoder interface {
	HTTPStatus() int
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Executor runs an operation with bounded exponential backoff.
// The wait before attempt i+1 is BaseDelay * 2^i; there is no jitter and no wait after the last attempt.
type Executor struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       Sleeper
	Logger      *zap.Logger
}

// New creates an Executor. Non-positive values fall back to the defaults.
func New(maxAttempts int, baseDelay time.Duration, logger *zap.Logger) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Sleep:       timerSleep,
		Logger:      logger,
	}
}

// Delay returns the wait after the given zero-based attempt
func (e *Executor) Delay(attempt int) time.Duration {
	return e.BaseDelay * time.Duration(1<<attempt)
}

// Do invokes op until it succeeds, fails with 401/403, or attempts run out.
// The last failure is returned unchanged. When ctx ends during a backoff wait the
// returned error wraps both the context error and the last failure.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	sleep := e.Sleep
	if sleep == nil {
		sleep = timerSleep
	}
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	attempts := e.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	for i := 0; i < attempts; i++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return zero, err
		}
		if i == attempts-1 {
			break
		}

		delay := e.Delay(i)
		logger.Debug("retrying operation",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("backoff", delay),
			zap.Error(err))

		if err := sleep(ctx, delay); err != nil {
			return zero, errors.Join(err, lastErr)
		}
	}

	return zero, lastErr
}

// IsPermanent reports whether err carries a 401 or 403 status and must not be retried
func IsPermanent(err error) bool {
	var sc StatusCoder
	if !errors.As(err, &sc) {
		return false
	}
	status := sc.HTTPStatus()
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func timerSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
