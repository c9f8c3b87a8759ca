// Package resilience provides retry and liveness-probe policies for external
// service calls.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrProbeFailed marks an attempt that was skipped because the pre-call
// liveness probe reported the service not ready. The attempt still counts
// against the retry budget but does not spend the full request timeout.
var ErrProbeFailed = eris.New("liveness probe failed")

// Policy controls retry behavior with exponential backoff, jitter, and an
// optional pre-attempt liveness probe.
type Policy struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 30s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0.0 = no jitter, 0.5 = ±50%). Default: 0.25.
	JitterFraction float64

	// Probe, if set, is issued before each attempt with its own short
	// deadline. A probe failure skips the attempt entirely: it is recorded
	// as ErrProbeFailed and the next backoff begins immediately.
	Probe func(ctx context.Context) error

	// ProbeTimeout bounds each probe. Default: 3s.
	ProbeTimeout time.Duration

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with attempt number and error.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns a sensible retry policy for API calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
		ProbeTimeout:   3 * time.Second,
	}
}

// DoVal executes fn under the policy and preserves the value from the
// successful call. Retries only errors deemed transient (via ShouldRetry or
// the default IsTransient check); a failed probe counts as a transient
// failure. Context cancellation stops retries immediately.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = applyDefaults(p)

	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := p.probe(ctx); err != nil {
			lastErr = err
		} else {
			val, err := fn(ctx)
			if err == nil {
				return val, nil
			}
			lastErr = err
		}

		if ctx.Err() != nil {
			return zero, lastErr
		}

		if !eris.Is(lastErr, ErrProbeFailed) && !shouldRetry(lastErr) {
			return zero, lastErr
		}

		// Don't sleep after the last attempt.
		if attempt >= p.MaxAttempts-1 {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr)
		}

		delay := computeBackoff(attempt, p)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// Do executes fn under the policy. Same semantics as DoVal without a value.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (p Policy) probe(ctx context.Context) error {
	if p.Probe == nil {
		return nil
	}
	probeCtx, cancel := context.WithTimeout(ctx, p.ProbeTimeout)
	defer cancel()
	if err := p.Probe(probeCtx); err != nil {
		return eris.Wrap(ErrProbeFailed, err.Error())
	}
	return nil
}

func applyDefaults(p Policy) Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 500 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	if p.ProbeTimeout <= 0 {
		p.ProbeTimeout = 3 * time.Second
	}
	return p
}

func computeBackoff(attempt int, p Policy) time.Duration {
	delay := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxBackoff) {
		delay = float64(p.MaxBackoff)
	}

	// Apply jitter: ±JitterFraction of delay.
	if p.JitterFraction > 0 {
		jitterRange := delay * p.JitterFraction
		jitter := (rand.Float64()*2 - 1) * jitterRange // [-jitterRange, +jitterRange]
		delay += jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(log *zap.Logger, service, operation string) func(int, error) {
	return func(attempt int, err error) {
		log.Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
