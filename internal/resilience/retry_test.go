package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
		ProbeTimeout:   50 * time.Millisecond,
	}
}

func TestDoValSucceedsFirstTry(t *testing.T) {
	calls := 0
	v, err := DoVal(context.Background(), fastPolicy(), func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestDoValRetriesTransient(t *testing.T) {
	calls := 0
	v, err := DoVal(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("overloaded"), 503)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestDoValStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		return "", eris.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoValExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		return "", NewTransientError(eris.New("still down"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsTransient(err))
}

func TestDoValProbeSkipsAttempt(t *testing.T) {
	p := fastPolicy()
	probes := 0
	p.Probe = func(ctx context.Context) error {
		probes++
		return eris.New("not ready")
	}

	calls := 0
	_, err := DoVal(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		return "never", nil
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrProbeFailed))
	assert.Equal(t, 3, probes, "each attempt probes once")
	assert.Zero(t, calls, "a failed probe must skip the request entirely")
}

func TestDoValProbeRecovers(t *testing.T) {
	p := fastPolicy()
	probes := 0
	p.Probe = func(ctx context.Context) error {
		probes++
		if probes == 1 {
			return eris.New("warming up")
		}
		return nil
	}

	v, err := DoVal(context.Background(), p, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, probes)
}

func TestDoValContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := DoVal(ctx, fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", NewTransientError(eris.New("down"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation stops retries")
}

func TestDoValOnRetryCallback(t *testing.T) {
	p := fastPolicy()
	var attempts []int
	p.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, _ = DoVal(context.Background(), p, func(ctx context.Context) (string, error) {
		return "", NewTransientError(eris.New("down"), 503)
	})
	assert.Equal(t, []int{1, 2}, attempts, "no callback after the final attempt")
}

func TestComputeBackoffGrowsAndCaps(t *testing.T) {
	p := Policy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     300 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}

	assert.Equal(t, 100*time.Millisecond, computeBackoff(0, p))
	assert.Equal(t, 200*time.Millisecond, computeBackoff(1, p))
	assert.Equal(t, 300*time.Millisecond, computeBackoff(2, p), "capped at MaxBackoff")
	assert.Equal(t, 300*time.Millisecond, computeBackoff(5, p))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient error", NewTransientError(eris.New("x"), 503), true},
		{"wrapped transient", eris.Wrap(NewTransientError(eris.New("x"), 429), "outer"), true},
		{"plain error", eris.New("validation failed"), false},
		{"connection refused text", eris.New("dial tcp: connection refused"), true},
		{"deadline text", eris.New("context deadline exceeded"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}
