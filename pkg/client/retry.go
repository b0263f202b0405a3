package client

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screener_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screener_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screener_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Rand is the randomness source used for backoff jitter. *rand.Rand
// satisfies it; tests supply a deterministic stand-in.
type Rand interface {
	Float64() float64
}

// RetryPolicy holds the configuration for retry logic.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Total attempts = MaxRetries + 1.
	MaxRetries int

	// BackoffBase is the base factor for exponential backoff. The delay
	// before retry n is BackoffBase * 2^(n-1) plus up to one second of
	// jitter.
	BackoffBase time.Duration
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  3,
		BackoffBase: 1 * time.Second,
	}
}

// backoffDelay computes the wait before retry number retryCount (1-based).
// Jitter desynchronizes concurrent callers retrying against the same
// rate-limited upstream.
func backoffDelay(base time.Duration, retryCount int, rng Rand) time.Duration {
	delay := float64(base) * math.Pow(2, float64(retryCount-1))
	jitter := rng.Float64() * float64(time.Second)
	return time.Duration(delay + jitter)
}

// retryWithBackoff executes fn with exponential backoff retry logic. classify
// reports the error class of the last failure for logging and metrics. The
// backoff wait respects context cancellation.
func retryWithBackoff(ctx context.Context, policy RetryPolicy, rng Rand, logger zerolog.Logger, fn func() error, classify func(error) ErrorClass) error {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Info().
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		class := classify(err)

		// Last attempt: no wait, fall through to exhaustion.
		if attempt >= policy.MaxRetries {
			break
		}

		retriesTotal.WithLabelValues(string(class)).Inc()

		delay := backoffDelay(policy.BackoffBase, attempt+1, rng)
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())

		logger.Warn().
			Err(err).
			Str("error_class", string(class)).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("Request failed, retrying after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().
				Int("attempt", attempt+1).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(delay):
		}
	}

	class := classify(lastErr)
	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	logger.Error().
		Err(lastErr).
		Str("error_class", string(class)).
		Int("attempts", policy.MaxRetries+1).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, policy.MaxRetries+1, lastErr)
}
