// Package retry provides exponential-backoff retry with jitter (spec
// §4.3), classifying errors through the shared types.ErrorKind taxonomy
// rather than a provider-specific error type.
package retry

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// Config defines configuration for retry behavior.
type Config struct {
	MaxAttempts   int           `json:"max_attempts"`   // Maximum number of attempts (including initial)
	InitialDelay  time.Duration `json:"initial_delay"`  // Initial delay before first retry
	MaxDelay      time.Duration `json:"max_delay"`      // Maximum delay between retries
	BackoffFactor float64       `json:"backoff_factor"` // Multiplier for exponential backoff
	Jitter        bool          `json:"jitter"`         // Add random jitter to prevent thundering herd
}

// DefaultConfig provides reasonable defaults for retry behavior.
// Timing: 0ms -> ~1s -> ~2s -> ~4s -> ~8s (±10% jitter)
//
//nolint:gochecknoglobals // Sensible default config pattern
var DefaultConfig = Config{
	MaxAttempts:   5,
	InitialDelay:  1 * time.Second,
	MaxDelay:      30 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// Classifier determines if an error should be retried.
type Classifier func(error) bool

// ShouldRetry is the default error classifier. Uses a blocklist approach:
// everything is retryable UNLESS explicitly non-retryable. This ensures
// unknown/unclassified errors are retried, eventually producing
// KindServiceUnavailable to trigger the caller's recovery path.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Never retry context cancellation (real shutdown). Do NOT check
	// context.DeadlineExceeded here — per-request timeouts wrap it but
	// should still be retried until attempts are exhausted.
	if errors.Is(err, context.Canceled) {
		return false
	}

	switch types.KindOf(err) {
	case types.KindInvalidArgument, types.KindNotFound, types.KindAlreadyExists, types.KindCancelled:
		return false // explicitly non-retryable
	case types.KindServiceUnavailable:
		return false // already exhausted retries upstream
	case types.KindTimeout, types.KindTransient, types.KindInternal:
		return true
	}

	// Unclassified error: fall back to pattern matching on the message.
	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "invalid api key") {
		return false
	}
	if strings.Contains(errStr, "400") || strings.Contains(errStr, "404") {
		return false
	}

	return true
}

// Policy encapsulates retry configuration and logic.
type Policy struct {
	Config     Config
	Classifier Classifier
}

// NewPolicy creates a new retry policy with the given configuration and classifier.
func NewPolicy(config Config, classifier Classifier) *Policy {
	if classifier == nil {
		classifier = ShouldRetry
	}
	return &Policy{
		Config:     config,
		Classifier: classifier,
	}
}

// CalculateDelay computes the delay before the given attempt number.
func (p *Policy) CalculateDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := time.Duration(float64(p.Config.InitialDelay) * math.Pow(p.Config.BackoffFactor, float64(attempt-2)))

	if delay > p.Config.MaxDelay {
		delay = p.Config.MaxDelay
	}

	if p.Config.Jitter && delay > 0 {
		jitterFactor := 2*(time.Now().UnixNano()%2) - 1 // -1 or 1
		jitter := time.Duration(float64(delay) * 0.1 * float64(jitterFactor))
		delay += jitter
		if delay < 0 {
			delay = p.Config.InitialDelay
		}
	}

	return delay
}

// ShouldRetry determines if an error should be retried based on the configured classifier.
func (p *Policy) ShouldRetry(err error) bool {
	return p.Classifier(err)
}
