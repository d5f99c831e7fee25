package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// Middleware returns a breaker.Middleware that retries a failed call
// according to policy, with exponential backoff between attempts.
func Middleware[Req, Resp any](policy *Policy, logger *logx.Logger) breaker.Middleware[Req, Resp] {
	return func(next breaker.Call[Req, Resp]) breaker.Call[Req, Resp] {
		return func(ctx context.Context, req Req) (Resp, error) {
			var lastErr error
			var resp Resp

			for attempt := 1; attempt <= policy.Config.MaxAttempts; attempt++ {
				if attempt > 1 {
					delay := policy.CalculateDelay(attempt)
					logger.Warn("retry %d/%d (backoff %v): %v", attempt, policy.Config.MaxAttempts, delay, lastErr)
					if delay > 0 {
						select {
						case <-ctx.Done():
							var zero Resp
							return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
						case <-time.After(delay):
						}
					}
				}

				var err error
				resp, err = next(ctx, req)
				if err == nil {
					return resp, nil
				}

				lastErr = err
				if !policy.ShouldRetry(err) {
					break
				}
				if attempt >= policy.Config.MaxAttempts {
					break
				}
			}

			if policy.ShouldRetry(lastErr) {
				logger.Error("retries exhausted (%d attempts): %v", policy.Config.MaxAttempts, lastErr)
				var zero Resp
				return zero, types.NewError(types.KindServiceUnavailable, "retry.exhausted", lastErr)
			}
			return resp, lastErr
		}
	}
}
