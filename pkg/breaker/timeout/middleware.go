// Package timeout provides per-call deadline enforcement (spec §4.3): each
// invocation gets its own bounded context so a hung downstream call can
// never block its caller indefinitely.
package timeout

import (
	"context"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker"
)

// Middleware returns a breaker.Middleware that bounds each call to
// duration, independent of any deadline already on the parent context.
func Middleware[Req, Resp any](duration time.Duration) breaker.Middleware[Req, Resp] {
	return func(next breaker.Call[Req, Resp]) breaker.Call[Req, Resp] {
		return func(ctx context.Context, req Req) (Resp, error) {
			timeoutCtx, cancel := context.WithTimeout(ctx, duration)
			defer cancel()
			return next(timeoutCtx, req)
		}
	}
}
