package circuit

import (
	"context"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker"
)

// Middleware returns a breaker.Middleware that wraps a call with circuit
// breaker logic. If the circuit is OPEN, requests are rejected immediately
// without invoking the wrapped call, giving the downstream service time to
// recover.
func Middleware[Req, Resp any](b Breaker) breaker.Middleware[Req, Resp] {
	return func(next breaker.Call[Req, Resp]) breaker.Call[Req, Resp] {
		return func(ctx context.Context, req Req) (Resp, error) {
			if !b.Allow() {
				var zero Resp
				return zero, &Error{State: b.GetState()}
			}

			resp, err := next(ctx, req)
			b.Record(err == nil)
			return resp, err
		}
	}
}
