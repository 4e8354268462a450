package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"octet-rpc/transport"
)

// ErrRateLimited is returned when the token bucket has no capacity left.
// It is not a *transport.Error: the request never reached the wire.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitMiddleware rejects calls beyond r per second with bursts of burst,
// using a token bucket. The limiter is shared by every call through the
// wrapped transport.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next transport.Func) transport.Func {
		return func(ctx context.Context, request []byte) ([]byte, error) {
			if !limiter.Allow() {
				return nil, ErrRateLimited
			}
			return next(ctx, request)
		}
	}
}
