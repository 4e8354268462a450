package middleware

import (
	"context"
	"time"

	"octet-rpc/transport"
)

// TimeOutMiddleware bounds each call with a deadline. An expired deadline
// means the exchange never completed, so it surfaces as a transport failure
// and is eligible for RetryMiddleware.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next transport.Func) transport.Func {
		return func(ctx context.Context, request []byte) ([]byte, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type result struct {
				response []byte
				err      error
			}
			done := make(chan result, 1)
			go func() {
				response, err := next(ctx, request)
				done <- result{response, err}
			}()

			select {
			case res := <-done:
				return res.response, res.err
			case <-ctx.Done():
				return nil, &transport.Error{
					Kind:    transport.KindTransportFailure,
					Message: "RPC response was not received: request timed out",
				}
			}
		}
	}
}
