package middleware

import (
	"context"
	"errors"
	"log"
	"time"

	"octet-rpc/transport"
)

// RetryMiddleware retries transport failures with exponential backoff.
// Server rejections (400) and unexpected statuses are never retried: the
// server answered, repeating the call cannot change the outcome.
func RetryMiddleware(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next transport.Func) transport.Func {
		return func(ctx context.Context, request []byte) ([]byte, error) {
			response, err := next(ctx, request)
			for i := 0; i < maxRetries; i++ {
				if err == nil {
					return response, nil
				}
				if !retryable(err) {
					return response, err
				}
				// Log the retry attempt
				log.Printf("Retry attempt %d due to error: %s", i+1, err)
				select {
				case <-time.After(baseDelay * time.Duration(1<<i)): // Exponential backoff
				case <-ctx.Done():
					return nil, err
				}
				response, err = next(ctx, request)
			}
			return response, err // Return last outcome after retries
		}
	}
}

func retryable(err error) bool {
	var rpcErr *transport.Error
	return errors.As(err, &rpcErr) && rpcErr.Kind == transport.KindTransportFailure
}
