package middleware

import (
	"context"
	"log"
	"time"

	"octet-rpc/transport"
)

func LoggingMiddleware() Middleware {
	return func(next transport.Func) transport.Func {
		return func(ctx context.Context, request []byte) ([]byte, error) {
			start := time.Now()
			response, err := next(ctx, request)
			// Print request/response sizes and the time taken, and the error if any
			duration := time.Since(start)
			log.Printf("Request: %d bytes, Response: %d bytes, Duration: %s", len(request), len(response), duration)
			if err != nil {
				log.Printf("Error: %s", err)
			}
			return response, err
		}
	}
}
