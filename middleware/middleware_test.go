package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"octet-rpc/transport"
)

// echoTransport answers immediately with the request bytes.
func echoTransport(ctx context.Context, request []byte) ([]byte, error) {
	return request, nil
}

// slowTransport takes 200ms to answer.
func slowTransport(ctx context.Context, request []byte) ([]byte, error) {
	time.Sleep(200 * time.Millisecond)
	return request, nil
}

func TestLogging(t *testing.T) {
	fn := LoggingMiddleware()(echoTransport)

	resp, err := fn(context.Background(), []byte("ok"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "ok" {
		t.Fatalf("expect 'ok', got %q", resp)
	}
}

func TestTimeoutPass(t *testing.T) {
	// 500ms budget, instant transport: must pass through untouched.
	fn := TimeOutMiddleware(500 * time.Millisecond)(echoTransport)

	resp, err := fn(context.Background(), []byte("ok"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "ok" {
		t.Fatalf("expect 'ok', got %q", resp)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	// 50ms budget, 200ms transport: must fail as a transport failure.
	fn := TimeOutMiddleware(50 * time.Millisecond)(slowTransport)

	_, err := fn(context.Background(), []byte("ok"))

	var rpcErr *transport.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expect *transport.Error, got %v", err)
	}
	if rpcErr.Kind != transport.KindTransportFailure {
		t.Fatalf("expect KindTransportFailure, got %v", rpcErr.Kind)
	}
}

func TestRetryOnTransportFailure(t *testing.T) {
	// Fail twice with a transport failure, then succeed.
	calls := 0
	fn := RetryMiddleware(3, time.Millisecond)(func(ctx context.Context, request []byte) ([]byte, error) {
		calls++
		if calls <= 2 {
			return nil, &transport.Error{Kind: transport.KindTransportFailure, Message: "RPC response was not received: connection refused"}
		}
		return []byte("ok"), nil
	})

	resp, err := fn(context.Background(), []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "ok" {
		t.Fatalf("expect 'ok', got %q", resp)
	}
	if calls != 3 {
		t.Fatalf("expect 3 attempts, got %d", calls)
	}
}

func TestRetryNeverRepeatsServerRejection(t *testing.T) {
	calls := 0
	fn := RetryMiddleware(3, time.Millisecond)(func(ctx context.Context, request []byte) ([]byte, error) {
		calls++
		return nil, &transport.Error{Kind: transport.KindServerRejected, Message: "RPC error: bad input"}
	})

	_, err := fn(context.Background(), []byte("x"))
	if err == nil {
		t.Fatal("expect error")
	}
	if calls != 1 {
		t.Fatalf("server rejection must not be retried, got %d attempts", calls)
	}
}

func TestRateLimit(t *testing.T) {
	// rate=1 per second, burst=2: first 2 pass immediately, the 3rd is rejected.
	fn := RateLimitMiddleware(1, 2)(echoTransport)

	for i := 0; i < 2; i++ {
		if _, err := fn(context.Background(), []byte("x")); err != nil {
			t.Fatalf("request %d should pass, got error: %v", i, err)
		}
	}

	_, err := fn(context.Background(), []byte("x"))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("request 3 should be rate limited, got: %v", err)
	}
}

func TestChain(t *testing.T) {
	// Combine Logging + Timeout, verify a call passes through the whole chain.
	chained := Chain(LoggingMiddleware(), TimeOutMiddleware(500*time.Millisecond))
	fn := chained(echoTransport)

	resp, err := fn(context.Background(), []byte("ok"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "ok" {
		t.Fatalf("expect 'ok', got %q", resp)
	}
}
