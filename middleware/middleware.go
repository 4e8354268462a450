// Package middleware provides opt-in wrappers around a transport.Func.
//
// The core client is deliberately single-shot: no retry, no per-request
// deadline, no logging. Every production hardening lives here instead, so a
// caller takes exactly what it asks for and the bare client keeps its
// constrained semantics.
package middleware

import "octet-rpc/transport"

// Middleware wraps a transport function with additional behavior.
type Middleware func(next transport.Func) transport.Func

// Chain combines multiple middleware into one. Chain(A, B, C)(fn) yields
// A(B(C(fn))): A runs outermost, the last middleware sits closest to the
// wire. Retry should therefore come after Timeout in the argument list if a
// deadline is meant to apply per attempt.
func Chain(middlewares ...Middleware) Middleware {
	return func(next transport.Func) transport.Func {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
