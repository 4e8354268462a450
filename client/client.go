// Package client implements the octet-rpc client: a thin, synchronous wrapper
// around a transport.Func.
//
// A Client holds exactly one capability — "turn a request buffer into a
// response buffer or fail" — bound at construction. Three constructors supply
// it:
//
//	New             fixed host:port/path over HTTP
//	NewWithTransport any injected transport.Func (test doubles)
//	NewFromRegistry  endpoint resolved per call via registry + balancer
//
// Send delegates to that capability exactly once per call: no retry, no
// batching, no per-request deadline. Callers that want retry, deadlines, rate
// limiting or logging opt in with WithMiddleware; a client built without
// options keeps the bare single-shot semantics.
//
// A Client holds no per-call state and is safe to reuse across sequential
// calls. Concurrent Send calls on one instance are caller-managed: the HTTP
// transport tolerates them, but the contract does not promise it for injected
// transports.
package client

import (
	"context"
	"fmt"
	"sync"

	"octet-rpc/loadbalance"
	"octet-rpc/middleware"
	"octet-rpc/registry"
	"octet-rpc/transport"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithMiddleware wraps the client's transport with the given middleware,
// outermost first. Applied once at construction, not per call.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mws...)
	}
}

// Client issues synchronous raw-byte RPC calls through a bound transport.
type Client struct {
	call        transport.Func
	middlewares []middleware.Middleware
}

// New creates a client bound to a fixed endpoint. Each Send opens the
// exchange with a 1-second connection timeout and POSTs the request bytes to
// path with a binary content type.
func New(host string, port uint16, path string, opts ...Option) *Client {
	return NewWithTransport(transport.NewHTTPTransport(host, port, path).Do, opts...)
}

// NewWithTransport creates a client around an arbitrary transport function.
// This is the injection point for test doubles — fn never has to touch the
// network.
func NewWithTransport(fn transport.Func, opts ...Option) *Client {
	c := &Client{call: fn}
	for _, opt := range opts {
		opt(c)
	}
	c.call = middleware.Chain(c.middlewares...)(c.call)
	return c
}

// NewFromRegistry creates a client that resolves its endpoint per call:
// Discover the instances registered for serviceName, Pick one through the
// balancer, and POST to that instance at path. Transports are cached per
// address so repeated calls to the same instance reuse one http.Client.
//
// Each Send is still exactly one POST — resolution adds no retry.
func NewFromRegistry(reg registry.Registry, bal loadbalance.Balancer, serviceName, path string, opts ...Option) *Client {
	r := &resolver{
		registry:   reg,
		balancer:   bal,
		service:    serviceName,
		path:       path,
		transports: make(map[string]*transport.HTTPTransport),
	}
	return NewWithTransport(r.call, opts...)
}

// Send issues one RPC: the request bytes go out, the response bytes come
// back, or a *transport.Error describes which of the three failure conditions
// occurred. The request slice is neither mutated nor retained.
func (c *Client) Send(ctx context.Context, request []byte) ([]byte, error) {
	return c.call(ctx, request)
}

// resolver is the transport behind NewFromRegistry. It keeps one
// HTTPTransport per discovered address, created on first use.
type resolver struct {
	registry   registry.Registry
	balancer   loadbalance.Balancer
	service    string
	path       string
	mu         sync.Mutex
	transports map[string]*transport.HTTPTransport
}

func (r *resolver) call(ctx context.Context, request []byte) ([]byte, error) {
	instances, err := r.registry.Discover(ctx, r.service)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", r.service, err)
	}

	instance, err := r.balancer.Pick(instances)
	if err != nil {
		return nil, err
	}

	return r.transportFor(instance.Addr).Do(ctx, request)
}

func (r *resolver) transportFor(addr string) *transport.HTTPTransport {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transports[addr]
	if !ok {
		t = transport.NewHTTPTransportAddr(addr, r.path)
		r.transports[addr] = t
	}
	return t
}
