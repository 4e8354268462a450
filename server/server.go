// Package server implements the octet-rpc server counterpart: an HTTP
// handler that dispatches POST-ed byte payloads to registered handlers and
// maps their outcome back onto status codes.
//
// The mapping is the exact inverse of the client's:
//
//	handler returns bytes → 200 with the bytes as body
//	handler returns error → 400 with the error text as body
//	unknown path          → 404 (clients report it as an unexpected status)
//	non-POST method       → 405 (same)
//
// Request processing pipeline:
//
//	ServeHTTP → path lookup → read body → Middleware Chain → handler → write response
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"octet-rpc/middleware"
	"octet-rpc/registry"
	"octet-rpc/transport"
)

// Server registers byte-RPC handlers by path and serves them over HTTP.
// It implements http.Handler, so tests can mount it on httptest directly.
type Server struct {
	handlers      map[string]transport.Func // Registered handlers: "/echo" → Func
	middlewares   []middleware.Middleware   // Applied in registration order
	chained       map[string]transport.Func // Handlers wrapped in the middleware chain
	once          sync.Once                 // Builds chained on first request, not per request
	httpServer    *http.Server
	registry      registry.Registry // Service registry (etcd), nil if not using discovery
	advertiseAddr string            // Address registered in etcd (e.g., "127.0.0.1:8080")
	// Different from the listen address (":8080") because etcd needs a routable IP
}

// New creates a server with no handlers registered.
func New() *Server {
	return &Server{
		handlers: make(map[string]transport.Func),
	}
}

// Register mounts a handler at the given path. Must be called before the
// first request is served.
func (svr *Server) Register(path string, fn transport.Func) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must start with '/', got %q", path)
	}
	if _, ok := svr.handlers[path]; ok {
		return fmt.Errorf("handler already registered for %q", path)
	}
	svr.handlers[path] = fn
	return nil
}

// Use registers a middleware. Middlewares are applied in the order they are
// added and wrap every registered handler.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// buildChain wraps every handler in the middleware chain once.
// Chain(A, B, C)(handler) → A(B(C(handler))), the onion model:
// A.before → B.before → C.before → handler → C.after → B.after → A.after
func (svr *Server) buildChain() {
	chain := middleware.Chain(svr.middlewares...)
	svr.chained = make(map[string]transport.Func, len(svr.handlers))
	for path, fn := range svr.handlers {
		svr.chained[path] = chain(fn)
	}
}

// ServeHTTP dispatches one request: resolve the handler by path, hand it the
// raw body bytes, and translate the result into the status mapping clients
// rely on.
func (svr *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svr.once.Do(svr.buildChain)

	if r.Method != http.MethodPost {
		http.Error(w, "octet-rpc requires POST", http.StatusMethodNotAllowed)
		return
	}

	fn, ok := svr.chained[r.URL.Path]
	if !ok {
		http.Error(w, "no handler for "+r.URL.Path, http.StatusNotFound)
		return
	}

	request, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "failed to read request body: %v", err)
		return
	}

	response, err := fn(r.Context(), request)
	if err != nil {
		// The error text is the whole diagnostic the client gets.
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(response)
}

// Serve listens on address, optionally registers every handler with the
// registry, and blocks until Shutdown.
//
// Parameters:
//   - advertiseAddr: the address registered in etcd (e.g., "127.0.0.1:8080").
//     This differs from the listen address because ":8080" is not routable.
//   - reg: the registry implementation. Pass nil to skip service discovery.
func (svr *Server) Serve(address, advertiseAddr string, reg registry.Registry) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	svr.advertiseAddr = advertiseAddr
	if reg != nil {
		svr.registry = reg
		for path := range svr.handlers {
			// Service name is the mount path without its leading slash.
			err := reg.Register(context.Background(), strings.TrimPrefix(path, "/"), registry.ServiceInstance{
				Addr: advertiseAddr,
			}, 10) // TTL = 10 seconds, KeepAlive renews automatically
			if err != nil {
				listener.Close()
				return fmt.Errorf("register %s: %w", path, err)
			}
		}
	}

	svr.httpServer = &http.Server{Handler: svr}
	if err := svr.httpServer.Serve(listener); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown performs graceful shutdown:
//  1. Deregister every handler from etcd (clients stop routing here)
//  2. Stop accepting and wait for in-flight requests, bounded by timeout
func (svr *Server) Shutdown(timeout time.Duration) error {
	// Deregister FIRST so clients stop sending new requests while
	// in-flight ones drain.
	if svr.registry != nil {
		for path := range svr.handlers {
			err := svr.registry.Deregister(context.Background(), strings.TrimPrefix(path, "/"), svr.advertiseAddr)
			if err != nil {
				log.Printf("Failed to deregister %s: %v", path, err)
			}
		}
	}

	if svr.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.httpServer.Shutdown(ctx)
}
