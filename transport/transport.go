// Package transport implements the wire layer of octet-rpc: one HTTP POST of
// raw bytes per call, and the single error type every failure folds into.
//
// The whole protocol is HTTP. A request is the body of a POST to a fixed path
// with Content-Type application/octet-stream; the response body is the reply.
// Status codes carry the only out-of-band signal:
//
//	200 → success, body returned verbatim
//	400 → the server rejected the call, body holds its diagnostic
//	else → a defect somewhere, reported but never retried here
//	no answer at all → transport failure
//
// Func is the capability the rest of the module is built on: anything that
// turns a request buffer into a response buffer or an error. HTTPTransport is
// the real implementation; tests substitute plain func values.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Func turns a request byte buffer into a response byte buffer or an error.
// Implementations must not mutate or retain the request slice after returning,
// and the returned slice must be owned by the caller.
type Func func(ctx context.Context, request []byte) ([]byte, error)

// Kind identifies which of the three failure conditions produced an Error.
type Kind int

const (
	// KindServerRejected: the server answered 400. The message embeds the
	// server's own diagnostic; this is an application error, not a defect.
	KindServerRejected Kind = iota
	// KindUnexpectedStatus: any status other than 200/400. Treated as a
	// defect signal — the message asks the caller to report it.
	KindUnexpectedStatus
	// KindTransportFailure: the exchange never completed (connection
	// refused, dial timeout, broken pipe). The only kind worth retrying.
	KindTransportFailure
)

// Error is the single error type raised by octet-rpc. Callers discriminate
// with errors.As and the Kind field; the message is the entire diagnostic
// surface — there is no structured code beyond Kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func serverRejected(body []byte) *Error {
	return &Error{
		Kind:    KindServerRejected,
		Message: "RPC error: " + string(body),
	}
}

func unexpectedStatus(code int) *Error {
	return &Error{
		Kind:    KindUnexpectedStatus,
		Message: fmt.Sprintf("unexpected server answer detected (code: %d), please report to the course staff", code),
	}
}

func transportFailure(cause error) *Error {
	return &Error{
		Kind:    KindTransportFailure,
		Message: fmt.Sprintf("RPC response was not received: %v", cause),
	}
}

// connectTimeout bounds connection establishment only. There is deliberately
// no overall request deadline — callers that need one pass a context or wrap
// the transport in middleware.TimeOutMiddleware.
const connectTimeout = 1 * time.Second

// HTTPTransport is the concrete network transport: each Do issues exactly one
// POST to the bound URL. It is safe for concurrent use (http.Client is), but
// the octet-rpc contract leaves concurrency guarantees to the caller.
type HTTPTransport struct {
	url     string
	client  *http.Client
	buffers *BufferPool // reusable buffers for reading response bodies
}

// NewHTTPTransport binds a transport to http://host:port/path.
// Connection reuse across calls is an internal matter of the underlying
// http.Transport and is not part of the contract.
func NewHTTPTransport(host string, port uint16, path string) *HTTPTransport {
	return NewHTTPTransportAddr(fmt.Sprintf("%s:%d", host, port), path)
}

// NewHTTPTransportAddr binds a transport to an "host:port" address string,
// the form service instances carry in the registry.
func NewHTTPTransportAddr(addr, path string) *HTTPTransport {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &HTTPTransport{
		url: "http://" + addr + path,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
		buffers: NewBufferPool(4),
	}
}

// Do sends one request and maps the outcome. The three failure conditions all
// surface as *Error; success returns the response body verbatim, fully owned
// by the caller.
func (t *HTTPTransport) Do(ctx context.Context, request []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(request))
	if err != nil {
		return nil, transportFailure(err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, transportFailure(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := t.readBody(resp.Body)
		if err != nil {
			return nil, transportFailure(err)
		}
		return body, nil

	case http.StatusBadRequest:
		body, err := t.readBody(resp.Body)
		if err != nil {
			return nil, transportFailure(err)
		}
		return nil, serverRejected(body)

	default:
		// Drain so the connection can be reused; the body of an
		// unexpected status carries no contract.
		io.Copy(io.Discard, resp.Body)
		return nil, unexpectedStatus(resp.StatusCode)
	}
}

// readBody reads the full body into a pooled buffer and copies the bytes out,
// so the returned slice stays valid after the buffer goes back to the pool.
func (t *HTTPTransport) readBody(r io.Reader) ([]byte, error) {
	buf := t.buffers.Get()
	defer t.buffers.Put(buf)

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
