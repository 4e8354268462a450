// Package transport also provides a small bounded buffer pool (BufferPool)
// used by HTTPTransport when reading response bodies.
//
// Pool design: uses a buffered channel as a natural FIFO queue.
// Buffered channels are concurrency-safe, and "pool full" / "pool empty"
// both reduce to a non-blocking channel operation.
package transport

import "bytes"

// BufferPool manages a bounded set of reusable byte buffers.
type BufferPool struct {
	bufs chan *bytes.Buffer
}

// NewBufferPool creates a pool holding at most size buffers.
// Buffers are created lazily — the pool starts empty and grows on demand.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		bufs: make(chan *bytes.Buffer, size),
	}
}

// Get retrieves a buffer from the pool, or allocates a fresh one when the
// pool is empty. Never blocks.
func (p *BufferPool) Get() *bytes.Buffer {
	select {
	case buf := <-p.bufs:
		return buf
	default:
		return new(bytes.Buffer)
	}
}

// Put returns a buffer to the pool. The buffer is reset first so stale bytes
// never leak into a later response. If the pool is already full the buffer is
// dropped for the garbage collector.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	select {
	case p.bufs <- buf:
	default:
	}
}
