package buffer

import (
	"bytes"
	"sync"
)

// maxPooledSize is the largest buffer capacity returned to a Pool. Larger
// buffers are left for the garbage collector.
const maxPooledSize = 1 << 20

// Pool is a concurrency-safe free list of text buffers. Buffers are always
// empty when acquired. There is no ordering guarantee on reuse.
type Pool struct {
	pool sync.Pool
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return new(bytes.Buffer)
			},
		},
	}
}

// Get acquires an empty buffer.
func (p *Pool) Get() *bytes.Buffer {
	b, ok := p.pool.Get().(*bytes.Buffer)
	if !ok {
		return new(bytes.Buffer)
	}
	b.Reset()
	return b
}

// Put releases b back to the pool. b must not be used afterwards.
func (p *Pool) Put(b *bytes.Buffer) {
	if b == nil || b.Cap() > maxPooledSize {
		return
	}
	b.Reset()
	p.pool.Put(b)
}
