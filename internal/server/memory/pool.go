package memory

import (
	"bytes"
	"sync"
)

// BufferPool recycles buffers for buffered uploads. Buffers that grew beyond
// maxRetain are dropped instead of returned, so the pool never pins more than
// one threshold's worth of memory per buffer.
type BufferPool struct {
	maxRetain int
	pool      sync.Pool
}

func NewBufferPool(maxRetain int64) *BufferPool {
	return &BufferPool{
		maxRetain: int(maxRetain),
		pool: sync.Pool{New: func() any {
			return new(bytes.Buffer)
		}},
	}
}

// Get returns an empty buffer.
func (p *BufferPool) Get() *bytes.Buffer {
	b := p.pool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// Put returns b to the pool unless it is oversized.
func (p *BufferPool) Put(b *bytes.Buffer) {
	if b == nil || b.Cap() > p.maxRetain {
		return
	}
	b.Reset()
	p.pool.Put(b)
}
