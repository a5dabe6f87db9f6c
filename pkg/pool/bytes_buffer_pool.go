package pool

import (
	"bytes"
	"sync"
)

// BytesBuffer is a strongly typed wrapper around a sync.Pool for
// *bytes.Buffer, used for assembling multi-line datagrams.
type BytesBuffer struct {
	p sync.Pool
}

// NewBytesBuffer returns a new buffer pool. sizeHint is the initial capacity
// of newly created buffers; a buffer that outgrows it keeps the larger
// backing array when returned.
func NewBytesBuffer(sizeHint int) *BytesBuffer {
	return &BytesBuffer{
		p: sync.Pool{
			New: func() interface{} {
				b := &bytes.Buffer{}
				b.Grow(sizeHint)
				return b
			},
		},
	}
}

// Get returns an empty buffer.
func (p *BytesBuffer) Get() *bytes.Buffer {
	buffer := p.p.Get().(*bytes.Buffer)
	buffer.Reset()
	return buffer
}

func (p *BytesBuffer) Put(b *bytes.Buffer) {
	p.p.Put(b)
}
