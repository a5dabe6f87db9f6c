package pool

import (
	"sync"
)

// LineBuffer is a strongly typed wrapper around a sync.Pool for wire line
// scratch buffers. Lines are very short lived and we build a lot of them, so
// the backing arrays are worth re-using.
type LineBuffer struct {
	p sync.Pool
}

// NewLineBuffer returns a new line buffer pool. sizeHint is the initial
// capacity of newly created buffers.
func NewLineBuffer(sizeHint int) *LineBuffer {
	return &LineBuffer{
		p: sync.Pool{
			New: func() interface{} {
				b := make([]byte, 0, sizeHint)
				return &b
			},
		},
	}
}

// Get returns an empty buffer suitable for assembling a wire line. The
// buffer may grow past its hinted capacity; the grown backing array is kept
// on Put.
func (p *LineBuffer) Get() *[]byte {
	b := p.p.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

func (p *LineBuffer) Put(b *[]byte) {
	p.p.Put(b)
}
