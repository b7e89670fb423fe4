// Package slicebuf provides a pooled byte buffer with zero-copy hand-off
// semantics. A Buffer accumulates pre-read bytes and is passed along between
// consumers; the current owner may drain a prefix, append more bytes, or swap
// the whole content with another buffer without copying.
package slicebuf

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// Buffer is a drainable byte buffer backed by a pooled backing array.
// It is not safe for concurrent use; ownership is expected to be handed
// off between consumers.
type Buffer struct {
	bb  *bytebufferpool.ByteBuffer
	off int
}

// New returns an empty Buffer with a pooled backing array.
func New() *Buffer {
	return &Buffer{bb: bytebufferpool.Get()}
}

// FromBytes returns a Buffer seeded with a copy of p.
func FromBytes(p []byte) *Buffer {
	b := New()
	b.Append(p)
	return b
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	if b == nil || b.bb == nil {
		return 0
	}
	return len(b.bb.B) - b.off
}

// Bytes returns a view of the unread bytes. The view is invalidated by any
// mutating call.
func (b *Buffer) Bytes() []byte {
	if b == nil || b.bb == nil {
		return nil
	}
	return b.bb.B[b.off:]
}

// Append adds p after the unread bytes.
func (b *Buffer) Append(p []byte) {
	b.bb.B = append(b.bb.B, p...)
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

// Next drains and returns up to n unread bytes. The returned slice aliases
// the backing array and is invalidated by any mutating call.
func (b *Buffer) Next(n int) []byte {
	avail := b.Len()
	if n > avail {
		n = avail
	}
	p := b.bb.B[b.off : b.off+n]
	b.off += n
	return p
}

// Read drains up to len(p) unread bytes into p, implementing io.Reader.
// An empty buffer reports io.EOF, so a Buffer composes with io.MultiReader
// to serve pre-read bytes ahead of a live connection.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.Bytes())
	b.off += n
	return n, nil
}

// TakeAll drains all unread bytes and returns them as a copy, leaving the
// buffer empty.
func (b *Buffer) TakeAll() []byte {
	p := b.Bytes()
	out := make([]byte, len(p))
	copy(out, p)
	b.Reset()
	return out
}

// Swap exchanges the contents of b and o without copying.
func (b *Buffer) Swap(o *Buffer) {
	b.bb, o.bb = o.bb, b.bb
	b.off, o.off = o.off, b.off
}

// Reset discards all content but keeps the backing array.
func (b *Buffer) Reset() {
	b.bb.Reset()
	b.off = 0
}

// Release returns the backing array to the pool. The buffer must not be used
// afterwards.
func (b *Buffer) Release() {
	if b == nil || b.bb == nil {
		return
	}
	bytebufferpool.Put(b.bb)
	b.bb = nil
	b.off = 0
}
