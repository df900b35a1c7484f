// Package buffer implements the bounded byte window used to stream-parse
// subprocess output.
//
// A Buffer is a fixed-capacity array holding the bytes read so far. Parsers
// consume records from the front of the window and, once every complete record
// has been consumed, MakeSpace shifts the unconsumed tail down to offset zero
// before the next read. A Reader wraps a Buffer and an io.Reader and owns that
// paging cycle so individual format parsers only deal with delimiters.
package buffer

import (
	"errors"
	"io"
)

// DefaultSize is the capacity used when a caller does not specify one.
// A single record (one status line, one config value, one commit body) must
// fit inside the buffer.
const DefaultSize = 64 * 1024

// MinSize is the smallest capacity accepted by New.
const MinSize = 64

// ErrNoProgress is returned by Fill when the underlying reader repeatedly
// returns zero bytes without an error.
var ErrNoProgress = errors.New("reader returned no data and no error")

// maxEmptyReads bounds the number of consecutive (0, nil) reads tolerated.
const maxEmptyReads = 100

// Buffer is a fixed-capacity byte window. Bytes in [0, Len()) are valid.
type Buffer struct {
	data  []byte
	count int
}

// New allocates a Buffer with the given capacity. Sizes below MinSize are
// raised to MinSize.
func New(size int) *Buffer {
	if size < MinSize {
		size = MinSize
	}
	return &Buffer{data: make([]byte, size)}
}

// Len returns the number of valid bytes in the buffer.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the fixed capacity of the buffer.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Full reports whether no free space remains after the valid bytes.
func (b *Buffer) Full() bool {
	return b.count == len(b.data)
}

// Bytes returns the valid region of the buffer. The slice aliases the buffer
// and is only valid until the next Fill or MakeSpace.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.count]
}

// Slice returns the valid bytes in [start, start+length).
func (b *Buffer) Slice(start, length int) []byte {
	return b.data[start : start+length]
}

// Fill performs reads from r into the free region [Len(), Cap()) until at
// least one byte arrives, the reader reports an error, or the buffer is full.
// A zero-byte read with a nil error is retried. It returns the number of
// bytes added; io.EOF is returned only when no bytes were added.
func (b *Buffer) Fill(r io.Reader) (int, error) {
	if b.Full() {
		return 0, nil
	}
	for empty := 0; empty < maxEmptyReads; empty++ {
		n, err := r.Read(b.data[b.count:])
		if n < 0 || n > len(b.data)-b.count {
			return 0, io.ErrShortBuffer
		}
		b.count += n
		if err != nil {
			if n > 0 && errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		if n > 0 {
			return n, nil
		}
	}
	return 0, ErrNoProgress
}

// FirstIndexOf returns the index of the first target byte in
// [start, start+length), or -1 if absent.
func (b *Buffer) FirstIndexOf(target byte, start, length int) int {
	start, end := b.clamp(start, length)
	for i := start; i < end; i++ {
		if b.data[i] == target {
			return i
		}
	}
	return -1
}

// FirstIndexOfAny returns the index of the first byte in [start, start+length)
// that appears in targets, or -1 if none does.
func (b *Buffer) FirstIndexOfAny(targets string, start, length int) int {
	start, end := b.clamp(start, length)
	for i := start; i < end; i++ {
		for j := 0; j < len(targets); j++ {
			if b.data[i] == targets[j] {
				return i
			}
		}
	}
	return -1
}

// LastIndexOf returns the index of the last target byte in
// [start, start+length), or -1 if absent.
func (b *Buffer) LastIndexOf(target byte, start, length int) int {
	start, end := b.clamp(start, length)
	for i := end - 1; i >= start; i-- {
		if b.data[i] == target {
			return i
		}
	}
	return -1
}

// StartsWith reports whether the bytes at [start, start+length) begin with
// literal. It is false when the range is shorter than the literal.
func (b *Buffer) StartsWith(literal string, start, length int) bool {
	start, end := b.clamp(start, length)
	if end-start < len(literal) {
		return false
	}
	for i := 0; i < len(literal); i++ {
		if b.data[start+i] != literal[i] {
			return false
		}
	}
	return true
}

// MakeSpace moves the unconsumed region [*get, Len()) to the start of the
// buffer and resets *get to zero. It must run before the next read whenever
// a record straddles the end of the current window.
func (b *Buffer) MakeSpace(get *int) {
	g := *get
	if g <= 0 {
		*get = 0
		return
	}
	if g > b.count {
		g = b.count
	}
	remaining := copy(b.data, b.data[g:b.count])
	b.count = remaining
	*get = 0
}

// Reset discards all valid bytes.
func (b *Buffer) Reset() {
	b.count = 0
}

// clamp bounds [start, start+length) to the valid region.
func (b *Buffer) clamp(start, length int) (int, int) {
	if start < 0 {
		start = 0
	}
	end := start + length
	if end > b.count {
		end = b.count
	}
	if start > end {
		start = end
	}
	return start, end
}
