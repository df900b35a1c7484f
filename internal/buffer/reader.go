package buffer

import (
	"errors"
	"io"
)

// ErrRecordTooLarge is returned when a single record does not fit in the
// buffer. Increase the buffer size to parse such output.
var ErrRecordTooLarge = errors.New("record exceeds buffer capacity")

// ErrTruncated is returned when the stream ends in the middle of a record.
var ErrTruncated = errors.New("stream ended inside a record")

// Reader consumes delimited records from an io.Reader through a fixed Buffer.
//
// Records returned by the Read methods alias the buffer and stay valid only
// until the next call on the Reader. Callers copy what they keep.
type Reader struct {
	buf  *Buffer
	src  io.Reader
	get  int
	eof  bool
	err  error
	base int64

	recordStart int64
}

// NewReader returns a Reader over src with a buffer of the given size.
func NewReader(src io.Reader, size int) *Reader {
	return &Reader{
		buf: New(size),
		src: src,
	}
}

// Buffer exposes the underlying window.
func (r *Reader) Buffer() *Buffer {
	return r.buf
}

// Window returns the unconsumed bytes currently buffered.
func (r *Reader) Window() []byte {
	return r.buf.data[r.get:r.buf.count]
}

// Get returns the index of the first unconsumed byte in the buffer.
func (r *Reader) Get() int {
	return r.get
}

// Consume marks n buffered bytes as read.
func (r *Reader) Consume(n int) {
	if n < 0 {
		n = 0
	}
	if r.get+n > r.buf.count {
		n = r.buf.count - r.get
	}
	r.recordStart = r.base + int64(r.get)
	r.get += n
}

// Offset returns the absolute stream offset of the first unconsumed byte.
func (r *Reader) Offset() int64 {
	return r.base + int64(r.get)
}

// RecordOffset returns the absolute stream offset where the most recently
// returned record began.
func (r *Reader) RecordOffset() int64 {
	return r.recordStart
}

// EOF reports whether the source is exhausted and every byte consumed.
func (r *Reader) EOF() bool {
	return r.eof && r.get == r.buf.count
}

// Snapshot returns a copy of the unconsumed window, for diagnostics.
func (r *Reader) Snapshot() []byte {
	w := r.Window()
	out := make([]byte, len(w))
	copy(out, w)
	return out
}

// Fill makes room for and reads more input. It shifts unconsumed bytes to the
// front of the buffer first. It returns io.EOF when the source is exhausted and
// ErrRecordTooLarge when the window is full of a single unconsumed record.
func (r *Reader) Fill() error {
	if r.err != nil {
		return r.err
	}
	if r.eof {
		return io.EOF
	}
	if r.get > 0 {
		r.base += int64(r.get)
		r.buf.MakeSpace(&r.get)
	}
	if r.buf.Full() {
		return ErrRecordTooLarge
	}
	_, err := r.buf.Fill(r.src)
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.eof = true
			return io.EOF
		}
		r.err = err
		return err
	}
	return nil
}

// ReadUntil returns the bytes up to, not including, the next delim and
// consumes the delimiter. At a clean end of stream it returns io.EOF; if bytes
// remain without a delimiter it returns ErrTruncated.
func (r *Reader) ReadUntil(delim byte) ([]byte, error) {
	scanned := 0
	for {
		start := r.get + scanned
		idx := r.buf.FirstIndexOf(delim, start, r.buf.count-start)
		if idx >= 0 {
			return r.take(idx, 1), nil
		}
		scanned = r.buf.count - r.get
		if err := r.Fill(); err != nil {
			return nil, r.endOfInput(err)
		}
	}
}

// ReadUntilAny is ReadUntil for a set of single-byte delimiters. It also
// returns which delimiter ended the record.
func (r *Reader) ReadUntilAny(delims string) ([]byte, byte, error) {
	scanned := 0
	for {
		start := r.get + scanned
		idx := r.buf.FirstIndexOfAny(delims, start, r.buf.count-start)
		if idx >= 0 {
			d := r.buf.data[idx]
			return r.take(idx, 1), d, nil
		}
		scanned = r.buf.count - r.get
		if err := r.Fill(); err != nil {
			return nil, 0, r.endOfInput(err)
		}
	}
}

// ReadLine returns the next LF-terminated line without its terminator. A
// final line lacking LF is returned as-is rather than reported as truncated.
// A trailing CR is preserved.
func (r *Reader) ReadLine() ([]byte, error) {
	line, err := r.ReadUntil('\n')
	if errors.Is(err, ErrTruncated) {
		return r.Rest(), nil
	}
	return line, err
}

// Rest consumes and returns whatever remains in the window. After a read
// reported ErrTruncated this is the unterminated final record.
func (r *Reader) Rest() []byte {
	return r.take(r.buf.count, 0)
}

// CopyN copies exactly n bytes to w, streaming past the window for payloads
// larger than the buffer.
func (r *Reader) CopyN(w io.Writer, n int64) error {
	r.recordStart = r.base + int64(r.get)
	for n > 0 {
		if r.get == r.buf.count {
			if err := r.Fill(); err != nil {
				if errors.Is(err, io.EOF) {
					return ErrTruncated
				}
				return err
			}
			continue
		}
		chunk := r.buf.count - r.get
		if int64(chunk) > n {
			chunk = int(n)
		}
		if _, err := w.Write(r.buf.data[r.get : r.get+chunk]); err != nil {
			return err
		}
		r.get += chunk
		n -= int64(chunk)
	}
	return nil
}

// ReadN returns exactly n bytes.
func (r *Reader) ReadN(n int) ([]byte, error) {
	if n > r.buf.Cap() {
		return nil, ErrRecordTooLarge
	}
	for r.buf.count-r.get < n {
		if err := r.Fill(); err != nil {
			return nil, r.endOfInput(err)
		}
	}
	return r.take(r.get+n, 0), nil
}

// Drain discards everything left in the window and the source.
func (r *Reader) Drain() error {
	r.get = r.buf.count
	if r.eof || r.err != nil {
		return nil
	}
	_, err := io.Copy(io.Discard, r.src)
	r.eof = true
	return err
}

// take returns the record [get, end) and advances past end plus skip
// delimiter bytes.
func (r *Reader) take(end, skip int) []byte {
	r.recordStart = r.base + int64(r.get)
	rec := r.buf.data[r.get:end]
	r.get = end + skip
	return rec
}

// endOfInput converts a Fill failure into the error reported to parsers.
func (r *Reader) endOfInput(err error) error {
	if !errors.Is(err, io.EOF) {
		return err
	}
	if r.get == r.buf.count {
		return io.EOF
	}
	return ErrTruncated
}
