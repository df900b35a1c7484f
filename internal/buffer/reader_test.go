package buffer

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunked delivers at most n bytes per Read.
type chunked struct {
	r io.Reader
	n int
}

func (c *chunked) Read(p []byte) (int, error) {
	if len(p) > c.n {
		p = p[:c.n]
	}
	return c.r.Read(p)
}

func readers(input string) map[string]func() io.Reader {
	return map[string]func() io.Reader{
		"single":   func() io.Reader { return strings.NewReader(input) },
		"one byte": func() io.Reader { return iotest.OneByteReader(strings.NewReader(input)) },
		"3 bytes":  func() io.Reader { return &chunked{r: strings.NewReader(input), n: 3} },
		"half":     func() io.Reader { return iotest.HalfReader(strings.NewReader(input)) },
	}
}

func collect(t *testing.T, r *Reader, delim byte) []string {
	t.Helper()
	var out []string
	for {
		rec, err := r.ReadUntil(delim)
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, string(rec))
	}
}

func TestReadUntil_BoundaryInvariance(t *testing.T) {
	records := []string{"alpha", "", "b\xc3\xa9ta", strings.Repeat("x", 150), "last"}
	input := strings.Join(records, "\x00") + "\x00"

	for name, src := range readers(input) {
		t.Run(name, func(t *testing.T) {
			// A window smaller than the input forces repeated paging.
			r := NewReader(src(), 160)
			assert.Equal(t, records, collect(t, r, 0))
			assert.True(t, r.EOF())
		})
	}
}

func TestReadUntil_Truncated(t *testing.T) {
	r := NewReader(strings.NewReader("complete\x00partial"), 64)

	rec, err := r.ReadUntil(0)
	require.NoError(t, err)
	assert.Equal(t, "complete", string(rec))

	_, err = r.ReadUntil(0)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReadUntil_RecordTooLarge(t *testing.T) {
	r := NewReader(strings.NewReader(strings.Repeat("v", 200)+"\x00"), MinSize)

	_, err := r.ReadUntil(0)
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}

func TestReadUntil_RecordExactlyFillsAfterPaging(t *testing.T) {
	first := strings.Repeat("a", 40)
	second := strings.Repeat("b", MinSize-1)
	r := NewReader(iotest.OneByteReader(strings.NewReader(first+"\n"+second+"\n")), MinSize)

	assert.Equal(t, []string{first, second}, collect(t, r, '\n'))
}

func TestReadUntilAny(t *testing.T) {
	r := NewReader(iotest.OneByteReader(strings.NewReader("file:.git/config\x00core.bare\nfalse\x00")), 64)

	rec, d, err := r.ReadUntilAny("\x00\n")
	require.NoError(t, err)
	assert.Equal(t, "file:.git/config", string(rec))
	assert.Equal(t, byte(0), d)

	rec, d, err = r.ReadUntilAny("\x00\n")
	require.NoError(t, err)
	assert.Equal(t, "core.bare", string(rec))
	assert.Equal(t, byte('\n'), d)

	rec, _, err = r.ReadUntilAny("\x00\n")
	require.NoError(t, err)
	assert.Equal(t, "false", string(rec))

	_, _, err = r.ReadUntilAny("\x00\n")
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLine(t *testing.T) {
	r := NewReader(strings.NewReader("one\ntwo\r\nthree"), 64)

	var lines []string
	for {
		line, err := r.ReadLine()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, string(line))
	}

	assert.Equal(t, []string{"one", "two\r", "three"}, lines)
}

func TestReadN(t *testing.T) {
	r := NewReader(&chunked{r: strings.NewReader("0123456789rest\n"), n: 3}, 64)

	rec, err := r.ReadN(10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(rec))

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "rest", string(line))

	_, err = r.ReadN(1)
	assert.ErrorIs(t, err, io.EOF)

	_, err = NewReader(strings.NewReader("ab"), 64).ReadN(3)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = NewReader(strings.NewReader(""), 64).ReadN(65)
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}

func TestRest(t *testing.T) {
	r := NewReader(strings.NewReader("a\x00tail"), 64)

	_, err := r.ReadUntil(0)
	require.NoError(t, err)
	_, err = r.ReadUntil(0)
	require.ErrorIs(t, err, ErrTruncated)

	assert.Equal(t, "tail", string(r.Rest()))
	assert.True(t, r.EOF())
}

func TestCopyN(t *testing.T) {
	payload := strings.Repeat("0123456789", 30)
	r := NewReader(&chunked{r: strings.NewReader("hdr\n" + payload + "\nnext\n"), n: 7}, MinSize)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hdr", string(line))

	var sb strings.Builder
	require.NoError(t, r.CopyN(&sb, int64(len(payload))))
	assert.Equal(t, payload, sb.String())

	_, err = r.ReadN(1)
	require.NoError(t, err)
	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "next", string(line))

	short := NewReader(strings.NewReader("abc"), MinSize)
	assert.ErrorIs(t, short.CopyN(io.Discard, 10), ErrTruncated)
}

func TestOffsets(t *testing.T) {
	r := NewReader(iotest.OneByteReader(strings.NewReader(strings.Repeat("abcdefghi\n", 20))), MinSize)

	for i := 0; i < 20; i++ {
		_, err := r.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, int64(i*10), r.RecordOffset())
		assert.Equal(t, int64((i+1)*10), r.Offset())
	}
}

func TestWindowConsume(t *testing.T) {
	r := NewReader(strings.NewReader("[a][b]"), 64)
	require.NoError(t, r.Fill())

	assert.Equal(t, "[a][b]", string(r.Window()))
	r.Consume(3)
	assert.Equal(t, "[b]", string(r.Window()))
	assert.Equal(t, 3, r.Get())
	assert.Equal(t, "[b]", string(r.Snapshot()))

	r.Consume(100)
	assert.Empty(t, r.Window())
	assert.ErrorIs(t, r.Fill(), io.EOF)
	assert.True(t, r.EOF())
}

func TestDrain(t *testing.T) {
	src := strings.NewReader(strings.Repeat("z", 1000))
	r := NewReader(src, MinSize)
	require.NoError(t, r.Fill())

	require.NoError(t, r.Drain())
	assert.Zero(t, src.Len())
	assert.True(t, r.EOF())
}

func TestFill_StickyError(t *testing.T) {
	r := NewReader(failing{}, 64)
	assert.ErrorIs(t, r.Fill(), errBoom)
	assert.ErrorIs(t, r.Fill(), errBoom)

	_, err := r.ReadUntil('\n')
	assert.ErrorIs(t, err, errBoom)
}
