package slicebuf_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-rpc/halyard/pkg/slicebuf"
)

func TestAppendAndDrain(t *testing.T) {
	b := slicebuf.New()
	defer b.Release()

	assert.Equal(t, 0, b.Len())
	b.Append([]byte("hello "))
	b.Append([]byte("world"))
	assert.Equal(t, 11, b.Len())

	assert.Equal(t, []byte("hello"), b.Next(5))
	assert.Equal(t, 6, b.Len())
	assert.Equal(t, []byte(" world"), b.Bytes())

	b.Append([]byte("!"))
	assert.Equal(t, []byte(" world!"), b.Bytes())
}

func TestNextPastEnd(t *testing.T) {
	b := slicebuf.FromBytes([]byte("abc"))
	defer b.Release()

	assert.Equal(t, []byte("abc"), b.Next(10))
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Next(1))
}

func TestReaderComposesWithMultiReader(t *testing.T) {
	b := slicebuf.FromBytes([]byte("pre-read "))
	defer b.Release()

	r := io.MultiReader(b, strings.NewReader("live bytes"))
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "pre-read live bytes", string(out))
	assert.Equal(t, 0, b.Len())
}

func TestWrite(t *testing.T) {
	b := slicebuf.New()
	defer b.Release()

	n, err := b.Write([]byte("data"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("data"), b.Bytes())
}

func TestTakeAll(t *testing.T) {
	b := slicebuf.FromBytes([]byte("payload"))
	defer b.Release()

	out := b.TakeAll()
	assert.Equal(t, []byte("payload"), out)
	assert.Equal(t, 0, b.Len())

	// The returned slice is a copy and survives further mutation.
	b.Append([]byte("other"))
	assert.Equal(t, []byte("payload"), out)
}

func TestSwap(t *testing.T) {
	a := slicebuf.FromBytes([]byte("left"))
	b := slicebuf.FromBytes([]byte("right side"))
	defer a.Release()
	defer b.Release()

	_ = a.Next(2) // advance the read offset, it must travel with the content
	a.Swap(b)

	assert.Equal(t, []byte("right side"), a.Bytes())
	assert.Equal(t, []byte("ft"), b.Bytes())
}

func TestReset(t *testing.T) {
	b := slicebuf.FromBytes([]byte("content"))
	defer b.Release()

	b.Reset()
	assert.Equal(t, 0, b.Len())
	_, err := b.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestNilSafety(t *testing.T) {
	var b *slicebuf.Buffer
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Bytes())
	b.Release()
}
