package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLinearRead(t *testing.T) {
	b := New(16)
	n, ok := b.Write([]byte("hello"))
	require.True(t, ok)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), b.LinearRead())
	assert.Equal(t, 11, b.FreeSpace())
}

func TestWriteRejectsWhenFull(t *testing.T) {
	b := New(4)
	_, ok := b.Write([]byte("hello")) // 5 > 4
	assert.False(t, ok)
	assert.Equal(t, 0, b.Occupied())
}

func TestSkipAdvancesReadPointer(t *testing.T) {
	b := New(8)
	b.Write([]byte("abcdef"))
	b.Skip(3)
	assert.Equal(t, []byte("def"), b.LinearRead())
	assert.Equal(t, 3, b.Occupied())
}

func TestResetOnlyWhenEmpty(t *testing.T) {
	b := New(8)
	b.Write([]byte("ab"))
	b.Reset() // no-op, not empty
	assert.Equal(t, []byte("ab"), b.LinearRead())

	b.Skip(2)
	b.Reset()
	n, ok := b.Write([]byte("cdefgh"))
	require.True(t, ok)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte("cdefgh"), b.LinearRead())
}

func TestWrapAroundSplitsLinearRead(t *testing.T) {
	b := New(8)
	b.Write([]byte("123456")) // occupies [0,6)
	b.Skip(6)                 // empty, readPos=writePos=6 (no implicit reset)
	n, ok := b.Write([]byte("abcdef"))
	require.True(t, ok)
	assert.Equal(t, 6, n)

	// writePos wrapped: wrote 2 bytes at [6,8) then 4 at [0,4).
	first := b.LinearRead()
	assert.Equal(t, []byte("ab"), first)
	b.Skip(len(first))

	second := b.LinearRead()
	assert.Equal(t, []byte("cdef"), second)
}

func TestFreeSpaceAccounting(t *testing.T) {
	b := New(10)
	assert.Equal(t, 10, b.FreeSpace())
	b.Write([]byte("abc"))
	assert.Equal(t, 7, b.FreeSpace())
	b.Skip(3)
	assert.Equal(t, 10, b.FreeSpace())
}

func TestWriteEmptySliceIsNoop(t *testing.T) {
	b := New(4)
	n, ok := b.Write(nil)
	assert.True(t, ok)
	assert.Equal(t, 0, n)
}
