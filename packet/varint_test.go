package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	cases := []int{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, maxRemainingLength}
	for _, rl := range cases {
		buf := make([]byte, 4)
		n, err := encodeVarint(buf, rl)
		require.NoError(t, err)
		assert.Equal(t, varintLen(rl), n)
		assert.LessOrEqual(t, n, 4)

		got, m, err := decodeVarint(buf[:n])
		require.NoError(t, err)
		assert.Equal(t, n, m)
		assert.Equal(t, rl, got)
	}
}

func TestVarintZeroIsSingleByte(t *testing.T) {
	buf := make([]byte, 4)
	n, err := encodeVarint(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0x00), buf[0])
}

func TestVarintOutOfBound(t *testing.T) {
	buf := make([]byte, 4)
	_, err := encodeVarint(buf, maxRemainingLength+1)
	assert.Error(t, err)

	_, err = encodeVarint(buf, -1)
	assert.Error(t, err)
}

func TestVarintTooManyBytesRejected(t *testing.T) {
	// five continuation bytes, never terminates within the 4-byte cap
	src := []byte{0xff, 0xff, 0xff, 0xff, 0x01}
	_, _, err := decodeVarint(src)
	assert.Error(t, err)
}

func TestVarintTruncated(t *testing.T) {
	_, _, err := decodeVarint([]byte{0x80})
	assert.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	n, err := encodeString(buf, "hello")
	require.NoError(t, err)
	assert.Equal(t, stringLen("hello"), n)

	got, m, err := decodeString(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, "hello", got)
}

func TestStringEmpty(t *testing.T) {
	buf := make([]byte, 8)
	n, err := encodeString(buf, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, _, err := decodeString(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestUint16RoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	encodeUint16(buf, 0x3c)
	assert.Equal(t, []byte{0x00, 0x3c}, buf)

	got, err := decodeUint16(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3c), got)
}
