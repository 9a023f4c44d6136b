package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeRoundTrip(t *testing.T) {
	s := &Subscribe{PacketID: 5, Topic: "sensors/+/temp", QoS: QoS1}
	buf := make([]byte, s.Len())
	n, err := s.Encode(buf)
	require.NoError(t, err)

	assert.Equal(t, byte(SUBSCRIBE)<<4|0x02, buf[0])

	var decoded Subscribe
	m, err := decoded.Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, s.PacketID, decoded.PacketID)
	assert.Equal(t, s.Topic, decoded.Topic)
	assert.Equal(t, s.QoS, decoded.QoS)
	assert.Empty(t, decoded.Filters)
}

func TestSubscribeQoSClampedToTwo(t *testing.T) {
	s := &Subscribe{PacketID: 1, Topic: "t", QoS: QoS(9)}
	buf := make([]byte, s.Len())
	n, err := s.Encode(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(QoS2), buf[n-1])
}

func TestSubackRoundTrip(t *testing.T) {
	s := &Suback{PacketID: 5, ReturnCode: SubackCode(QoS1)}
	buf := make([]byte, s.Len())
	n, err := s.Encode(buf)
	require.NoError(t, err)

	var decoded Suback
	m, err := decoded.Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, s.PacketID, decoded.PacketID)
	assert.Equal(t, s.ReturnCode, decoded.ReturnCode)
}

func TestSubackFailureCode(t *testing.T) {
	src := []byte{0x90, 0x03, 0x00, 0x05, 0x80}
	var s Suback
	n, err := s.Decode(src)
	require.NoError(t, err)
	assert.Equal(t, len(src), n)
	assert.Equal(t, SubackFailure, s.ReturnCode)
}

func TestUnsubscribeRoundTrip(t *testing.T) {
	u := &Unsubscribe{PacketID: 9, Topic: "a/b"}
	buf := make([]byte, u.Len())
	n, err := u.Encode(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(UNSUBSCRIBE)<<4|0x02, buf[0])

	var decoded Unsubscribe
	m, err := decoded.Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, u.Topic, decoded.Topic)
}

func TestUnsubackRoundTrip(t *testing.T) {
	u := &Unsuback{PacketID: 9}
	buf := make([]byte, u.Len())
	n, err := u.Encode(buf)
	require.NoError(t, err)

	var decoded Unsuback
	m, err := decoded.Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, u.PacketID, decoded.PacketID)
}
