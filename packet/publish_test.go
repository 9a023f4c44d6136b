package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPublishEncodeScenarioS3 matches spec.md §8 S3's wire bytes for
// publish("a", "hi", qos=1).
func TestPublishEncodeScenarioS3(t *testing.T) {
	p := &Publish{
		Topic:    "a",
		Payload:  []byte("hi"),
		QoS:      QoS1,
		PacketID: 7,
	}

	buf := make([]byte, p.Len())
	n, err := p.Encode(buf)
	require.NoError(t, err)

	want := []byte{0x32, 0x07, 0x00, 0x01, 'a', 0x00, 0x07, 'h', 'i'}
	assert.Equal(t, want, buf[:n])
}

func TestPublishQoS0HasNoPacketID(t *testing.T) {
	p := &Publish{Topic: "t", Payload: []byte("x"), QoS: QoS0}
	buf := make([]byte, p.Len())
	n, err := p.Encode(buf)
	require.NoError(t, err)

	var decoded Publish
	m, err := decoded.Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, uint16(0), decoded.PacketID)
	assert.Equal(t, QoS0, decoded.QoS)
}

func TestPublishQoS2InboundScenarioS4(t *testing.T) {
	// PUBLISH qos=2 pkt_id=0x0011 topic="t" payload="p"
	src := []byte{0x34, 0x06, 0x00, 0x01, 't', 0x00, 0x11, 'p'}

	var p Publish
	n, err := p.Decode(src)
	require.NoError(t, err)
	assert.Equal(t, len(src), n)
	assert.Equal(t, "t", p.Topic)
	assert.Equal(t, QoS2, p.QoS)
	assert.Equal(t, uint16(0x0011), p.PacketID)
	assert.Equal(t, []byte("p"), p.Payload)
}

func TestPublishEmptyTopicRejected(t *testing.T) {
	p := &Publish{Payload: []byte("x")}
	buf := make([]byte, 64)
	_, err := p.Encode(buf)
	assert.Error(t, err)
}

func TestPubrelWireBytes(t *testing.T) {
	p := &Pubrel{PacketID: 0x0011}
	buf := make([]byte, p.Len())
	n, err := p.Encode(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x62, 0x02, 0x00, 0x11}, buf[:n])
}

func TestPubcompWireBytes(t *testing.T) {
	p := &Pubcomp{PacketID: 0x0011}
	buf := make([]byte, p.Len())
	n, err := p.Encode(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x70, 0x02, 0x00, 0x11}, buf[:n])
}

func TestPubrecWireBytes(t *testing.T) {
	p := &Pubrec{PacketID: 0x0011}
	buf := make([]byte, p.Len())
	n, err := p.Encode(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x50, 0x02, 0x00, 0x11}, buf[:n])
}
