package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezeiot/cellmqtt/packet"
	"github.com/breezeiot/cellmqtt/transport"
)

// fakeTransport is a synchronous stand-in for transport.Transport: Send
// calls back into the sink's OnSendComplete before returning, so tests
// don't need goroutines or timeouts to observe a round trip. The core
// lock is reentrant specifically so this kind of same-goroutine callback
// chain is legal (lock.go).
type fakeTransport struct {
	sink transport.Sink

	started  bool
	host     string
	port     int
	sent     [][]byte
	closed   bool
	failNext bool
}

func (f *fakeTransport) StartTCP(host string, port int) error {
	f.started = true
	f.host, f.port = host, port
	return nil
}

func (f *fakeTransport) Send(p []byte) error {
	buf := append([]byte(nil), p...)
	f.sent = append(f.sent, buf)
	ok := !f.failNext
	f.failNext = false
	f.sink.OnSendComplete(len(p), ok)
	return nil
}

func (f *fakeTransport) AckReceived(int) {}

func (f *fakeTransport) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.sink.OnClosed()
	return nil
}

func (f *fakeTransport) Poll() { f.sink.OnPoll() }

// newTestClient wires a Client to a fakeTransport and returns both along
// with a channel that receives every Event delivered.
func newTestClient() (*Client, *fakeTransport, chan Event) {
	events := make(chan Event, 64)
	c := New(nil, func(ev Event) { events <- ev })
	f := &fakeTransport{}
	c.SetTransport(f)
	f.sink = c
	return c, f, events
}

// connectAccepted drives a Client from DISCONNECTED to CONNECTED via a
// simulated TCP connect and an accepted CONNACK.
func connectAccepted(t *testing.T, c *Client, f *fakeTransport, opts *Options) Event {
	t.Helper()
	require.NoError(t, c.Connect("broker.example", 1883, opts))
	c.OnConnected()
	require.Len(t, f.sent, 1, "CONNECT packet should be staged once the transport comes up")

	connack := []byte{0x20, 0x02, 0x00, 0x00}
	c.OnDataReceived(connack)
	return Event{}
}

func drainEvent(t *testing.T, events chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestConnectAccepted(t *testing.T) {
	c, f, events := newTestClient()
	connectAccepted(t, c, f, NewOptions("c1").WithKeepAlive(60))

	ev := drainEvent(t, events)
	assert.Equal(t, EventConnect, ev.Type)
	assert.Equal(t, Accepted, ev.ConnectStatus)
	assert.True(t, c.IsConnected())
}

// TestPublishQoS1RoundTrip implements S3: publish("a","hi",qos=1),
// expect the wire bytes 32 07 00 01 61 PP PP 68 69, then feeding back
// PUBACK resolves the request with result OK and frees the slot.
func TestPublishQoS1RoundTrip(t *testing.T) {
	c, f, events := newTestClient()
	connectAccepted(t, c, f, NewOptions("c1"))
	drainEvent(t, events) // CONNECT

	type arg struct{ tag string }
	a := &arg{tag: "X"}
	require.NoError(t, c.Publish("a", []byte("hi"), packet.QoS1, false, a))

	last := f.sent[len(f.sent)-1]
	require.Len(t, last, 9)
	pktID := uint16(last[5])<<8 | uint16(last[6])
	want := []byte{0x32, 0x07, 0x00, 0x01, 'a', byte(pktID >> 8), byte(pktID), 'h', 'i'}
	assert.Equal(t, want, last)

	puback := []byte{0x40, 0x02, byte(pktID >> 8), byte(pktID)}
	c.OnDataReceived(puback)

	ev := drainEvent(t, events)
	assert.Equal(t, EventPublish, ev.Type)
	assert.Equal(t, ResultOK, ev.Result)
	assert.Same(t, a, ev.Arg)

	c.requests.eachInUse(func(r *request) {
		t.Fatalf("request table should be empty, found %+v", r)
	})
}

// TestPublishQoS2Inbound implements S4: an inbound QoS2 PUBLISH triggers
// PUBLISH_RECV and a staged PUBREC; feeding back PUBREL yields a staged
// PUBCOMP.
func TestPublishQoS2Inbound(t *testing.T) {
	c, f, events := newTestClient()
	connectAccepted(t, c, f, NewOptions("c1"))
	drainEvent(t, events) // CONNECT

	publish := []byte{0x34, 0x06, 0x00, 0x01, 't', 0x00, 0x11, 'p'}
	c.OnDataReceived(publish)

	ev := drainEvent(t, events)
	assert.Equal(t, EventPublishReceived, ev.Type)
	assert.Equal(t, "t", ev.Topic)
	assert.Equal(t, []byte("p"), ev.Payload)
	assert.Equal(t, packet.QoS2, ev.QoS)

	last := f.sent[len(f.sent)-1]
	assert.Equal(t, []byte{0x50, 0x02, 0x00, 0x11}, last)

	pubrel := []byte{0x62, 0x02, 0x00, 0x11}
	c.OnDataReceived(pubrel)

	last = f.sent[len(f.sent)-1]
	assert.Equal(t, []byte{0x70, 0x02, 0x00, 0x11}, last)
}

// TestKeepAlivePingreq implements S2: after the keep-alive interval has
// elapsed with no traffic, a poll stages a bare PINGREQ and resets the
// liveness clock. spec.md §4.5's table fires KEEP_ALIVE on receiving the
// PINGRESP, not on staging the PINGREQ, so the event only shows up once
// the broker answers.
func TestKeepAlivePingreq(t *testing.T) {
	c, f, events := newTestClient()
	connectAccepted(t, c, f, NewOptions("c1").WithKeepAlive(1))
	drainEvent(t, events) // CONNECT

	c.lastActivity = time.Now().Add(-2 * time.Second)
	before := c.lastActivity
	f.Poll()

	last := f.sent[len(f.sent)-1]
	assert.Equal(t, []byte{0xC0, 0x00}, last)
	assert.True(t, c.lastActivity.After(before))

	select {
	case ev := <-events:
		t.Fatalf("unexpected event before PINGRESP: %+v", ev)
	default:
	}

	c.OnDataReceived([]byte{0xD0, 0x00})

	ev := drainEvent(t, events)
	assert.Equal(t, EventKeepAlive, ev.Type)
}

// TestTeardownDrainsPendingInTableOrder implements S6: two pending
// subscribes, then a transport CLOSE, yields two SUBSCRIBE/ERR events in
// table order followed by one DISCONNECT/accepted event (invariant 7).
func TestTeardownDrainsPendingInTableOrder(t *testing.T) {
	c, f, events := newTestClient()
	connectAccepted(t, c, f, NewOptions("c1"))
	drainEvent(t, events) // CONNECT

	require.NoError(t, c.Subscribe("topic/one", packet.QoS0, "first"))
	require.NoError(t, c.Subscribe("topic/two", packet.QoS0, "second"))

	require.NoError(t, f.Close())

	ev1 := drainEvent(t, events)
	assert.Equal(t, EventSubscribe, ev1.Type)
	assert.Equal(t, ResultErr, ev1.Result)
	assert.Equal(t, "first", ev1.Arg)

	ev2 := drainEvent(t, events)
	assert.Equal(t, EventSubscribe, ev2.Type)
	assert.Equal(t, ResultErr, ev2.Result)
	assert.Equal(t, "second", ev2.Arg)

	ev3 := drainEvent(t, events)
	assert.Equal(t, EventDisconnect, ev3.Type)
	assert.True(t, ev3.IsAccepted)

	c.requests.eachInUse(func(r *request) {
		t.Fatalf("invariant 7 violated: slot still IN_USE after teardown: %+v", r)
	})
}

// TestPacketIDWrapsAndNeverZero covers invariant 4.
func TestPacketIDWrapsAndNeverZero(t *testing.T) {
	c := &Client{}
	c.lastPktID = 0xFFFE

	id := c.nextPacketID()
	assert.EqualValues(t, 0xFFFF, id)

	id = c.nextPacketID()
	assert.EqualValues(t, 1, id, "0xFFFF must wrap to 1, never 0")
	assert.NotZero(t, id)
}

// TestIsSendingAllowsExactlyOneOutstandingSend covers invariant 6: flush
// is a no-op while a send is already outstanding.
func TestIsSendingAllowsExactlyOneOutstandingSend(t *testing.T) {
	c, f, events := newTestClient()
	connectAccepted(t, c, f, NewOptions("c1"))
	drainEvent(t, events)

	// fakeTransport completes sends synchronously, so is_sending is
	// always false by the time flush returns in this harness; assert the
	// guard directly instead by calling flush while isSending is forced
	// true.
	c.isSending = true
	before := len(f.sent)
	require.NoError(t, c.Publish("x", nil, packet.QoS0, false, nil))
	assert.Equal(t, before, len(f.sent), "flush must not issue a second Send while one is outstanding")
}

func TestConnectRejectedReportsRefusalAndTearsDown(t *testing.T) {
	c, f, events := newTestClient()
	require.NoError(t, c.Connect("broker.example", 1883, NewOptions("c1")))
	c.OnConnected()

	connack := []byte{0x20, 0x02, 0x00, byte(packet.ErrRefusedIdentifier)}
	c.OnDataReceived(connack)

	ev := drainEvent(t, events)
	assert.Equal(t, EventConnect, ev.Type)
	assert.Equal(t, RefusedIdentifier, ev.ConnectStatus)
	assert.Equal(t, Disconnected, c.State())
}
