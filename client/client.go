// Package client implements cellmqtt's session engine: the connection
// state machine, QoS 1/2 request tracking and keep-alive scheduling that
// sit between an application and a transport.Transport. It never opens a
// socket itself (spec.md §1 scopes byte I/O out as an external
// collaborator) — it consumes transport.Transport and implements
// transport.Sink.
package client

import (
	"time"

	"github.com/breezeiot/cellmqtt/packet"
	"github.com/breezeiot/cellmqtt/ring"
	"github.com/breezeiot/cellmqtt/transport"
)

// DefaultTXBufferSize is the TX ring's byte capacity (spec.md §4.1).
const DefaultTXBufferSize = 4096

// DefaultScratchSize bounds the largest inbound packet the stream parser
// will reassemble across chunks (spec.md §4.3's "too big" discard path).
// A packet that arrives whole inside one chunk is not bounded by it.
const DefaultScratchSize = 2048

// Client is cellmqtt's session engine core (spec.md §2-§5). A Client is
// built once per logical MQTT session and is safe to drive from multiple
// goroutines: every public method and every transport.Sink method takes
// the same reentrant core lock (lock.go), so an EventHandler invoked
// synchronously from inside that lock may call back into Publish,
// Subscribe, Unsubscribe or Disconnect without deadlocking.
type Client struct {
	lock reentrantMutex

	transport transport.Transport
	stream    *packet.Stream
	tx        *ring.Buffer

	handler EventHandler
	logger  Logger

	state        State
	connectPhase connectPhase
	opts         *Options

	requests  requestTable
	lastPktID uint16

	isSending     bool
	keepAliveSecs uint16
	lastActivity  time.Time
	pingOutstand  int

	// writtenTotal and sentTotal are cumulative byte counts across every
	// packet ever staged and actually transmitted, respectively (spec.md
	// §4.6/§4.8's QoS-0 completion rule). They never reset on their own;
	// teardown zeroes them along with everything else pipeline state.
	writtenTotal uint64
	sentTotal    uint64

	host string
	port int

	userData map[string]any
}

// New creates a Client that delivers Events to handler. t may be nil if
// the caller intends to supply it with SetTransport once constructed —
// transports need the Client as their Sink, so the two are necessarily
// built in two steps when neither can exist first.
func New(t transport.Transport, handler EventHandler) *Client {
	c := &Client{
		transport: t,
		handler:   handler,
		logger:    nopLogger{},
		tx:        ring.New(DefaultTXBufferSize),
		userData:  make(map[string]any),
	}
	c.stream = packet.NewStream(DefaultScratchSize, c.onPacket)
	return c
}

// SetTransport installs the Transport a Client built with a nil
// transport will drive. It must be called before Connect, and only
// once.
func (c *Client) SetTransport(t transport.Transport) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.transport = t
}

// SetLogger installs a Logger for protocol-violation and discard
// warnings (spec.md §4.5, §4.3). The zero value logs nowhere.
func (c *Client) SetLogger(l Logger) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if l == nil {
		l = nopLogger{}
	}
	c.logger = l
}

// SetArg stashes an arbitrary value under key, recoverable with GetArg.
// This mirrors spec.md's "client-local user data" slot the original C
// API exposes as a single opaque void*; a map generalizes it to several
// named slots, since Go has no reason to flatten them into one.
func (c *Client) SetArg(key string, v any) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.userData[key] = v
}

// GetArg retrieves a value set with SetArg.
func (c *Client) GetArg(key string) (any, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	v, ok := c.userData[key]
	return v, ok
}

// State returns the client's current connection state.
func (c *Client) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// IsConnected reports whether the client is in the CONNECTED state.
func (c *Client) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state == Connected
}

// Connect starts connecting to host:port and, once the transport comes
// up, sends a CONNECT built from opts. opts is borrowed for the
// connection's lifetime (spec.md §6) and must not be mutated by the
// caller afterward. Returns ErrAlreadyConnecting if a connection is
// already in progress or established.
func (c *Client) Connect(host string, port int, opts *Options) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state != Disconnected {
		return ErrAlreadyConnecting
	}
	if opts == nil || opts.ClientID == "" {
		return ErrInvalidArgument
	}

	c.opts = opts
	c.host = host
	c.port = port
	c.keepAliveSecs = opts.KeepAlive
	c.lastActivity = time.Now()
	c.pingOutstand = 0
	c.state = Connecting
	c.connectPhase = phaseTCP

	if err := c.transport.StartTCP(host, port); err != nil {
		c.state = Disconnected
		c.connectPhase = phaseNone
		return err
	}
	return nil
}

// Disconnect sends a DISCONNECT and tears the transport down. Pending
// requests are drained with ResultErr, in table order, followed by one
// EventDisconnect (spec.md §4.2/§6's teardown ordering, invariant 7).
func (c *Client) Disconnect() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.disconnectLocked(true)
}

func (c *Client) disconnectLocked(sendPacket bool) error {
	if c.state == Disconnected {
		return ErrClosed
	}

	wasConnected := c.state == Connected
	c.state = Disconnecting

	if sendPacket && wasConnected {
		var d packet.Disconnect
		buf := make([]byte, d.Len())
		n, err := d.Encode(buf)
		if err == nil {
			c.stageAndFlush(buf[:n])
		}
	}

	c.transport.Close()
	return nil
}

// forceClose requests that the transport close, without draining the
// request table itself or touching c.state: the actual teardown and
// DISCONNECT event happen uniformly in OnClosed once the transport
// confirms closure, which needs the pre-close state intact to compute
// IsAccepted correctly (spec.md §4.5's "any → transport CLOSED →
// DISCONNECTED" row covers both a locally- and a remotely-initiated
// close the same way, but distinguishes a clean close from one that cut
// a CONNECTING handshake short).
func (c *Client) forceClose() {
	if c.state == Disconnected {
		return
	}
	c.transport.Close()
}

// teardown drains the request table (draining in table order per
// invariant 7) and transitions to DISCONNECTED. The transport is assumed
// to already be closing or closed; callers that still need it closed
// call forceClose or Disconnect instead.
func (c *Client) teardown() {
	c.requests.eachInUse(func(r *request) {
		arg := r.arg
		c.requests.delete(r)
		c.emit(Event{Type: c.eventTypeFor(r), Arg: arg, Result: ResultErr})
	})

	c.state = Disconnected
	c.connectPhase = phaseNone
	c.isSending = false
	c.tx.Reset()
	c.writtenTotal = 0
	c.sentTotal = 0
}

func (c *Client) eventTypeFor(r *request) EventType {
	switch {
	case r.isSub():
		return EventSubscribe
	case r.isUnsub():
		return EventUnsubscribe
	default:
		return EventPublish
	}
}

// emit invokes the EventHandler synchronously while the core lock is
// held (spec.md §5); the lock is reentrant specifically so this call can
// legally re-enter the Client API.
func (c *Client) emit(ev Event) {
	if c.handler != nil {
		c.handler(ev)
	}
}

// nextPacketID allocates the next 16-bit packet id, wrapping 0xFFFF back
// to 1 and never returning 0 (invariant 4). Grounded on spec.md §4.4's
// "packet ids cycle through the 16-bit non-zero space".
func (c *Client) nextPacketID() uint16 {
	c.lastPktID++
	if c.lastPktID == 0 {
		c.lastPktID = 1
	}
	return c.lastPktID
}

// stageAndFlush writes p into the TX ring and attempts to flush, failing
// with ErrMem if the ring is out of space (spec.md §4.1's memory
// precheck, C6). Every staged packet, not just QoS-0 publishes, counts
// toward writtenTotal, since a QoS-0 publish's completion is judged
// against the cumulative byte stream, not its own bytes alone.
func (c *Client) stageAndFlush(p []byte) error {
	if len(p) > c.tx.FreeSpace() {
		return ErrMem
	}
	c.tx.Write(p)
	c.writtenTotal += uint64(len(p))
	c.flush()
	return nil
}

// flush starts exactly one Send if the TX ring holds bytes and no send
// is currently outstanding (invariant 6: is_sending implies exactly one
// outstanding send).
func (c *Client) flush() {
	if c.isSending {
		return
	}
	chunk := c.tx.LinearRead()
	if len(chunk) == 0 {
		return
	}
	// Set before Send: a transport may report completion synchronously,
	// from inside Send, and OnSendComplete clears the flag.
	c.isSending = true
	if err := c.transport.Send(chunk); err != nil {
		c.isSending = false
		c.logger.Printf("cellmqtt: send failed: %v", err)
		return
	}
}
