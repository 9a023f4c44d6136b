package client

import (
	"time"

	"github.com/breezeiot/cellmqtt/packet"
)

// The methods in this file implement transport.Sink. Each acquires the
// core lock itself, fulfilling spec.md §5's contract that transport
// callbacks run with the lock already held from the transport's side —
// the transport does not hold a mutex of its own while calling into the
// Sink (see transport.Transport's doc comment).

// OnConnected reports that the underlying byte transport (TCP or
// WebSocket) has come up. If a CONNECT was waiting to go out, it is
// encoded and staged now.
func (c *Client) OnConnected() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state != Connecting || c.connectPhase != phaseTCP {
		return
	}
	c.connectPhase = phaseMQTT

	conn := &packet.Connect{
		ClientID:     c.opts.ClientID,
		HasUsername:  c.opts.HasUsername,
		Username:     c.opts.Username,
		HasPassword:  c.opts.HasPassword,
		Password:     c.opts.Password,
		Will:         c.opts.Will,
		CleanSession: true,
		KeepAlive:    c.opts.KeepAlive,
	}
	buf := make([]byte, conn.Len())
	n, err := conn.Encode(buf)
	if err != nil {
		c.logger.Printf("cellmqtt: could not encode CONNECT: %v", err)
		c.emit(Event{Type: EventConnect, ConnectStatus: TCPFailed})
		c.forceClose()
		return
	}
	if stageErr := c.stageAndFlush(buf[:n]); stageErr != nil {
		c.emit(Event{Type: EventConnect, ConnectStatus: TCPFailed})
		c.forceClose()
	}
}

// OnConnectError reports that the transport failed to come up.
func (c *Client) OnConnectError(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state == Disconnected {
		return
	}
	c.logger.Printf("cellmqtt: transport connect failed: %v", err)
	c.teardown()
	c.emit(Event{Type: EventConnect, ConnectStatus: TCPFailed})
}

// OnDataReceived feeds chunk into the stream parser, dispatching any
// packets it completes.
func (c *Client) OnDataReceived(chunk []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state == Disconnected {
		return
	}
	if err := c.stream.Feed(chunk); err != nil {
		c.logger.Printf("cellmqtt: stream error: %v", err)
		c.forceClose()
		return
	}
	if c.stream.TooBig() {
		c.logger.Printf("cellmqtt: packet discarded: too big for scratch buffer")
	}
	c.transport.AckReceived(len(chunk))
}

// OnSendComplete reports that a Send the core previously issued has
// finished. It reclaims the TX ring's space, advances the cumulative
// sentTotal counter and resolves every QoS-0 publish it now covers
// (spec.md §4.6/§4.8), and starts the next queued send if any bytes
// remain staged.
func (c *Client) OnSendComplete(sentLen int, ok bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state == Disconnected {
		return
	}
	c.isSending = false
	c.lastActivity = time.Now()

	if !ok {
		c.logger.Printf("cellmqtt: send failed after %d bytes", sentLen)
		c.forceClose()
		return
	}

	c.tx.Skip(sentLen)
	c.tx.Reset()
	c.sentTotal += uint64(sentLen)
	c.resolveQoS0Completions()
	c.flush()
}

// resolveQoS0Completions completes every pending QoS-0 publish whose
// expectedSentLen has now been covered by sentTotal. A single Send can
// carry more than one staged packet (LinearRead returns the whole
// contiguous occupancy), so more than one QoS-0 publish may resolve from
// one OnSendComplete call; looping in table order until none qualify
// mirrors the original's sent_total >= expected_sent_len drain.
func (c *Client) resolveQoS0Completions() {
	for {
		r := c.requests.getPending(0)
		if r == nil || c.sentTotal < r.expectedSentLen {
			return
		}
		arg := r.arg
		c.requests.delete(r)
		c.emit(Event{Type: EventPublish, Arg: arg, Result: ResultOK})
	}
}

// OnClosed reports that the transport has gone away, whether from a
// clean Disconnect or an unexpected drop.
func (c *Client) OnClosed() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state == Disconnected {
		return
	}
	accepted := c.state == Connected || c.state == Disconnecting
	c.teardown()
	c.emit(Event{Type: EventDisconnect, IsAccepted: accepted})
}
