package client

import (
	"time"

	"github.com/breezeiot/cellmqtt/packet"
)

// onPacket is the packet.Dispatcher wired into the Client's Stream
// (spec.md §4.3/§4.5, C5). It runs under the core lock, since Feed is
// only ever called from OnDataReceived which already holds it.
func (c *Client) onPacket(hdrByte byte, body []byte) error {
	t := packet.Type(hdrByte >> 4)
	if !t.Valid() {
		c.logger.Printf("cellmqtt: protocol violation: unknown control packet type %d", hdrByte>>4)
		return nil
	}

	switch t {
	case packet.CONNACK:
		return c.handleConnack(body)
	case packet.PUBLISH:
		return c.handlePublish(hdrByte, body)
	case packet.PUBACK:
		return c.handlePuback(body)
	case packet.PUBREC:
		return c.handlePubrec(body)
	case packet.PUBREL:
		return c.handlePubrel(body)
	case packet.PUBCOMP:
		return c.handlePubcomp(body)
	case packet.SUBACK:
		return c.handleSuback(body)
	case packet.UNSUBACK:
		return c.handleUnsuback(body)
	case packet.PINGRESP:
		c.pingOutstand = 0
		c.emit(Event{Type: EventKeepAlive})
		return nil
	default:
		c.logger.Printf("cellmqtt: protocol violation: unexpected packet type %s from broker", t)
		return nil
	}
}

func (c *Client) handleConnack(body []byte) error {
	if c.connectPhase != phaseMQTT {
		c.logger.Printf("cellmqtt: protocol violation: CONNACK received outside CONNECTING")
		return nil
	}
	var ack packet.Connack
	fullHeader := reconstituteHeader(byte(packet.CONNACK)<<4, body)
	if _, err := ack.Decode(fullHeader); err != nil {
		c.logger.Printf("cellmqtt: malformed CONNACK: %v", err)
		c.emit(Event{Type: EventConnect, ConnectStatus: TCPFailed})
		c.forceClose()
		return nil
	}

	if ack.ReturnCode != packet.ConnectionAccepted {
		status := connectStatusFromConnack(ack.ReturnCode)
		c.emit(Event{Type: EventConnect, ConnectStatus: status})
		c.forceClose()
		return nil
	}

	c.state = Connected
	c.connectPhase = phaseNone
	c.lastActivity = time.Now()
	c.pingOutstand = 0
	c.emit(Event{Type: EventConnect, ConnectStatus: Accepted})
	return nil
}

// handlePublish answers an inbound PUBLISH per its QoS (spec.md §4.6) and
// delivers EventPublishReceived exactly once, regardless of QoS.
func (c *Client) handlePublish(hdrByte byte, body []byte) error {
	var p packet.Publish
	fullHeader := reconstituteHeader(hdrByte, body)
	if _, err := p.Decode(fullHeader); err != nil {
		c.logger.Printf("cellmqtt: malformed PUBLISH: %v", err)
		return nil
	}

	c.emit(Event{
		Type:    EventPublishReceived,
		Topic:   p.Topic,
		Payload: p.Payload,
		QoS:     p.QoS,
		DUP:     p.DUP,
		Retain:  p.Retain,
	})

	switch p.QoS {
	case packet.QoS0:
		return nil
	case packet.QoS1:
		ack := &packet.Puback{PacketID: p.PacketID}
		return c.sendSimple(ack)
	case packet.QoS2:
		ack := &packet.Pubrec{PacketID: p.PacketID}
		return c.sendSimple(ack)
	}
	return nil
}

func (c *Client) handlePuback(body []byte) error {
	id, ok := decodePacketID(body)
	if !ok {
		return nil
	}
	r := c.requests.getPending(int(id))
	if r == nil {
		c.logger.Printf("cellmqtt: protocol violation: PUBACK for unknown packet id %d", id)
		return nil
	}
	arg := r.arg
	c.requests.delete(r)
	c.emit(Event{Type: EventPublish, Arg: arg, Result: ResultOK})
	return nil
}

func (c *Client) handlePubrec(body []byte) error {
	id, ok := decodePacketID(body)
	if !ok {
		return nil
	}
	r := c.requests.getPending(int(id))
	if r == nil {
		c.logger.Printf("cellmqtt: protocol violation: PUBREC for unknown packet id %d", id)
		return nil
	}
	// Still pending: the QoS2 handshake continues with PUBREL, the
	// request only resolves on PUBCOMP.
	rel := &packet.Pubrel{PacketID: id}
	return c.sendSimple(rel)
}

func (c *Client) handlePubrel(body []byte) error {
	id, ok := decodePacketID(body)
	if !ok {
		return nil
	}
	comp := &packet.Pubcomp{PacketID: id}
	return c.sendSimple(comp)
}

func (c *Client) handlePubcomp(body []byte) error {
	id, ok := decodePacketID(body)
	if !ok {
		return nil
	}
	r := c.requests.getPending(int(id))
	if r == nil {
		c.logger.Printf("cellmqtt: protocol violation: PUBCOMP for unknown packet id %d", id)
		return nil
	}
	arg := r.arg
	c.requests.delete(r)
	c.emit(Event{Type: EventPublish, Arg: arg, Result: ResultOK})
	return nil
}

func (c *Client) handleSuback(body []byte) error {
	var ack packet.Suback
	full := reconstituteHeader(byte(packet.SUBACK)<<4, body)
	if _, err := ack.Decode(full); err != nil {
		c.logger.Printf("cellmqtt: malformed SUBACK: %v", err)
		return nil
	}
	r := c.requests.getPending(int(ack.PacketID))
	if r == nil || !r.isSub() {
		c.logger.Printf("cellmqtt: protocol violation: SUBACK for unknown packet id %d", ack.PacketID)
		return nil
	}
	arg := r.arg
	c.requests.delete(r)
	result := ResultOK
	if ack.ReturnCode == packet.SubackFailure {
		result = ResultErr
	}
	c.emit(Event{Type: EventSubscribe, Arg: arg, Result: result})
	return nil
}

func (c *Client) handleUnsuback(body []byte) error {
	id, ok := decodePacketID(body)
	if !ok {
		return nil
	}
	r := c.requests.getPending(int(id))
	if r == nil || !r.isUnsub() {
		c.logger.Printf("cellmqtt: protocol violation: UNSUBACK for unknown packet id %d", id)
		return nil
	}
	arg := r.arg
	c.requests.delete(r)
	c.emit(Event{Type: EventUnsubscribe, Arg: arg, Result: ResultOK})
	return nil
}

// sendSimple encodes and stages a small reply packet (PUBACK/PUBREC/
// PUBREL/PUBCOMP), logging rather than failing the whole dispatch if the
// TX ring has no room — spec.md §4.5 treats a congested reply path as a
// recoverable warning, not a protocol violation.
func (c *Client) sendSimple(p packet.Packet) error {
	buf := make([]byte, p.Len())
	n, err := p.Encode(buf)
	if err != nil {
		return err
	}
	if err := c.stageAndFlush(buf[:n]); err != nil {
		c.logger.Printf("cellmqtt: could not stage %s: %v", p, err)
	}
	return nil
}

// decodePacketID reads the two-byte packet id variable header shared by
// PUBACK/PUBREC/PUBREL/PUBCOMP/UNSUBACK bodies.
func decodePacketID(body []byte) (uint16, bool) {
	if len(body) < 2 {
		return 0, false
	}
	return uint16(body[0])<<8 | uint16(body[1]), true
}

// reconstituteHeader rebuilds a full wire-format packet (fixed header +
// body) from the hdrByte/body pair Stream.Feed hands the dispatcher, so
// a packet.Packet's ordinary Decode can run on it unchanged.
func reconstituteHeader(hdrByte byte, body []byte) []byte {
	rl := len(body)
	header := make([]byte, 0, 5+rl)
	header = append(header, hdrByte)
	for {
		b := byte(rl & 0x7f)
		rl >>= 7
		if rl > 0 {
			b |= 0x80
		}
		header = append(header, b)
		if rl == 0 {
			break
		}
	}
	return append(header, body...)
}
