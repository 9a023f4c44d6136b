package client

import "github.com/breezeiot/cellmqtt/packet"

// Publish sends topic/payload at qos. arg is echoed back unchanged on the
// EventPublish delivered once the operation completes (QoS1/2) or once
// the bytes are handed to the transport (QoS0, tracked by byte count per
// spec.md §4.4). Returns ErrClosed if not connected, ErrMem if the TX
// ring or request table has no room.
func (c *Client) Publish(topic string, payload []byte, qos packet.QoS, retain bool, arg any) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if topic == "" {
		return ErrInvalidArgument
	}
	if c.state != Connected {
		return ErrClosed
	}

	p := &packet.Publish{Topic: topic, Payload: payload, QoS: qos.Clamp(), Retain: retain}
	if p.QoS > packet.QoS0 {
		p.PacketID = c.nextPacketID()
	}

	buf := make([]byte, p.Len())
	n, err := p.Encode(buf)
	if err != nil {
		return err
	}
	if n > c.tx.FreeSpace() {
		return ErrMem
	}

	if p.QoS == packet.QoS0 {
		r := c.requests.create(0, arg)
		if r == nil {
			return ErrMem
		}
		r.expectedSentLen = c.writtenTotal + uint64(n)
		c.requests.setPending(r)
	} else {
		r := c.requests.create(p.PacketID, arg)
		if r == nil {
			return ErrMem
		}
		c.requests.setPending(r)
	}

	c.stageAndFlush(buf[:n])
	return nil
}

// Subscribe requests topic at the given QoS. arg is echoed on the
// EventSubscribe delivered with the SUBACK.
func (c *Client) Subscribe(topic string, qos packet.QoS, arg any) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if topic == "" {
		return ErrInvalidArgument
	}
	if c.state != Connected {
		return ErrClosed
	}

	s := &packet.Subscribe{Topic: topic, QoS: qos.Clamp(), PacketID: c.nextPacketID()}
	buf := make([]byte, s.Len())
	n, err := s.Encode(buf)
	if err != nil {
		return err
	}
	if n > c.tx.FreeSpace() {
		return ErrMem
	}

	r := c.requests.create(s.PacketID, arg)
	if r == nil {
		return ErrMem
	}
	r.status |= statusSubscribe
	c.requests.setPending(r)

	c.stageAndFlush(buf[:n])
	return nil
}

// Unsubscribe removes a subscription to topic. arg is echoed on the
// EventUnsubscribe delivered with the UNSUBACK.
func (c *Client) Unsubscribe(topic string, arg any) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if topic == "" {
		return ErrInvalidArgument
	}
	if c.state != Connected {
		return ErrClosed
	}

	u := &packet.Unsubscribe{Topic: topic, PacketID: c.nextPacketID()}
	buf := make([]byte, u.Len())
	n, err := u.Encode(buf)
	if err != nil {
		return err
	}
	if n > c.tx.FreeSpace() {
		return ErrMem
	}

	r := c.requests.create(u.PacketID, arg)
	if r == nil {
		return ErrMem
	}
	r.status |= statusUnsubscribe
	c.requests.setPending(r)

	c.stageAndFlush(buf[:n])
	return nil
}
