package packet

import "fmt"

// Publish carries application data on a topic, with an optional packet
// identifier when QoS > 0.
type Publish struct {
	Topic    string
	PacketID uint16
	Payload  []byte
	QoS      QoS
	DUP      bool
	Retain   bool
}

func (p *Publish) Type() Type { return PUBLISH }

func (p *Publish) flags() byte {
	var f byte
	if p.DUP {
		f |= 1 << 3
	}
	f |= byte(p.QoS.Clamp()) << 1
	if p.Retain {
		f |= 1
	}
	return f
}

func (p *Publish) variableHeaderLen() int {
	n := stringLen(p.Topic)
	if p.QoS.Clamp() > QoS0 {
		n += 2
	}
	return n
}

func (p *Publish) remainingLen() int {
	return p.variableHeaderLen() + len(p.Payload)
}

func (p *Publish) Len() int {
	rl := p.remainingLen()
	return headerLen(rl) + rl
}

func (p *Publish) Encode(dst []byte) (int, error) {
	if p.Topic == "" {
		return 0, fmt.Errorf("packet: [Publish] topic must not be empty")
	}
	qos := p.QoS.Clamp()
	if qos > QoS0 && p.PacketID == 0 {
		return 0, fmt.Errorf("packet: [Publish] packet id must not be zero for QoS %d", qos)
	}

	rl := p.remainingLen()
	tl := headerLen(rl) + rl
	n, err := headerEncode(dst, p.flags(), rl, tl, PUBLISH)
	if err != nil {
		return 0, err
	}

	sn, err := encodeString(dst[n:], p.Topic)
	if err != nil {
		return 0, err
	}
	n += sn

	if qos > QoS0 {
		encodeUint16(dst[n:], p.PacketID)
		n += 2
	}

	n += copy(dst[n:], p.Payload)
	return n, nil
}

func (p *Publish) Decode(src []byte) (int, error) {
	n, flags, rl, err := headerDecode(src, PUBLISH)
	if err != nil {
		return n, err
	}
	p.DUP = flags&(1<<3) != 0
	p.QoS = QoS((flags >> 1) & 0x03)
	p.Retain = flags&1 != 0
	if !p.QoS.Valid() {
		return n, fmt.Errorf("packet: [Publish] invalid QoS %d", p.QoS)
	}

	body := src[n : n+rl]
	pos := 0

	topic, sn, err := decodeString(body[pos:])
	if err != nil {
		return n, err
	}
	pos += sn
	p.Topic = topic

	if p.QoS > QoS0 {
		id, err := decodeUint16(body[pos:])
		if err != nil {
			return n, err
		}
		if id == 0 {
			return n, fmt.Errorf("packet: [Publish] packet id must not be zero")
		}
		p.PacketID = id
		pos += 2
	} else {
		p.PacketID = 0
	}

	payload := make([]byte, len(body)-pos)
	copy(payload, body[pos:])
	p.Payload = payload

	return n + rl, nil
}

func (p *Publish) String() string {
	return fmt.Sprintf("<PublishPacket Topic=%q QoS=%d PacketID=%d Retain=%v DUP=%v PayloadLen=%d>",
		p.Topic, p.QoS, p.PacketID, p.Retain, p.DUP, len(p.Payload))
}
