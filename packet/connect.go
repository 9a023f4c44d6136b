package packet

import "fmt"

// Will is the message a broker publishes on the client's behalf if the
// client disconnects uncleanly.
type Will struct {
	Topic   string
	Message []byte
	QoS     QoS
	Retain  bool
}

// Connect is the first packet a client sends after opening the transport.
type Connect struct {
	ClientID     string
	Username     string
	Password     string
	HasUsername  bool
	HasPassword  bool
	Will         *Will
	CleanSession bool
	KeepAlive    uint16
}

func (c *Connect) Type() Type { return CONNECT }

func (c *Connect) flags() byte {
	var f byte
	if c.HasUsername {
		f |= 1 << 7
	}
	if c.HasPassword {
		f |= 1 << 6
	}
	if c.Will != nil {
		if c.Will.Retain {
			f |= 1 << 5
		}
		f |= byte(c.Will.QoS.Clamp()) << 3
		f |= 1 << 2
	}
	if c.CleanSession {
		f |= 1 << 1
	}
	return f
}

func (c *Connect) variableHeaderLen() int {
	return stringLen(protocolName) + 1 /* level */ + 1 /* flags */ + 2 /* keep alive */
}

func (c *Connect) payloadLen() int {
	n := stringLen(c.ClientID)
	if c.Will != nil {
		n += stringLen(c.Will.Topic)
		n += 2 + len(c.Will.Message)
	}
	if c.HasUsername {
		n += stringLen(c.Username)
	}
	if c.HasPassword {
		n += stringLen(c.Password)
	}
	return n
}

func (c *Connect) remainingLen() int {
	return c.variableHeaderLen() + c.payloadLen()
}

func (c *Connect) Len() int {
	rl := c.remainingLen()
	return headerLen(rl) + rl
}

func (c *Connect) Encode(dst []byte) (int, error) {
	if c.ClientID == "" {
		return 0, fmt.Errorf("packet: [Connect] client id must not be empty")
	}

	rl := c.remainingLen()
	tl := headerLen(rl) + rl
	n, err := headerEncode(dst, 0, rl, tl, CONNECT)
	if err != nil {
		return 0, err
	}

	sn, err := encodeString(dst[n:], protocolName)
	if err != nil {
		return 0, err
	}
	n += sn
	dst[n] = protocolLevel
	n++
	dst[n] = c.flags()
	n++
	encodeUint16(dst[n:], c.KeepAlive)
	n += 2

	sn, err = encodeString(dst[n:], c.ClientID)
	if err != nil {
		return 0, err
	}
	n += sn

	if c.Will != nil {
		sn, err = encodeString(dst[n:], c.Will.Topic)
		if err != nil {
			return 0, err
		}
		n += sn
		encodeUint16(dst[n:], uint16(len(c.Will.Message)))
		n += 2
		n += copy(dst[n:], c.Will.Message)
	}

	if c.HasUsername {
		sn, err = encodeString(dst[n:], c.Username)
		if err != nil {
			return 0, err
		}
		n += sn
	}
	if c.HasPassword {
		sn, err = encodeString(dst[n:], c.Password)
		if err != nil {
			return 0, err
		}
		n += sn
	}

	return n, nil
}

func (c *Connect) Decode(src []byte) (int, error) {
	n, _, rl, err := headerDecode(src, CONNECT)
	if err != nil {
		return n, err
	}
	body := src[n : n+rl]
	pos := 0

	name, sn, err := decodeString(body[pos:])
	if err != nil {
		return n, err
	}
	pos += sn
	if name != protocolName {
		return n, fmt.Errorf("packet: [Connect] invalid protocol name %q", name)
	}

	if len(body[pos:]) < 2 {
		return n, fmt.Errorf("packet: [Connect] truncated level/flags")
	}
	level := body[pos]
	flags := body[pos+1]
	pos += 2
	if level != protocolLevel {
		return n, fmt.Errorf("packet: [Connect] unsupported protocol level %d", level)
	}

	kl, err := decodeUint16(body[pos:])
	if err != nil {
		return n, err
	}
	pos += 2
	c.KeepAlive = kl

	c.HasUsername = flags&(1<<7) != 0
	c.HasPassword = flags&(1<<6) != 0
	hasWill := flags&(1<<2) != 0
	willQoS := QoS((flags >> 3) & 0x03)
	willRetain := flags&(1<<5) != 0
	c.CleanSession = flags&(1<<1) != 0

	cid, sn, err := decodeString(body[pos:])
	if err != nil {
		return n, err
	}
	pos += sn
	c.ClientID = cid

	if hasWill {
		topic, sn, err := decodeString(body[pos:])
		if err != nil {
			return n, err
		}
		pos += sn
		ml, err := decodeUint16(body[pos:])
		if err != nil {
			return n, err
		}
		pos += 2
		if len(body[pos:]) < int(ml) {
			return n, fmt.Errorf("packet: [Connect] truncated will message")
		}
		msg := make([]byte, ml)
		copy(msg, body[pos:pos+int(ml)])
		pos += int(ml)
		c.Will = &Will{Topic: topic, Message: msg, QoS: willQoS, Retain: willRetain}
	} else {
		c.Will = nil
	}

	if c.HasUsername {
		u, sn, err := decodeString(body[pos:])
		if err != nil {
			return n, err
		}
		pos += sn
		c.Username = u
	}
	if c.HasPassword {
		p, sn, err := decodeString(body[pos:])
		if err != nil {
			return n, err
		}
		pos += sn
		c.Password = p
	}

	return n + rl, nil
}

func (c *Connect) String() string {
	return fmt.Sprintf("<ConnectPacket ClientID=%q KeepAlive=%d CleanSession=%v>", c.ClientID, c.KeepAlive, c.CleanSession)
}
