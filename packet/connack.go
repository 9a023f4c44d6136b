package packet

import "fmt"

// Connack is the broker's reply to a CONNECT.
type Connack struct {
	SessionPresent bool
	ReturnCode     ConnackCode
}

func (c *Connack) Type() Type { return CONNACK }
func (c *Connack) Len() int   { return headerLen(2) + 2 }

func (c *Connack) Encode(dst []byte) (int, error) {
	n, err := headerEncode(dst, 0, 2, c.Len(), CONNACK)
	if err != nil {
		return 0, err
	}
	var ackFlags byte
	if c.SessionPresent {
		ackFlags = 1
	}
	dst[n] = ackFlags
	dst[n+1] = byte(c.ReturnCode)
	return n + 2, nil
}

func (c *Connack) Decode(src []byte) (int, error) {
	n, _, rl, err := headerDecode(src, CONNACK)
	if err != nil {
		return n, err
	}
	if rl != 2 {
		return n, fmt.Errorf("packet: [Connack] expected remaining length 2, got %d", rl)
	}
	c.SessionPresent = src[n]&0x01 != 0
	c.ReturnCode = ConnackCode(src[n+1])
	return n + 2, nil
}

func (c *Connack) String() string {
	return fmt.Sprintf("<ConnackPacket SessionPresent=%v ReturnCode=%s>", c.SessionPresent, c.ReturnCode)
}
