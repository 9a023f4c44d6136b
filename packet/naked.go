package packet

import "fmt"

// naked packets carry no variable header and no payload: PINGREQ,
// PINGRESP and DISCONNECT. They're always exactly two bytes on the wire
// (type/flags byte + a single 0x00 remaining-length byte).

func nakedPacketLen() int {
	return headerLen(0)
}

func nakedPacketEncode(dst []byte, t Type) (int, error) {
	return headerEncode(dst, 0, 0, nakedPacketLen(), t)
}

func nakedPacketDecode(src []byte, t Type) (int, error) {
	n, _, rl, err := headerDecode(src, t)
	if err != nil {
		return n, err
	}
	if rl != 0 {
		return n, fmt.Errorf("packet: [%s] expected zero remaining length, got %d", t, rl)
	}
	return n, nil
}

// Pingreq is sent by the client to keep the session alive and request a
// PINGRESP; it carries no payload.
type Pingreq struct{}

func (p *Pingreq) Type() Type                         { return PINGREQ }
func (p *Pingreq) Len() int                           { return nakedPacketLen() }
func (p *Pingreq) Encode(dst []byte) (int, error)     { return nakedPacketEncode(dst, PINGREQ) }
func (p *Pingreq) Decode(src []byte) (int, error)     { return nakedPacketDecode(src, PINGREQ) }
func (p *Pingreq) String() string                     { return fmt.Sprintf("<%sPacket>", PINGREQ) }

// Pingresp answers a Pingreq.
type Pingresp struct{}

func (p *Pingresp) Type() Type                     { return PINGRESP }
func (p *Pingresp) Len() int                       { return nakedPacketLen() }
func (p *Pingresp) Encode(dst []byte) (int, error) { return nakedPacketEncode(dst, PINGRESP) }
func (p *Pingresp) Decode(src []byte) (int, error) { return nakedPacketDecode(src, PINGRESP) }
func (p *Pingresp) String() string                 { return fmt.Sprintf("<%sPacket>", PINGRESP) }

// Disconnect tells the broker the client is closing the connection
// cleanly (no will message should be sent).
type Disconnect struct{}

func (p *Disconnect) Type() Type                     { return DISCONNECT }
func (p *Disconnect) Len() int                       { return nakedPacketLen() }
func (p *Disconnect) Encode(dst []byte) (int, error) { return nakedPacketEncode(dst, DISCONNECT) }
func (p *Disconnect) Decode(src []byte) (int, error) { return nakedPacketDecode(src, DISCONNECT) }
func (p *Disconnect) String() string                 { return fmt.Sprintf("<%sPacket>", DISCONNECT) }
