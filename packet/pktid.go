package packet

import "fmt"

// pktIDPacketLen returns the encoded length of a packet whose entire
// variable header is a 16-bit packet identifier and which carries no
// payload: PUBACK, PUBREC, PUBREL, PUBCOMP, UNSUBACK.
func pktIDPacketLen() int {
	return headerLen(2) + 2
}

func pktIDPacketEncode(dst []byte, t Type, id uint16) (int, error) {
	if id == 0 {
		return 0, fmt.Errorf("packet: [%s] packet id must not be zero", t)
	}
	n, err := headerEncode(dst, 0, 2, pktIDPacketLen(), t)
	if err != nil {
		return 0, err
	}
	encodeUint16(dst[n:], id)
	return n + 2, nil
}

func pktIDPacketDecode(src []byte, t Type) (int, uint16, error) {
	n, _, rl, err := headerDecode(src, t)
	if err != nil {
		return n, 0, err
	}
	if rl != 2 {
		return n, 0, fmt.Errorf("packet: [%s] expected remaining length 2, got %d", t, rl)
	}
	id, err := decodeUint16(src[n:])
	if err != nil {
		return n, 0, err
	}
	if id == 0 {
		return n + 2, 0, fmt.Errorf("packet: [%s] packet id must not be zero", t)
	}
	return n + 2, id, nil
}

// Puback acknowledges a QoS 1 PUBLISH.
type Puback struct{ PacketID uint16 }

func (p *Puback) Type() Type                     { return PUBACK }
func (p *Puback) Len() int                       { return pktIDPacketLen() }
func (p *Puback) Encode(dst []byte) (int, error) { return pktIDPacketEncode(dst, PUBACK, p.PacketID) }
func (p *Puback) String() string                 { return fmt.Sprintf("<PubackPacket PacketID=%d>", p.PacketID) }
func (p *Puback) Decode(src []byte) (int, error) {
	n, id, err := pktIDPacketDecode(src, PUBACK)
	p.PacketID = id
	return n, err
}

// Pubrec is the second packet of the QoS 2 handshake (PUBLISH received).
type Pubrec struct{ PacketID uint16 }

func (p *Pubrec) Type() Type                     { return PUBREC }
func (p *Pubrec) Len() int                       { return pktIDPacketLen() }
func (p *Pubrec) Encode(dst []byte) (int, error) { return pktIDPacketEncode(dst, PUBREC, p.PacketID) }
func (p *Pubrec) String() string                 { return fmt.Sprintf("<PubrecPacket PacketID=%d>", p.PacketID) }
func (p *Pubrec) Decode(src []byte) (int, error) {
	n, id, err := pktIDPacketDecode(src, PUBREC)
	p.PacketID = id
	return n, err
}

// Pubrel is the third packet of the QoS 2 handshake (PUBLISH release).
type Pubrel struct{ PacketID uint16 }

func (p *Pubrel) Type() Type                     { return PUBREL }
func (p *Pubrel) Len() int                       { return pktIDPacketLen() }
func (p *Pubrel) Encode(dst []byte) (int, error) { return pktIDPacketEncode(dst, PUBREL, p.PacketID) }
func (p *Pubrel) String() string                 { return fmt.Sprintf("<PubrelPacket PacketID=%d>", p.PacketID) }
func (p *Pubrel) Decode(src []byte) (int, error) {
	n, id, err := pktIDPacketDecode(src, PUBREL)
	p.PacketID = id
	return n, err
}

// Pubcomp completes the QoS 2 handshake.
type Pubcomp struct{ PacketID uint16 }

func (p *Pubcomp) Type() Type                     { return PUBCOMP }
func (p *Pubcomp) Len() int                       { return pktIDPacketLen() }
func (p *Pubcomp) Encode(dst []byte) (int, error) { return pktIDPacketEncode(dst, PUBCOMP, p.PacketID) }
func (p *Pubcomp) String() string                 { return fmt.Sprintf("<PubcompPacket PacketID=%d>", p.PacketID) }
func (p *Pubcomp) Decode(src []byte) (int, error) {
	n, id, err := pktIDPacketDecode(src, PUBCOMP)
	p.PacketID = id
	return n, err
}

// Unsuback acknowledges an UNSUBSCRIBE.
type Unsuback struct{ PacketID uint16 }

func (p *Unsuback) Type() Type { return UNSUBACK }
func (p *Unsuback) Len() int   { return pktIDPacketLen() }
func (p *Unsuback) Encode(dst []byte) (int, error) {
	return pktIDPacketEncode(dst, UNSUBACK, p.PacketID)
}
func (p *Unsuback) String() string { return fmt.Sprintf("<UnsubackPacket PacketID=%d>", p.PacketID) }
func (p *Unsuback) Decode(src []byte) (int, error) {
	n, id, err := pktIDPacketDecode(src, UNSUBACK)
	p.PacketID = id
	return n, err
}
