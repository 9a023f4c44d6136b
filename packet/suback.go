package packet

import "fmt"

// SubackCode is the per-filter return code of a SUBACK. Values 0-2 are
// the granted QoS; 0x80 is failure.
type SubackCode byte

// SubackFailure marks a subscription the broker refused.
const SubackFailure SubackCode = 0x80

// Suback acknowledges a SUBSCRIBE. client.Client only ever sends
// single-filter SUBSCRIBE packets, so ReturnCode is the scalar result;
// ExtraCodes holds any additional per-filter codes found while decoding
// a multi-filter SUBACK from a peer.
type Suback struct {
	PacketID   uint16
	ReturnCode SubackCode
	ExtraCodes []SubackCode
}

func (s *Suback) Type() Type { return SUBACK }

func (s *Suback) remainingLen() int {
	return 2 + 1 + len(s.ExtraCodes)
}

func (s *Suback) Len() int {
	rl := s.remainingLen()
	return headerLen(rl) + rl
}

func (s *Suback) Encode(dst []byte) (int, error) {
	if s.PacketID == 0 {
		return 0, fmt.Errorf("packet: [Suback] packet id must not be zero")
	}
	rl := s.remainingLen()
	tl := headerLen(rl) + rl
	n, err := headerEncode(dst, 0, rl, tl, SUBACK)
	if err != nil {
		return 0, err
	}
	encodeUint16(dst[n:], s.PacketID)
	n += 2
	dst[n] = byte(s.ReturnCode)
	n++
	for _, c := range s.ExtraCodes {
		dst[n] = byte(c)
		n++
	}
	return n, nil
}

func (s *Suback) Decode(src []byte) (int, error) {
	n, _, rl, err := headerDecode(src, SUBACK)
	if err != nil {
		return n, err
	}
	if rl < 3 {
		return n, fmt.Errorf("packet: [Suback] expected at least 1 return code")
	}
	body := src[n : n+rl]

	id, err := decodeUint16(body)
	if err != nil {
		return n, err
	}
	if id == 0 {
		return n, fmt.Errorf("packet: [Suback] packet id must not be zero")
	}
	s.PacketID = id
	s.ReturnCode = SubackCode(body[2])
	s.ExtraCodes = nil
	for i := 3; i < len(body); i++ {
		s.ExtraCodes = append(s.ExtraCodes, SubackCode(body[i]))
	}

	return n + rl, nil
}

func (s *Suback) String() string {
	return fmt.Sprintf("<SubackPacket PacketID=%d ReturnCode=%#x>", s.PacketID, byte(s.ReturnCode))
}
