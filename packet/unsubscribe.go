package packet

import "fmt"

// Unsubscribe requests removal of a topic subscription. Like Subscribe,
// client.Client only ever builds single-topic packets; Filters holds any
// extra filters seen when decoding a peer's multi-filter packet.
type Unsubscribe struct {
	PacketID uint16
	Topic    string
	Filters  []string
}

func (u *Unsubscribe) Type() Type { return UNSUBSCRIBE }

func (u *Unsubscribe) remainingLen() int {
	n := 2 + stringLen(u.Topic)
	for _, f := range u.Filters {
		n += stringLen(f)
	}
	return n
}

func (u *Unsubscribe) Len() int {
	rl := u.remainingLen()
	return headerLen(rl) + rl
}

func (u *Unsubscribe) Encode(dst []byte) (int, error) {
	if u.Topic == "" {
		return 0, fmt.Errorf("packet: [Unsubscribe] topic must not be empty")
	}
	if u.PacketID == 0 {
		return 0, fmt.Errorf("packet: [Unsubscribe] packet id must not be zero")
	}

	rl := u.remainingLen()
	tl := headerLen(rl) + rl
	n, err := headerEncode(dst, 0, rl, tl, UNSUBSCRIBE)
	if err != nil {
		return 0, err
	}

	encodeUint16(dst[n:], u.PacketID)
	n += 2

	sn, err := encodeString(dst[n:], u.Topic)
	if err != nil {
		return 0, err
	}
	n += sn

	for _, f := range u.Filters {
		sn, err := encodeString(dst[n:], f)
		if err != nil {
			return 0, err
		}
		n += sn
	}

	return n, nil
}

func (u *Unsubscribe) Decode(src []byte) (int, error) {
	n, _, rl, err := headerDecode(src, UNSUBSCRIBE)
	if err != nil {
		return n, err
	}
	body := src[n : n+rl]
	pos := 0

	id, err := decodeUint16(body[pos:])
	if err != nil {
		return n, err
	}
	if id == 0 {
		return n, fmt.Errorf("packet: [Unsubscribe] packet id must not be zero")
	}
	u.PacketID = id
	pos += 2

	first := true
	u.Filters = nil
	for pos < len(body) {
		topic, sn, err := decodeString(body[pos:])
		if err != nil {
			return n, err
		}
		pos += sn
		if first {
			u.Topic = topic
			first = false
		} else {
			u.Filters = append(u.Filters, topic)
		}
	}
	if first {
		return n, fmt.Errorf("packet: [Unsubscribe] must contain at least one topic filter")
	}

	return n + rl, nil
}

func (u *Unsubscribe) String() string {
	return fmt.Sprintf("<UnsubscribePacket PacketID=%d Topic=%q>", u.PacketID, u.Topic)
}
