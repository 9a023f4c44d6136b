package packet

import "fmt"

// Subscribe requests a topic subscription. The engine this codec serves
// (client.Client) only ever builds single-topic SUBSCRIBE packets (see
// SPEC_FULL.md §4.6), so Topic/QoS are scalar rather than a slice of
// topic filters; Decode still accepts the general multi-filter wire
// shape for interoperability with brokers that echo or proxy packets.
type Subscribe struct {
	PacketID uint16
	Topic    string
	QoS      QoS

	// Filters holds any additional topic filters found while decoding a
	// multi-filter SUBSCRIBE packet sent by a peer; empty for packets
	// this engine encodes itself.
	Filters []TopicFilter
}

// TopicFilter pairs a topic filter with its requested QoS, used for the
// filters beyond the first when decoding a multi-filter SUBSCRIBE.
type TopicFilter struct {
	Topic string
	QoS   QoS
}

func (s *Subscribe) Type() Type { return SUBSCRIBE }

func (s *Subscribe) remainingLen() int {
	n := 2 + stringLen(s.Topic) + 1
	for _, f := range s.Filters {
		n += stringLen(f.Topic) + 1
	}
	return n
}

func (s *Subscribe) Len() int {
	rl := s.remainingLen()
	return headerLen(rl) + rl
}

func (s *Subscribe) Encode(dst []byte) (int, error) {
	if s.Topic == "" {
		return 0, fmt.Errorf("packet: [Subscribe] topic must not be empty")
	}
	if s.PacketID == 0 {
		return 0, fmt.Errorf("packet: [Subscribe] packet id must not be zero")
	}

	rl := s.remainingLen()
	tl := headerLen(rl) + rl
	n, err := headerEncode(dst, 0, rl, tl, SUBSCRIBE)
	if err != nil {
		return 0, err
	}

	encodeUint16(dst[n:], s.PacketID)
	n += 2

	sn, err := encodeString(dst[n:], s.Topic)
	if err != nil {
		return 0, err
	}
	n += sn
	dst[n] = byte(s.QoS.Clamp())
	n++

	for _, f := range s.Filters {
		sn, err := encodeString(dst[n:], f.Topic)
		if err != nil {
			return 0, err
		}
		n += sn
		dst[n] = byte(f.QoS.Clamp())
		n++
	}

	return n, nil
}

func (s *Subscribe) Decode(src []byte) (int, error) {
	n, _, rl, err := headerDecode(src, SUBSCRIBE)
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
		return n, fmt.Errorf("packet: [Subscribe] packet id must not be zero")
	}
	s.PacketID = id
	pos += 2

	first := true
	s.Filters = nil
	for pos < len(body) {
		topic, sn, err := decodeString(body[pos:])
		if err != nil {
			return n, err
		}
		pos += sn
		if pos >= len(body) {
			return n, fmt.Errorf("packet: [Subscribe] truncated QoS byte")
		}
		qos := QoS(body[pos])
		pos++
		if !qos.Valid() {
			return n, fmt.Errorf("packet: [Subscribe] invalid QoS %d", qos)
		}
		if first {
			s.Topic = topic
			s.QoS = qos
			first = false
		} else {
			s.Filters = append(s.Filters, TopicFilter{Topic: topic, QoS: qos})
		}
	}
	if first {
		return n, fmt.Errorf("packet: [Subscribe] must contain at least one topic filter")
	}

	return n + rl, nil
}

func (s *Subscribe) String() string {
	return fmt.Sprintf("<SubscribePacket PacketID=%d Topic=%q QoS=%d>", s.PacketID, s.Topic, s.QoS)
}
