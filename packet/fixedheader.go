package packet

import "fmt"

// headerLen returns the total fixed-header length (type/flags byte plus
// the remaining-length varint) for a packet whose remaining length is rl.
func headerLen(rl int) int {
	return 1 + varintLen(rl)
}

// headerEncode writes the fixed header (type+flags byte, remaining-length
// varint) for packet type t into dst, which must be at least tl bytes
// long in total (tl is the full encoded packet length, used only to
// produce a precise error before any bytes are written). flags is ORed
// onto the type's default flags, used by PUBLISH to carry DUP/QoS/RETAIN.
func headerEncode(dst []byte, flags byte, rl int, tl int, t Type) (int, error) {
	if len(dst) < tl {
		return 0, fmt.Errorf("packet: [%s] insufficient buffer size, expected %d, got %d", t, tl, len(dst))
	}

	hl := headerLen(rl)
	if len(dst) < hl {
		return 0, fmt.Errorf("packet: [%s] insufficient buffer size, expected %d, got %d", t, hl, len(dst))
	}

	dst[0] = byte(t)<<4 | (t.defaultFlags() & 0x0f) | flags
	n, err := encodeVarint(dst[1:], rl)
	if err != nil {
		return 0, fmt.Errorf("packet: [%s] %w", t, err)
	}
	return 1 + n, nil
}

// headerDecode reads and validates the fixed header for the expected
// packet type t from the start of src. It returns the number of bytes
// consumed, the flag nibble, and the decoded remaining length.
func headerDecode(src []byte, t Type) (n int, flags byte, rl int, err error) {
	if len(src) < 2 {
		return 0, 0, 0, fmt.Errorf("packet: [%s] insufficient buffer size, expected %d, got %d", t, 2, len(src))
	}

	decodedType := Type(src[0] >> 4)
	flags = src[0] & 0x0f
	n = 1

	if decodedType != t {
		return n, 0, 0, fmt.Errorf("packet: [%s] invalid type %d", t, decodedType)
	}
	if t != PUBLISH && flags != t.defaultFlags() {
		return n, 0, 0, fmt.Errorf("packet: [%s] invalid flags, expected %d, got %d", t, t.defaultFlags(), flags)
	}

	rl, m, err := decodeVarint(src[n:])
	if err != nil {
		return n, 0, 0, fmt.Errorf("packet: [%s] %w", t, err)
	}
	n += m

	if rl > len(src[n:]) {
		return n, 0, 0, fmt.Errorf("packet: [%s] remaining length (%d) is greater than remaining buffer (%d)", t, rl, len(src[n:]))
	}

	return n, flags, rl, nil
}
