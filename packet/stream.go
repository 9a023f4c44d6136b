package packet

import "fmt"

// parserState is the streaming parser's FSM state (spec.md §3, §4.3).
type parserState int

const (
	stateInit parserState = iota
	stateCalcRemLen
	stateReadRem
)

// Dispatcher receives a fully reassembled control packet. hdrByte is the
// original fixed-header first byte (type+flags); body is the packet's
// variable header and payload (length rl, the decoded remaining length).
//
// body is only valid for the duration of the call: on the zero-copy
// inline-dispatch path (§4.3) it is a slice of the caller's input chunk,
// rebound back before Feed returns. Implementations must not retain it.
type Dispatcher func(hdrByte byte, body []byte) error

// Stream reassembles whole MQTT control packets out of arbitrarily
// fragmented byte chunks, named and shaped after the teacher's
// packet.NewStream(reader, writer) pairing (see websocket_conn.go) but
// driven by Feed rather than an io.Reader, since the transport this
// engine targets delivers bytes through callbacks, not blocking reads.
//
// A Stream is not safe for concurrent use; callers serialize access to
// it under the same lock the session state machine itself runs under
// (spec.md §5).
type Stream struct {
	state parserState

	hdrByte    byte
	remLen     int
	multiplier int

	scratch    []byte
	scratchCap int
	pos        int

	dispatch Dispatcher
}

// NewStream creates a Stream whose reassembly buffer holds at most
// scratchCap bytes; packets that must be reassembled across chunks and
// whose remaining length exceeds that are discarded (spec.md §4.3's
// "packet discarded — too big"). A packet that arrives whole inside one
// chunk takes the zero-copy path and is dispatched whatever its size.
// dispatch is invoked once per complete packet.
func NewStream(scratchCap int, dispatch Dispatcher) *Stream {
	return &Stream{
		scratch:    make([]byte, scratchCap),
		scratchCap: scratchCap,
		dispatch:   dispatch,
	}
}

// Feed processes one transport chunk, dispatching as many complete
// packets as it contains and carrying any partial packet's state over
// to the next call. It is re-entrant across calls by design: all FSM
// state lives in the Stream, not on the call stack.
func (s *Stream) Feed(chunk []byte) error {
	idx := 0
	for idx < len(chunk) {
		switch s.state {
		case stateInit:
			s.hdrByte = chunk[idx]
			s.remLen = 0
			s.multiplier = 0
			s.pos = 0
			idx++
			s.state = stateCalcRemLen

		case stateCalcRemLen:
			if s.multiplier >= maxVarintBytes {
				return fmt.Errorf("packet: remaining length varint longer than %d bytes", maxVarintBytes)
			}
			b := chunk[idx]
			s.remLen |= int(b&0x7f) << (7 * s.multiplier)
			s.multiplier++
			idx++

			if b&0x80 != 0 {
				// more varint bytes to come
				continue
			}

			// terminal byte: remaining length is known.
			if s.remLen == 0 {
				if err := s.dispatch(s.hdrByte, nil); err != nil {
					return err
				}
				s.state = stateInit
				continue
			}

			chunkRemaining := len(chunk) - idx
			if chunkRemaining >= s.remLen {
				// zero-copy fast path: the whole body is already in
				// this chunk, past idx.
				body := chunk[idx : idx+s.remLen]
				if err := s.dispatch(s.hdrByte, body); err != nil {
					return err
				}
				idx += s.remLen
				s.state = stateInit
				continue
			}

			s.state = stateReadRem

		case stateReadRem:
			// pos counts logical bytes of the body consumed so far
			// (up to remLen), independent of how much of that actually
			// fits in scratch — a too-big packet still has to be
			// fully drained from the transport before returning to
			// INIT, it just won't be dispatched.
			avail := len(chunk) - idx
			need := s.remLen - s.pos
			take := avail
			if take > need {
				take = need
			}

			if s.pos < s.scratchCap {
				room := s.scratchCap - s.pos
				storeN := take
				if storeN > room {
					storeN = room
				}
				copy(s.scratch[s.pos:s.pos+storeN], chunk[idx:idx+storeN])
			}

			s.pos += take
			idx += take

			if s.pos != s.remLen {
				// chunk exhausted, still short of remLen; wait for more.
				return nil
			}

			if s.remLen <= s.scratchCap {
				if err := s.dispatch(s.hdrByte, s.scratch[:s.remLen]); err != nil {
					return err
				}
			}
			// else: packet discarded, too big for the scratch buffer.
			// The caller's Logger (wired in by client.Client) is
			// responsible for surfacing this; Stream itself only
			// tracks the FSM.
			s.state = stateInit
		}
	}
	return nil
}

// TooBig reports whether the in-flight packet (if any) exceeds the
// scratch buffer capacity and will be silently discarded once fully
// received. Exposed so callers can log the spec's "packet discarded —
// too big" warning. It stays true after every Feed call that ends partway
// through the oversized packet, so a caller checking it after each Feed
// sees it once per such call; after the Feed that completes the packet
// it is false again.
func (s *Stream) TooBig() bool {
	return s.state == stateReadRem && s.remLen > s.scratchCap
}
