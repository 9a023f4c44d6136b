package client

import "errors"

// Error taxonomy per spec.md §7: a small, closed set of sentinels plus
// whatever error the transport's StartTCP returns, which Connect passes
// through unchanged.
var (
	// ErrGeneric is the catch-all sentinel for conditions that fit none
	// of the more specific ones. No Client method returns it; an empty
	// topic or client id is reported as ErrInvalidArgument.
	ErrGeneric = errors.New("cellmqtt: error")

	// ErrMem is returned when the TX ring lacks space for a packet, or
	// the request table is full.
	ErrMem = errors.New("cellmqtt: out of memory")

	// ErrClosed is returned when an operation requires the CONNECTED
	// state and the client isn't in it.
	ErrClosed = errors.New("cellmqtt: not connected")

	// ErrAlreadyConnecting is returned by Connect when called while a
	// connection attempt is already in progress or established.
	ErrAlreadyConnecting = errors.New("cellmqtt: already connecting or connected")

	// ErrInvalidArgument is returned for malformed call arguments (empty
	// client id, empty topic, etc).
	ErrInvalidArgument = errors.New("cellmqtt: invalid argument")
)
