// Package transport provides the byte-oriented, event-driven transports
// cellmqtt's session engine (package client) is built against. The core
// imports this package only for the small Transport and Sink interfaces
// defined here (spec.md §1 scopes the transport out as an external
// collaborator): client.Client consumes a Transport and implements Sink,
// and never opens a connection itself.
package transport

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrNotStarted is returned by Send when no connection has been
// established yet.
var ErrNotStarted = errors.New("transport: not started")

// runConcurrent launches fns as a group of goroutines whose lifetimes are
// tied together, the way PiotrWarzachowski-go-instagram-cli and
// alibo-simple-mqtt-network-lab use golang.org/x/sync/errgroup to fan out
// per-connection workers. TCPTransport and WebSocketTransport use it to
// start their read loop and poll loop as one unit per connection; neither
// loop returns an error worth propagating (both run until stopCh closes),
// so the group is fired and forgotten rather than waited on.
func runConcurrent(fns ...func() error) {
	var g errgroup.Group
	for _, fn := range fns {
		g.Go(fn)
	}
}

// Transport is the minimal surface spec.md §1 asks the core to consume:
// "start TCP", "send bytes (non-blocking)", "acknowledge received
// bytes", "close". Implementations deliver events to a Sink rather than
// returning them, matching spec.md §5's contract that the transport
// calls back into the core while already holding the core lock — here,
// that means every Sink method takes client.Client's own lock itself,
// so Transport implementations may call Sink methods from any goroutine
// (TCPTransport calls them from its read loop, its poll loop and one
// goroutine per Send).
type Transport interface {
	// StartTCP begins connecting to host:port. The outcome is reported
	// asynchronously via Sink.OnConnected or Sink.OnConnectError.
	StartTCP(host string, port int) error

	// Send stages p for transmission. It must not block; completion
	// (success or failure) is reported via Sink.OnSendComplete. The
	// caller (client.Client) guarantees at most one Send is outstanding
	// at a time (spec.md §5's is_sending invariant).
	Send(p []byte) error

	// AckReceived tells the transport that n bytes of previously
	// delivered data have been consumed and its buffer may be reused.
	// TCPTransport ignores this (net.Conn has no such buffer to
	// reclaim); it exists so transports that stage received bytes in a
	// fixed-size buffer (e.g. a cellular modem's URC buffer) have a
	// place to hook flow control.
	AckReceived(n int)

	// Close tears the transport down. Sink.OnClosed fires once the
	// teardown completes.
	Close() error

	// Poll drives the periodic tick the keep-alive scheduler (C7)
	// piggybacks on. TCPTransport and WebSocketTransport tick
	// Sink.OnPoll from an internal time.Ticker once connected and
	// implement Poll as a no-op.
	Poll()
}

// Sink receives transport events. client.Client implements Sink; each
// method acquires client.Client's core lock before doing any work,
// fulfilling spec.md §5's "transport event callbacks are delivered by
// the transport layer already holding the lock" contract from the
// transport's side (the transport doesn't hold a Go mutex itself — it
// calls a method that takes one).
type Sink interface {
	OnConnected()
	OnConnectError(err error)
	OnDataReceived(chunk []byte)
	OnSendComplete(sentLen int, ok bool)
	OnPoll()
	OnClosed()
}
