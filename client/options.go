package client

import "github.com/breezeiot/cellmqtt/packet"

// Options is spec.md's ClientInfo: borrowed for the lifetime of a
// connection, never copied (Connect stores the pointer, per spec.md §6).
type Options struct {
	ClientID string

	HasUsername bool
	Username    string
	HasPassword bool
	Password    string

	Will *packet.Will

	// KeepAlive is the keep-alive interval in seconds; 0 disables it.
	KeepAlive uint16

	// PingTimeout, if non-zero, closes the connection after this many
	// consecutive PINGREQs go unanswered. spec.md §4.7/§9 leaves
	// PINGRESP-miss detection as an optional MAY that must be
	// documented if added; SPEC_FULL.md §4.5 wires it in as an
	// off-by-default watchdog sourced from the original C
	// implementation's connection-liveness counter.
	PingTimeout int
}

// NewOptions returns Options for clientID with clean-session semantics
// (the only session mode this engine supports) and no will, auth, or
// keep-alive.
func NewOptions(clientID string) *Options {
	return &Options{ClientID: clientID}
}

// WithAuth sets a username and password.
func (o *Options) WithAuth(username, password string) *Options {
	o.HasUsername = true
	o.Username = username
	o.HasPassword = true
	o.Password = password
	return o
}

// WithWill sets a last-will message.
func (o *Options) WithWill(w *packet.Will) *Options {
	o.Will = w
	return o
}

// WithKeepAlive sets the keep-alive interval in seconds.
func (o *Options) WithKeepAlive(seconds uint16) *Options {
	o.KeepAlive = seconds
	return o
}

// WithPingTimeout enables the keep-alive watchdog, closing the connection
// after this many consecutive PINGREQs go unanswered.
func (o *Options) WithPingTimeout(n int) *Options {
	o.PingTimeout = n
	return o
}
