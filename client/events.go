package client

import "github.com/breezeiot/cellmqtt/packet"

// EventType discriminates the Event sum type (spec.md §6, §9 "tagged
// variants"). Producers populate only the fields that belong to their
// EventType's arm; EventHandler implementations switch on Type.
type EventType int

const (
	EventConnect EventType = iota
	EventDisconnect
	EventPublish
	EventPublishReceived
	EventSubscribe
	EventUnsubscribe
	EventKeepAlive
)

func (t EventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventPublish:
		return "publish"
	case EventPublishReceived:
		return "publish_received"
	case EventSubscribe:
		return "subscribe"
	case EventUnsubscribe:
		return "unsubscribe"
	case EventKeepAlive:
		return "keep_alive"
	default:
		return "unknown"
	}
}

// ConnectStatus is the outcome reported in an EventConnect.
type ConnectStatus int

// Connect outcomes, mapping 1:1 onto the CONNACK return codes plus one
// transport-local failure spec.md's external interface names explicitly.
const (
	Accepted ConnectStatus = iota
	RefusedProtocol
	RefusedIdentifier
	RefusedServer
	RefusedUserPass
	RefusedNotAuthorized
	TCPFailed
)

func connectStatusFromConnack(code packet.ConnackCode) ConnectStatus {
	switch code {
	case packet.ConnectionAccepted:
		return Accepted
	case packet.ErrRefusedProtocol:
		return RefusedProtocol
	case packet.ErrRefusedIdentifier:
		return RefusedIdentifier
	case packet.ErrRefusedServer:
		return RefusedServer
	case packet.ErrRefusedUserPass:
		return RefusedUserPass
	case packet.ErrRefusedNotAuthorized:
		return RefusedNotAuthorized
	default:
		return RefusedServer
	}
}

// Result is the outcome of a request-table-tracked operation (publish,
// subscribe, unsubscribe).
type Result int

const (
	ResultOK Result = iota
	ResultErr
)

// Event is delivered synchronously to the user's EventHandler from
// inside the core lock (spec.md §5). Only the fields belonging to Type's
// arm are meaningful; the others are zero.
type Event struct {
	Type EventType

	// EventConnect
	ConnectStatus ConnectStatus

	// EventDisconnect
	IsAccepted bool

	// EventPublish, EventSubscribe, EventUnsubscribe
	Arg    any
	Result Result

	// EventPublishReceived
	Topic   string
	Payload []byte
	QoS     packet.QoS
	DUP     bool
	Retain  bool
}

// EventHandler receives Events. It is invoked synchronously under the
// core lock (spec.md §5): it must not block, and may only call back into
// the Client API because the lock is reentrant (see lock.go).
type EventHandler func(Event)

// Logger is the minimal sink the client logs protocol violations and
// flush warnings through. *log.Logger and github.com/charmbracelet/log's
// *log.Logger both satisfy it; client never imports a logging package
// itself (SPEC_FULL.md §3.1).
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
