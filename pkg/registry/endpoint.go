package registry

import (
	"context"
	"sync"
	"time"

	"github.com/ZentaChain/chatrelay/pkg/crypto"
	"github.com/ZentaChain/chatrelay/pkg/protocol"
)

// Endpoint is the registry's handle on a live connection.
//
// Other connections never touch the stream directly: they Send packets into
// the endpoint's mailbox, and the owning connection's writer is the only
// reader of that mailbox and the only writer of the stream. No goroutine ever
// holds more than one connection's state at a time.
type Endpoint struct {
	id          string
	remote      string
	session     *crypto.Session
	mailbox     chan protocol.Packet
	sendTimeout time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewEndpoint creates an endpoint with a bounded mailbox. Send waits up to
// sendTimeout for mailbox space; sendTimeout <= 0 makes Send non-blocking.
func NewEndpoint(remote string, session *crypto.Session, mailboxSize int, sendTimeout time.Duration) *Endpoint {
	if mailboxSize <= 0 {
		mailboxSize = 1
	}
	return &Endpoint{
		remote:      remote,
		session:     session,
		mailbox:     make(chan protocol.Packet, mailboxSize),
		sendTimeout: sendTimeout,
		done:        make(chan struct{}),
	}
}

// ID returns the identifier assigned by Register, empty before that
func (e *Endpoint) ID() string {
	return e.id
}

// Remote returns the peer address for logging
func (e *Endpoint) Remote() string {
	return e.remote
}

// Session returns the connection's symmetric session
func (e *Endpoint) Session() *crypto.Session {
	return e.session
}

// Send queues a packet for the owning connection's writer
func (e *Endpoint) Send(ctx context.Context, p protocol.Packet) error {
	select {
	case <-e.done:
		return ErrEndpointClosed
	default:
	}

	if e.sendTimeout <= 0 {
		select {
		case e.mailbox <- p:
			return nil
		case <-e.done:
			return ErrEndpointClosed
		default:
			return ErrMailboxFull
		}
	}

	timer := time.NewTimer(e.sendTimeout)
	defer timer.Stop()

	select {
	case e.mailbox <- p:
		return nil
	case <-e.done:
		return ErrEndpointClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrMailboxFull
	}
}

// Mailbox is drained by the owning connection's writer only
func (e *Endpoint) Mailbox() <-chan protocol.Packet {
	return e.mailbox
}

// Done is closed once the endpoint is closed
func (e *Endpoint) Done() <-chan struct{} {
	return e.done
}

// Close marks the endpoint dead. Queued packets are abandoned.
func (e *Endpoint) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}

// Closed reports whether Close has been called
func (e *Endpoint) Closed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}
