package network

import (
	"context"
	"errors"
	"sync/atomic"

	"gopkg.in/op/go-logging.v1"

	"github.com/ZentaChain/chatrelay/pkg/identity"
	"github.com/ZentaChain/chatrelay/pkg/protocol"
	"github.com/ZentaChain/chatrelay/pkg/registry"
)

// MaxUsernameLength is the longest username accepted, in bytes
const MaxUsernameLength = 32

// routeStats are the router's share of the relay statistics
type routeStats struct {
	relayed atomic.Uint64
	dropped atomic.Uint64
	claimed atomic.Uint64
}

// Router resolves destinations against the registry and decides whether a
// packet is answered, forwarded or rejected.
//
// The router never writes to a stream. Replies go into the sender's own
// mailbox and forwards into the recipient's, so a dispatch never holds any
// connection state besides the caller's.
type Router struct {
	registry *registry.Registry
	log      *logging.Logger
	stats    routeStats
}

// NewRouter creates a router over reg
func NewRouter(reg *registry.Registry, log *logging.Logger) *Router {
	return &Router{
		registry: reg,
		log:      log,
	}
}

// Dispatch handles one decoded packet from sender
func (r *Router) Dispatch(ctx context.Context, sender *registry.Endpoint, p protocol.Packet) {
	switch pkt := p.(type) {
	case *protocol.NameRequest:
		r.handleNameRequest(ctx, sender, pkt)

	case *protocol.Handshake:
		r.handleHandshake(ctx, sender, pkt)

	case *protocol.Message:
		r.handleMessage(ctx, sender, pkt)

	default:
		r.log.Warningf("Ignoring %s from %s after assignment", protocol.TypeName(p.Type()), sender.ID())
		r.drop(dropUnexpected)
	}
}

func (r *Router) handleNameRequest(ctx context.Context, sender *registry.Endpoint, req *protocol.NameRequest) {
	name := req.Content

	var resp *protocol.NameResponse
	if reason, ok := validUsername(name); !ok {
		r.log.Debugf("Rejecting name %q from %s: %s", name, sender.ID(), reason)
		resp = protocol.NameFailed(protocol.ReasonInvalidName)
	} else {
		err := r.registry.Claim(name, sender.ID())
		switch {
		case err == nil:
			r.log.Infof("✅ %s claimed name %q", sender.ID(), name)
			r.stats.claimed.Add(1)
			namesClaimed.Inc()
			resp = protocol.NameSucceeded()
		case errors.Is(err, registry.ErrNameTaken):
			resp = protocol.NameFailed(protocol.ReasonNameTaken)
		case errors.Is(err, registry.ErrUnknownID):
			resp = protocol.NameFailed(protocol.ReasonUnknownID)
		default:
			r.log.Errorf("Claim %q for %s: %v", name, sender.ID(), err)
			resp = protocol.NameFailed(protocol.ReasonServerError)
		}
	}

	r.reply(ctx, sender, resp)
}

func (r *Router) handleHandshake(ctx context.Context, sender *registry.Endpoint, hs *protocol.Handshake) {
	dst := hs.Dst

	target, err := r.registry.Resolve(dst)
	if err != nil {
		r.notFound(ctx, sender, dst)
		return
	}

	fwd := *hs
	fwd.Dst = ""
	fwd.Src = r.sourceOf(sender)

	r.forward(ctx, sender, target, dst, &fwd)
}

func (r *Router) handleMessage(ctx context.Context, sender *registry.Endpoint, msg *protocol.Message) {
	dst := msg.Receiver

	target, err := r.registry.Resolve(dst)
	if err != nil {
		r.notFound(ctx, sender, dst)
		return
	}

	fwd := *msg
	fwd.Sender = sender.ID()
	fwd.Receiver = target.ID()

	r.forward(ctx, sender, target, dst, &fwd)
}

// forward queues p for target. A target that closed after Resolve is
// reported to the sender as not found; a full mailbox is only logged.
func (r *Router) forward(ctx context.Context, sender, target *registry.Endpoint, dst string, p protocol.Packet) {
	err := target.Send(ctx, p)
	switch {
	case err == nil:
		r.stats.relayed.Add(1)
		packetsRelayed.WithLabelValues(protocol.TypeName(p.Type())).Inc()
		r.log.Debugf("Relayed %s %s -> %s", protocol.TypeName(p.Type()), sender.ID(), target.ID())
	case errors.Is(err, registry.ErrEndpointClosed):
		r.notFound(ctx, sender, dst)
	default:
		r.log.Warningf("Dropping %s %s -> %s: %v", protocol.TypeName(p.Type()), sender.ID(), target.ID(), err)
		r.drop(dropMailbox)
	}
}

func (r *Router) notFound(ctx context.Context, sender *registry.Endpoint, dst string) {
	r.log.Debugf("%s: destination %q not found", sender.ID(), dst)
	r.reply(ctx, sender, &protocol.Handshake{
		Status: protocol.HandshakeNotFound,
		Dst:    dst,
	})
}

func (r *Router) reply(ctx context.Context, sender *registry.Endpoint, p protocol.Packet) {
	if err := sender.Send(ctx, p); err != nil {
		r.log.Warningf("Reply %s to %s failed: %v", protocol.TypeName(p.Type()), sender.ID(), err)
		r.drop(dropMailbox)
	}
}

func (r *Router) sourceOf(sender *registry.Endpoint) protocol.User {
	name, _ := r.registry.Username(sender.ID())
	return protocol.User{ID: sender.ID(), Name: name}
}

func (r *Router) drop(reason string) {
	r.stats.dropped.Add(1)
	packetsDropped.WithLabelValues(reason).Inc()
}

// validUsername rejects names that are empty, too long or shaped like an
// identifier
func validUsername(name string) (string, bool) {
	switch {
	case name == "":
		return "empty", false
	case len(name) > MaxUsernameLength:
		return "too long", false
	case identity.IsIdentifier(name):
		return "looks like an identifier", false
	}
	return "", true
}
