package network

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/ZentaChain/chatrelay/pkg/crypto"
	"github.com/ZentaChain/chatrelay/pkg/identity"
	"github.com/ZentaChain/chatrelay/pkg/protocol"
	"github.com/ZentaChain/chatrelay/pkg/registry"
)

// assign waits for an AssignRequest, registers a fresh identifier and writes
// the RSA encrypted Assign. Anything else that arrives first is discarded.
func (c *connection) assign(ctx context.Context) (*registry.Endpoint, error) {
	cfg := c.rs.cfg

	for {
		frame, err := c.readFrame(ctx)
		if err != nil {
			return nil, err
		}
		if frame == nil {
			continue
		}

		p, err := protocol.Unmarshal(frame)
		if err != nil {
			c.log.Debugf("Discarding frame before assignment: %v", err)
			c.rs.drop(dropMalformed)
			continue
		}
		req, ok := p.(*protocol.AssignRequest)
		if !ok {
			c.log.Debugf("Discarding %s before assignment", protocol.TypeName(p.Type()))
			c.rs.drop(dropUnexpected)
			continue
		}
		c.rs.received(p)

		pub, err := crypto.PublicKeyFromParams(req.E, req.N, cfg.MinRSABits)
		if err != nil {
			c.log.Warningf("Rejecting AssignRequest: %v", err)
			c.rs.drop(dropMalformed)
			continue
		}

		session, err := crypto.GenerateSession()
		if err != nil {
			return nil, err
		}

		ep := registry.NewEndpoint(c.conn.RemoteAddr().String(), session, cfg.MailboxSize, cfg.SendTimeout.Duration)
		id, err := identity.Allocate(c.rs.registry, ep)
		if err != nil {
			return nil, err
		}

		if err := c.writeAssign(id, session, pub); err != nil {
			c.rs.registry.Remove(id)
			ep.Close()
			return nil, err
		}

		c.log.Noticef("✅ Assigned %s to %s (key %s, session %s)",
			id, c.conn.RemoteAddr(), crypto.PublicKeyFingerprint(pub), session.Fingerprint())
		return ep, nil
	}
}

// writeAssign encrypts the whole encoded Assign packet to the client's key
func (c *connection) writeAssign(id string, session *crypto.Session, pub *rsa.PublicKey) error {
	assign := &protocol.Assign{ID: id, AESKey: session.Key()}

	ciphertext, err := crypto.RSAEncrypt(protocol.Marshal(assign), pub)
	if err != nil {
		return err
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.rs.cfg.HandshakeWriteTimeout.Duration)); err != nil {
		return err
	}
	return protocol.WriteFrame(c.conn, ciphertext)
}
