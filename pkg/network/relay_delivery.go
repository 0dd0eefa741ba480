package network

import (
	"context"
	"time"

	"github.com/ZentaChain/chatrelay/pkg/protocol"
)

// writeLoop is the only writer of the connection's stream. It drains the
// endpoint mailbox until ctx is done; a failed write cancels the connection.
func (c *connection) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-c.ep.Mailbox():
			if err := c.deliver(p); err != nil {
				if !isClosed(err) {
					c.log.Warningf("Write %s failed: %v", protocol.TypeName(p.Type()), err)
				}
				c.rs.drop(dropWrite)
				cancel()
				return
			}
		}
	}
}

// deliver seals p with the connection's session and writes one frame
func (c *connection) deliver(p protocol.Packet) error {
	sealed, err := c.ep.Session().Seal(protocol.Marshal(p))
	if err != nil {
		return err
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.rs.cfg.WriteTimeout.Duration)); err != nil {
		return err
	}
	if err := protocol.WriteFrame(c.conn, sealed); err != nil {
		return err
	}

	c.log.Debugf("Delivered %s to %s", protocol.TypeName(p.Type()), c.ep.ID())
	return nil
}
