package network

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gopkg.in/op/go-logging.v1"

	"github.com/ZentaChain/chatrelay/pkg/protocol"
	"github.com/ZentaChain/chatrelay/pkg/registry"
)

// connection is the per-connection worker state
type connection struct {
	rs      *RelayServer
	conn    net.Conn
	frames  *protocol.FrameReader
	limiter *rate.Limiter
	log     *logging.Logger
	ep      *registry.Endpoint
}

// ServeConn runs the connection worker for conn until the peer disconnects,
// the connection's own stream fails, or ctx or the server is cancelled.
// conn is always closed and its identifier always removed on return.
func (rs *RelayServer) ServeConn(ctx context.Context, conn net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(rs.ctx, cancel)
	defer stop()

	defer conn.Close()

	connID := uuid.New()
	c := &connection{
		rs:      rs,
		conn:    conn,
		frames:  protocol.NewFrameReader(conn, rs.cfg.MaxFrameSize),
		limiter: rs.newLimiter(),
		log:     rs.logBackend.GetLogger("conn:" + connID.String()[:8]),
	}

	rs.connectionsTotal.Add(1)
	connectionsTotal.Inc()
	c.log.Infof("New connection from %s", conn.RemoteAddr())

	ep, err := c.assign(ctx)
	if err != nil {
		rs.handshakesFailed.Add(1)
		handshakesFailed.Inc()
		if isClosed(err) || ctx.Err() != nil {
			c.log.Infof("Closed before assignment: %v", err)
		} else {
			c.log.Warningf("Handshake failed: %v", err)
		}
		return
	}
	c.ep = ep

	connectionsLive.Inc()
	defer func() {
		rs.registry.Remove(ep.ID())
		ep.Close()
		connectionsLive.Dec()
		c.log.Infof("Peer disconnected and removed: %s", ep.ID())
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop(ctx, cancel)
	}()

	c.readLoop(ctx)
	cancel()
	<-writerDone
}

func (rs *RelayServer) newLimiter() *rate.Limiter {
	if rs.rateLimit == nil || rs.rateLimit.PacketsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rs.rateLimit.PacketsPerSecond), rs.rateLimit.Burst)
}

// readLoop decrypts, decodes and dispatches packets in arrival order.
// Per-packet failures are logged and skipped.
func (c *connection) readLoop(ctx context.Context) {
	session := c.ep.Session()

	for {
		frame, err := c.readFrame(ctx)
		if err != nil {
			if isClosed(err) || ctx.Err() != nil {
				c.log.Debugf("Read loop done: %v", err)
			} else {
				c.log.Warningf("Read error: %v", err)
			}
			return
		}
		if frame == nil {
			continue
		}

		plaintext, err := session.Open(frame)
		if err != nil {
			c.log.Warningf("Dropping frame: %v", err)
			c.rs.drop(dropDecrypt)
			continue
		}

		p, err := protocol.Unmarshal(plaintext)
		if err != nil {
			c.log.Warningf("Dropping packet: %v", err)
			c.rs.drop(dropMalformed)
			continue
		}
		c.rs.received(p)

		c.rs.router.Dispatch(ctx, c.ep, p)
	}
}

// readFrame polls for the next frame. It returns a nil frame without error
// for a frame that was dropped (oversized, bad escape, rate limited) so the
// caller can move on, and an error only when the stream is finished.
func (c *connection) readFrame(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(c.rs.cfg.PollInterval.Duration)); err != nil {
			return nil, err
		}

		frame, err := c.frames.ReadFrame()
		switch {
		case err == nil:
		case isTimeout(err):
			continue
		case errors.Is(err, protocol.ErrFrameTooLarge):
			c.log.Warningf("Dropping oversized frame")
			c.rs.drop(dropTooLarge)
			return nil, nil
		case errors.Is(err, protocol.ErrBadEscape):
			c.log.Warningf("Dropping frame: %v", err)
			c.rs.drop(dropMalformed)
			return nil, nil
		default:
			return nil, err
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.log.Debugf("Rate limit exceeded, dropping frame")
			c.rs.drop(dropRateLimit)
			return nil, nil
		}
		return frame, nil
	}
}

func (rs *RelayServer) received(p protocol.Packet) {
	rs.packetsReceived.Add(1)
	packetsReceived.WithLabelValues(protocol.TypeName(p.Type())).Inc()
}

func (rs *RelayServer) drop(reason string) {
	rs.packetsDropped.Add(1)
	packetsDropped.WithLabelValues(reason).Inc()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed)
}
