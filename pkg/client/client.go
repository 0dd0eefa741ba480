// Package client is a reference chatrelay client: it performs the
// AssignRequest/Assign handshake and exchanges session encrypted packets
// with the relay.
package client

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ZentaChain/chatrelay/pkg/crypto"
	"github.com/ZentaChain/chatrelay/pkg/protocol"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrHandshakeFailed  = errors.New("handshake failed")
	ErrUnexpectedPacket = errors.New("unexpected packet")
)

// Client represents a client connection to a relay
type Client struct {
	PrivateKey *rsa.PrivateKey

	conn    net.Conn
	frames  *protocol.FrameReader
	session *crypto.Session
	id      string

	// Serializes writers; reads are expected from a single goroutine.
	wmu sync.Mutex
}

// Dial connects to a relay and completes the handshake
func Dial(ctx context.Context, address string, privateKey *rsa.PrivateKey) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}

	c := NewClient(conn, privateKey)
	if err := c.Handshake(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient wraps an established stream. Call Handshake before anything else.
func NewClient(conn net.Conn, privateKey *rsa.PrivateKey) *Client {
	return &Client{
		PrivateKey: privateKey,
		conn:       conn,
		frames:     protocol.NewFrameReader(conn, 0),
	}
}

// Handshake sends the AssignRequest and decrypts the relay's Assign
func (c *Client) Handshake(ctx context.Context) error {
	e, n := crypto.PublicKeyParams(&c.PrivateKey.PublicKey)
	req := &protocol.AssignRequest{E: e, N: n}

	if err := c.SendFrame(protocol.Marshal(req)); err != nil {
		return err
	}

	frame, err := c.readFrame(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	plaintext, err := crypto.RSADecrypt(frame, c.PrivateKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	p, err := protocol.Unmarshal(plaintext)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	assign, ok := p.(*protocol.Assign)
	if !ok {
		return fmt.Errorf("%w: got %s", ErrHandshakeFailed, protocol.TypeName(p.Type()))
	}

	session, err := crypto.NewSession(assign.AESKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	c.session = session
	c.id = assign.ID
	return nil
}

// ID returns the identifier the relay assigned
func (c *Client) ID() string {
	return c.id
}

// Send seals and writes one packet
func (c *Client) Send(p protocol.Packet) error {
	return c.SendRaw(protocol.Marshal(p))
}

// SendRaw seals arbitrary plaintext, which need not be a valid packet
func (c *Client) SendRaw(plaintext []byte) error {
	if c.session == nil {
		return ErrNotConnected
	}

	sealed, err := c.session.Seal(plaintext)
	if err != nil {
		return err
	}
	return c.SendFrame(sealed)
}

// SendFrame writes payload as one frame without sealing it
func (c *Client) SendFrame(payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	return protocol.WriteFrame(c.conn, payload)
}

// Receive reads and opens the next packet. The context deadline, if any,
// bounds the read.
func (c *Client) Receive(ctx context.Context) (protocol.Packet, error) {
	if c.session == nil {
		return nil, ErrNotConnected
	}

	frame, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := c.session.Open(frame)
	if err != nil {
		return nil, err
	}
	return protocol.Unmarshal(plaintext)
}

// ClaimName asks the relay for a username and waits for the answer. The
// next packet received must be the NameResponse.
func (c *Client) ClaimName(ctx context.Context, name string) (*protocol.NameResponse, error) {
	if err := c.Send(&protocol.NameRequest{Content: name}); err != nil {
		return nil, err
	}

	p, err := c.Receive(ctx)
	if err != nil {
		return nil, err
	}
	resp, ok := p.(*protocol.NameResponse)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedPacket, protocol.TypeName(p.Type()))
	}
	return resp, nil
}

// SendMessage sends content to a username or identifier
func (c *Client) SendMessage(to string, content []byte) error {
	return c.Send(&protocol.Message{Receiver: to, Content: content})
}

// SendHandshake sends key material to a username or identifier
func (c *Client) SendHandshake(to string, status protocol.HandshakeStatus, pub *rsa.PublicKey, keyBlob []byte) error {
	hs := &protocol.Handshake{
		Status: status,
		Dst:    to,
		AESKey: keyBlob,
	}
	if pub != nil {
		hs.E, hs.N = crypto.PublicKeyParams(pub)
	}
	return c.Send(hs)
}

// Close closes the connection to the relay
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readFrame(ctx context.Context) ([]byte, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	type result struct {
		frame []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		frame, err := c.frames.ReadFrame()
		done <- result{frame, err}
	}()

	select {
	case r := <-done:
		return r.frame, r.err
	case <-ctx.Done():
		// Unblock the reader; the partial frame stays buffered.
		c.conn.SetReadDeadline(time.Now())
		if r := <-done; r.err == nil {
			return r.frame, nil
		}
		return nil, ctx.Err()
	}
}
