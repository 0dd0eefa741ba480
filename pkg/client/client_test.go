package client

import (
	"context"
	"crypto/rsa"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/chatrelay/pkg/crypto"
	"github.com/ZentaChain/chatrelay/pkg/protocol"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func sharedTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKey, err = crypto.GenerateRSAKeyPair(crypto.DefaultRSABits)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

// fakeRelay answers one AssignRequest on conn and returns the session it
// handed out
func fakeRelay(t *testing.T, conn net.Conn, id string) *crypto.Session {
	t.Helper()

	fr := protocol.NewFrameReader(conn, 0)
	frame, err := fr.ReadFrame()
	require.NoError(t, err)

	p, err := protocol.Unmarshal(frame)
	require.NoError(t, err)
	req, ok := p.(*protocol.AssignRequest)
	require.True(t, ok)

	pub, err := crypto.PublicKeyFromParams(req.E, req.N, crypto.DefaultRSABits)
	require.NoError(t, err)

	session, err := crypto.GenerateSession()
	require.NoError(t, err)

	ct, err := crypto.RSAEncrypt(protocol.Marshal(&protocol.Assign{ID: id, AESKey: session.Key()}), pub)
	require.NoError(t, err)
	require.NoError(t, protocol.WriteFrame(conn, ct))

	return session
}

func TestHandshakeAndExchange(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	c := NewClient(clientConn, sharedTestKey(t))

	sessc := make(chan *crypto.Session, 1)
	go func() {
		sessc <- fakeRelay(t, serverConn, "votes-purer-tills")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Handshake(ctx))
	assert.Equal(t, "votes-purer-tills", c.ID())
	session := <-sessc

	// Client to relay
	go func() {
		assert.NoError(t, c.SendMessage("alice", []byte("hi")))
	}()
	fr := protocol.NewFrameReader(serverConn, 0)
	frame, err := fr.ReadFrame()
	require.NoError(t, err)
	plaintext, err := session.Open(frame)
	require.NoError(t, err)
	p, err := protocol.Unmarshal(plaintext)
	require.NoError(t, err)
	assert.Equal(t, &protocol.Message{Receiver: "alice", Content: []byte("hi")}, p)

	// Relay to client
	sealed, err := session.Seal(protocol.Marshal(&protocol.Message{Sender: "a-b-c", Receiver: c.ID(), Content: []byte("yo")}))
	require.NoError(t, err)
	go func() {
		assert.NoError(t, protocol.WriteFrame(serverConn, sealed))
	}()

	got, err := c.Receive(ctx)
	require.NoError(t, err)
	msg, ok := got.(*protocol.Message)
	require.True(t, ok)
	assert.Equal(t, "a-b-c", msg.Sender)
	assert.Equal(t, []byte("yo"), msg.Content)
}

func TestSendBeforeHandshake(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	c := NewClient(clientConn, sharedTestKey(t))
	assert.ErrorIs(t, c.Send(&protocol.NameRequest{Content: "x"}), ErrNotConnected)

	_, err := c.Receive(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestHandshakeRejectsGarbage(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	c := NewClient(clientConn, sharedTestKey(t))

	go func() {
		fr := protocol.NewFrameReader(serverConn, 0)
		if _, err := fr.ReadFrame(); err != nil {
			return
		}
		protocol.WriteFrame(serverConn, []byte("not rsa"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, c.Handshake(ctx), ErrHandshakeFailed)
}

func TestReceiveHonoursContext(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	c := NewClient(clientConn, sharedTestKey(t))
	go fakeRelay(t, serverConn, "a-a-a")

	require.NoError(t, c.Handshake(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Receive(ctx)
	assert.Error(t, err)
}

func TestDialRetryGivesUpWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	var retries int
	_, err = DialRetry(ctx, addr, sharedTestKey(t), func(err error, wait time.Duration) {
		retries++
		assert.Error(t, err)
		assert.GreaterOrEqual(t, wait, initialBackoff)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, retries, 1)
}

func TestDialRetryConnectsOnceRelayIsUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		// Refuse the first attempt by closing it straight away
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()

		conn, err = ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fakeRelay(t, conn, "b-b-b")
		time.Sleep(100 * time.Millisecond)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := DialRetry(ctx, ln.Addr().String(), sharedTestKey(t), nil)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "b-b-b", c.ID())
}
