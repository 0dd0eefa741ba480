package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/chatrelay/pkg/protocol"
)

func TestEndpointSendAndDrain(t *testing.T) {
	ep := NewEndpoint("pipe", nil, 2, 0)
	ctx := context.Background()

	require.NoError(t, ep.Send(ctx, &protocol.NameRequest{Content: "one"}))
	require.NoError(t, ep.Send(ctx, &protocol.NameRequest{Content: "two"}))

	// Non-blocking endpoint reports a full mailbox immediately
	assert.ErrorIs(t, ep.Send(ctx, &protocol.NameRequest{Content: "three"}), ErrMailboxFull)

	assert.Equal(t, &protocol.NameRequest{Content: "one"}, <-ep.Mailbox())
	assert.Equal(t, &protocol.NameRequest{Content: "two"}, <-ep.Mailbox())
}

func TestEndpointSendTimeout(t *testing.T) {
	ep := NewEndpoint("pipe", nil, 1, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, ep.Send(ctx, &protocol.NameRequest{Content: "one"}))

	start := time.Now()
	err := ep.Send(ctx, &protocol.NameRequest{Content: "two"})
	assert.ErrorIs(t, err, ErrMailboxFull)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestEndpointSendWaitsForSpace(t *testing.T) {
	ep := NewEndpoint("pipe", nil, 1, time.Second)
	ctx := context.Background()

	require.NoError(t, ep.Send(ctx, &protocol.NameRequest{Content: "one"}))

	go func() {
		time.Sleep(10 * time.Millisecond)
		<-ep.Mailbox()
	}()

	assert.NoError(t, ep.Send(ctx, &protocol.NameRequest{Content: "two"}))
}

func TestEndpointSendAfterClose(t *testing.T) {
	ep := NewEndpoint("pipe", nil, 1, time.Second)
	ep.Close()
	ep.Close() // idempotent

	assert.True(t, ep.Closed())
	assert.ErrorIs(t, ep.Send(context.Background(), &protocol.NameRequest{}), ErrEndpointClosed)
}

func TestEndpointCloseUnblocksSender(t *testing.T) {
	ep := NewEndpoint("pipe", nil, 1, 5*time.Second)
	ctx := context.Background()
	require.NoError(t, ep.Send(ctx, &protocol.NameRequest{}))

	errc := make(chan error, 1)
	go func() {
		errc <- ep.Send(ctx, &protocol.NameRequest{})
	}()

	time.Sleep(10 * time.Millisecond)
	ep.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrEndpointClosed)
	case <-time.After(time.Second):
		t.Fatal("Send did not return after Close")
	}
}

func TestEndpointSendContextCancel(t *testing.T) {
	ep := NewEndpoint("pipe", nil, 1, 5*time.Second)
	require.NoError(t, ep.Send(context.Background(), &protocol.NameRequest{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ep.Send(ctx, &protocol.NameRequest{}), context.Canceled)
}
