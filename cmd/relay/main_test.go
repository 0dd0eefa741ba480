package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/chatrelay/pkg/config"
	"github.com/ZentaChain/chatrelay/pkg/log"
	"github.com/ZentaChain/chatrelay/pkg/network"
	"github.com/ZentaChain/chatrelay/pkg/registry"
)

func TestParseLine(t *testing.T) {
	dst, msg, ok := parseLine("@alice hello there")
	require.True(t, ok)
	assert.Equal(t, "alice", dst)
	assert.Equal(t, "hello there", msg)

	for _, bad := range []string{"alice hi", "@alice", "@ hi", ""} {
		_, _, ok := parseLine(bad)
		assert.False(t, ok, "line %q", bad)
	}
}

func TestGenconfigOutputLoads(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"genconfig"})
	require.NoError(t, cmd.Execute())

	cfg, err := config.Load(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig("", "127.0.0.1:9999", "debug")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Address)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)

	_, err = loadConfig("", "", "shouty")
	assert.Error(t, err)
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunClientSendsToSelf(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1:0"
	rs := network.NewRelayServer(cfg, registry.New(), log.Discard())
	require.NoError(t, rs.Start())
	defer rs.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	in, inWriter := io.Pipe()
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() {
		done <- runClient(ctx, rs.Addr().String(), "carol", in, out)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `Claimed "carol"`)
	}, 15*time.Second, 20*time.Millisecond)

	_, err := io.WriteString(inWriter, "@carol ping\n@nobody hi\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "] ping") && strings.Contains(s, "nobody not found")
	}, 5*time.Second, 20*time.Millisecond)

	inWriter.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not exit on end of input")
	}
}
