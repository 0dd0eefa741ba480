package network

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/op/go-logging.v1"

	"github.com/ZentaChain/chatrelay/pkg/config"
	"github.com/ZentaChain/chatrelay/pkg/log"
	"github.com/ZentaChain/chatrelay/pkg/registry"
)

// RelayServer accepts client connections and relays packets between them
type RelayServer struct {
	cfg        *config.Server
	rateLimit  *config.RateLimit
	registry   *registry.Registry
	router     *Router
	logBackend *log.Backend
	log        *logging.Logger

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	startTime time.Time

	// Statistics
	connectionsTotal atomic.Uint64
	handshakesFailed atomic.Uint64
	packetsReceived  atomic.Uint64
	packetsDropped   atomic.Uint64
	lastHeartbeat    atomic.Int64
}

// Stats is a snapshot of relay activity
type Stats struct {
	Connections      int       `json:"connections"`
	Names            int       `json:"names"`
	ConnectionsTotal uint64    `json:"connections_total"`
	HandshakesFailed uint64    `json:"handshakes_failed"`
	PacketsReceived  uint64    `json:"packets_received"`
	PacketsRelayed   uint64    `json:"packets_relayed"`
	PacketsDropped   uint64    `json:"packets_dropped"`
	NamesClaimed     uint64    `json:"names_claimed"`
	StartedAt        time.Time `json:"started_at"`
	UptimeSeconds    uint64    `json:"uptime_seconds"`
	LastHeartbeat    time.Time `json:"last_heartbeat,omitempty"`
}

// NewRelayServer creates a relay server. cfg must have been through
// FixupAndValidate.
func NewRelayServer(cfg *config.Config, reg *registry.Registry, logBackend *log.Backend) *RelayServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &RelayServer{
		cfg:        cfg.Server,
		rateLimit:  cfg.RateLimit,
		registry:   reg,
		router:     NewRouter(reg, logBackend.GetLogger("router")),
		logBackend: logBackend,
		log:        logBackend.GetLogger("relay"),
		ctx:        ctx,
		cancel:     cancel,
		startTime:  time.Now(),
	}
}

// Registry returns the registry shared by all connections
func (rs *RelayServer) Registry() *registry.Registry {
	return rs.registry
}

// Start starts the relay server
func (rs *RelayServer) Start() error {
	listener, err := net.Listen("tcp", rs.cfg.Address)
	if err != nil {
		return err
	}

	rs.listener = listener
	rs.log.Noticef("Relay server listening on %s", listener.Addr())

	rs.wg.Add(1)
	go rs.acceptLoop()

	return nil
}

// Addr returns the listen address, nil before Start
func (rs *RelayServer) Addr() net.Addr {
	if rs.listener == nil {
		return nil
	}
	return rs.listener.Addr()
}

// Stop closes the listener, cancels every connection worker and waits for
// them to exit
func (rs *RelayServer) Stop() error {
	var err error
	rs.stopOnce.Do(func() {
		rs.cancel()
		if rs.listener != nil {
			err = rs.listener.Close()
		}
		rs.wg.Wait()
		rs.log.Noticef("Relay server stopped")
	})
	return err
}

// Done is closed once Stop has been called
func (rs *RelayServer) Done() <-chan struct{} {
	return rs.ctx.Done()
}

// GetStats returns relay statistics
func (rs *RelayServer) GetStats() Stats {
	uptime := time.Since(rs.startTime)
	stats := Stats{
		Connections:      rs.registry.Len(),
		Names:            rs.registry.NameCount(),
		ConnectionsTotal: rs.connectionsTotal.Load(),
		HandshakesFailed: rs.handshakesFailed.Load(),
		PacketsReceived:  rs.packetsReceived.Load(),
		PacketsRelayed:   rs.router.stats.relayed.Load(),
		PacketsDropped:   rs.packetsDropped.Load() + rs.router.stats.dropped.Load(),
		NamesClaimed:     rs.router.stats.claimed.Load(),
		StartedAt:        rs.startTime,
		UptimeSeconds:    uint64(uptime.Seconds()),
	}
	if hb := rs.lastHeartbeat.Load(); hb != 0 {
		stats.LastHeartbeat = time.Unix(0, hb)
	}
	return stats
}

// RunHeartbeat logs relay statistics every interval until ctx is done or
// the server stops
func (rs *RelayServer) RunHeartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rs.ctx.Done():
			return
		case now := <-ticker.C:
			rs.lastHeartbeat.Store(now.UnixNano())
			s := rs.GetStats()
			rs.log.Noticef("💓 %d connections, %d names, %d relayed, %d dropped, up %ds",
				s.Connections, s.Names, s.PacketsRelayed, s.PacketsDropped, s.UptimeSeconds)
		}
	}
}

// acceptLoop accepts incoming connections
func (rs *RelayServer) acceptLoop() {
	defer rs.wg.Done()

	for {
		conn, err := rs.listener.Accept()
		if err != nil {
			if rs.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			rs.log.Errorf("Accept error: %v", err)
			return
		}

		rs.wg.Add(1)
		go func() {
			defer rs.wg.Done()
			rs.ServeConn(rs.ctx, conn)
		}()
	}
}
