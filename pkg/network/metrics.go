package network

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrelay_connections_total",
			Help: "Number of accepted connections",
		},
	)
	connectionsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatrelay_connections_live",
			Help: "Number of connections with an assigned identifier",
		},
	)
	handshakesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrelay_handshakes_failed_total",
			Help: "Number of connections that closed before an Assign was written",
		},
	)
	packetsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_packets_received_total",
			Help: "Number of decoded packets per type",
		},
		[]string{"type"},
	)
	packetsRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_packets_relayed_total",
			Help: "Number of packets forwarded to another connection",
		},
		[]string{"type"},
	)
	packetsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_packets_dropped_total",
			Help: "Number of dropped packets per reason",
		},
		[]string{"reason"},
	)
	namesClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrelay_names_claimed_total",
			Help: "Number of successful username claims",
		},
	)
)

// Drop reasons used as the packetsDropped label
const (
	dropMalformed  = "malformed"
	dropDecrypt    = "decrypt"
	dropTooLarge   = "too_large"
	dropRateLimit  = "rate_limit"
	dropMailbox    = "mailbox"
	dropUnexpected = "unexpected"
	dropWrite      = "write"
)

func init() {
	prometheus.MustRegister(
		connectionsTotal,
		connectionsLive,
		handshakesFailed,
		packetsReceived,
		packetsRelayed,
		packetsDropped,
		namesClaimed,
	)
}
