package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Synchronizer metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poser_messages_sent_total",
			Help: "Poser messages handed to the transport",
		},
		[]string{"kind"},
	)

	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poser_messages_received_total",
			Help: "Poser messages accepted for processing",
		},
		[]string{"kind"},
	)

	MessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poser_messages_dropped_total",
			Help: "Inbound poser messages dropped",
		},
		[]string{"reason"}, // "malformed", "too_long", "permission", "unknown_kind"
	)

	TokensSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poser_tokens_skipped_total",
			Help: "Malformed tokens skipped inside otherwise valid messages",
		},
	)

	SendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poser_send_failures_total",
			Help: "Transport send errors",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poser_outbound_queue_depth",
			Help: "Messages waiting in the throttled outbound queue",
		},
	)

	PermissionChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poser_permission_changes_total",
			Help: "Permission state transitions",
		},
		[]string{"state", "origin"}, // origin: "local", "remote", "presence"
	)

	ReloadRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poser_reload_retries_total",
			Help: "Pose-list reload attempts",
		},
		[]string{"result"}, // "resolved", "pending", "exhausted"
	)

	// Snapshot store metrics
	SnapshotsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poser_snapshots_applied_total",
			Help: "Background-animation snapshot applications",
		},
		[]string{"result"}, // "applied", "unresolved"
	)

	// Relay metrics
	RelayConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poser_relay_connections",
			Help: "Characters connected to the relay",
		},
	)

	RelayMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poser_relay_messages_total",
			Help: "Payloads routed by the relay",
		},
		[]string{"result"}, // "delivered", "offline", "invalid"
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poser_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poser_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)
)
