// Package metrics holds the Prometheus collectors of the game server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordgame"

type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsTotal  *prometheus.CounterVec // transport
	ConnectionsActive prometheus.Gauge
	MessagesReceived  *prometheus.CounterVec // tag
	DecodeErrors      prometheus.Counter
	BadRequests       *prometheus.CounterVec // reason
	WrongPasswords    prometheus.Counter
	SendFailures      prometheus.Counter
	MatchesCreated    prometheus.Counter
	MatchesFinished   *prometheus.CounterVec // state
	RecordsDropped    prometheus.Counter
	RecordErrors      *prometheus.CounterVec // sink
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: reg,
		ConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted client connections.",
		}, []string{"transport"}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently open client connections.",
		}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Decoded client messages by type.",
		}, []string{"type"}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Inbound frames that could not be decoded.",
		}),
		BadRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bad_requests_total",
			Help:      "BadRequest replies by reason.",
		}, []string{"reason"}),
		WrongPasswords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wrong_passwords_total",
			Help:      "Rejected password answers.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Outbound messages that could not be routed.",
		}),
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Matches started.",
		}),
		MatchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Matches finished by final state.",
		}, []string{"state"}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Finished matches not archived because the queue was full.",
		}),
		RecordErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_errors_total",
			Help:      "Archive writes that failed, by sink.",
		}, []string{"sink"}),
	}

	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsActive,
		m.MessagesReceived,
		m.DecodeErrors,
		m.BadRequests,
		m.WrongPasswords,
		m.SendFailures,
		m.MatchesCreated,
		m.MatchesFinished,
		m.RecordsDropped,
		m.RecordErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
