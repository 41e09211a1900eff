package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_server_connections_accepted_total",
		Help: "Connections accepted by the server",
	})

	acceptErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_server_accept_errors_total",
		Help: "Accept calls that failed and were retried",
	})

	connectionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpengine_server_connections_closed_total",
			Help: "Connections closed, by reason",
		},
		[]string{"outcome"},
	)

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "httpengine_server_connections_active",
		Help: "Connections currently being served",
	})

	requestsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpengine_server_requests_total",
			Help: "Responses written, by method and status code",
		},
		[]string{"method", "status"},
	)
)
