package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roundTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpengine_client_round_trips_total",
			Help: "Request/response exchanges, by status code",
		},
		[]string{"status"},
	)

	redirectsFollowed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpengine_client_redirects_followed_total",
			Help: "Redirects followed, by status code",
		},
		[]string{"status"},
	)

	conditionalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_client_conditional_requests_total",
		Help: "Requests sent with cache validators",
	})

	clientFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpengine_client_failures_total",
			Help: "Failed sends, by kind",
		},
		[]string{"kind"},
	)

	dials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_client_dials_total",
		Help: "Connections opened",
	})
)
