package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_client_cache_hits_total",
		Help: "Lookups that found a fresh entry",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_client_cache_misses_total",
		Help: "Lookups that found no entry or a stale one",
	})

	cacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_client_cache_stores_total",
		Help: "Responses stored",
	})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_client_cache_evictions_total",
		Help: "Stale entries dropped on lookup",
	})

	// 304 Not Modified answers that renewed an entry.
	cacheRevalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "httpengine_client_cache_revalidations_total",
		Help: "Entries renewed by a 304 response",
	})
)
