package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations tracks public operation invocations
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catshelter_operations_total",
			Help: "Total number of shelter operations invoked",
		},
		[]string{"operation"},
	)

	// ExternalRetries tracks transient failures that were retried
	ExternalRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catshelter_external_retries_total",
			Help: "Total number of retried transient dependency failures",
		},
		[]string{"dependency", "operation"},
	)

	// ExternalFailures tracks dependency calls that still failed after retry
	ExternalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catshelter_external_failures_total",
			Help: "Total number of dependency calls failed after retry",
		},
		[]string{"dependency", "operation"},
	)

	// FavoriteCleanups tracks sold cats removed while listing favorites
	FavoriteCleanups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catshelter_favorite_cleanups_total",
			Help: "Total number of sold cats lazily removed from the collection",
		},
	)
)
