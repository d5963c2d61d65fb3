package rounds

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albums_submissions_total",
			Help: "Album submissions by outcome",
		},
		[]string{"outcome"},
	)
	rankingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albums_rankings_total",
			Help: "Ranking writes by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
	resolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "albums_metadata_resolve_seconds",
			Help:    "Time spent resolving album metadata",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(submissionsTotal, rankingsTotal, resolveDuration)
}

// outcome labels an operation result by error kind.
func outcome(err error) string {
	switch kind := KindOf(err); {
	case err == nil:
		return "ok"
	case errors.Is(kind, ErrNotFound):
		return "not_found"
	case errors.Is(kind, ErrConflict):
		return "conflict"
	case errors.Is(kind, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(kind, ErrForbidden):
		return "forbidden"
	case errors.Is(kind, ErrExpired):
		return "expired"
	default:
		return "error"
	}
}
