package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bet_resolutions_total",
			Help: "Total bet resolutions by outcome and game",
		},
		[]string{"outcome", "game"},
	)

	resolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bet_resolution_duration_ms",
			Help:    "Bet resolution duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"outcome", "game"},
	)
)

// RecordResolve records business metrics for a resolution or cashout.
// outcome: "won" | "lost" | "cashed_out" | "fail".
func RecordResolve(outcome, game string, started time.Time) {
	oc := strings.ToLower(strings.TrimSpace(outcome))
	if oc == "" {
		oc = "fail"
	}

	resolveTotal.WithLabelValues(oc, strings.ToLower(game)).Inc()
	resolveDuration.WithLabelValues(oc, strings.ToLower(game)).Observe(float64(time.Since(started).Milliseconds()))
}
