package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	betTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bet_requests_total",
			Help: "Total bet placements by result and game",
		},
		[]string{"result", "game"},
	)

	betDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bet_request_duration_ms",
			Help:    "Bet placement duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result", "game"},
	)
)

// RecordBet records business metrics for a bet placement.
// result should be "success" or "fail"; game is normalized to lower-case.
func RecordBet(result, game string, started time.Time) {
	res := result
	if res != "success" {
		res = "fail"
	}

	betTotal.WithLabelValues(res, strings.ToLower(game)).Inc()
	betDuration.WithLabelValues(res, strings.ToLower(game)).Observe(float64(time.Since(started).Milliseconds()))
}
