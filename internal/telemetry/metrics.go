package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adsb_fetches_total",
		Help: "Fetch attempts by outcome (ok, empty, rate-limited, forbidden, transient).",
	}, []string{"source", "outcome"})

	RecordsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsb_records_published_total",
		Help: "Normalized records acked by the broker.",
	})

	PublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsb_publish_errors_total",
		Help: "Individual async send failures reported by the producer.",
	})

	ConsecutiveErrors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adsb_consecutive_errors",
		Help: "Running tally of sequential recoverable failures.",
	})

	BackoffSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsb_backoff_seconds_total",
		Help: "Total seconds spent in computed backoff sleeps.",
	})
)

func Expose(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
