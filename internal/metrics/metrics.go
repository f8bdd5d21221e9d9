package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SamplesGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textsynth",
		Name:      "samples_generated_total",
		Help:      "Total samples persisted by workers.",
	})
	GenerationRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textsynth",
		Name:      "generation_retries_total",
		Help:      "Total generator attempts that failed and were retried.",
	})
	GenerationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textsynth",
		Name:      "generation_failures_total",
		Help:      "Total indices whose generator exhausted its retry budget.",
	})
	RecordsLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textsynth",
		Name:      "records_logged_total",
		Help:      "Total records appended to the raw and ground-truth logs.",
	})
	RecordsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textsynth",
		Name:      "records_dropped_total",
		Help:      "Total records the aggregator could not format or write.",
	})
	LogFlushes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "textsynth",
		Name:      "log_flushes_total",
		Help:      "Total durability flushes of the aggregator logs.",
	})
	Progress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "textsynth",
		Name:      "progress_completed",
		Help:      "Samples completed in the current run.",
	})
	SplitEntries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "textsynth",
		Name:      "split_entries_total",
		Help:      "Ground-truth entries written per split manifest.",
	}, []string{"split"})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(SamplesGenerated, GenerationRetries, GenerationFailures,
		RecordsLogged, RecordsDropped, LogFlushes, Progress, SplitEntries)
}

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, nil)
}
