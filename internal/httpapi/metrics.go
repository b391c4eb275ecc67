package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pasal",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method and status code.",
}, []string{"method", "status"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "pasal",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
}, []string{"method"})

var ledgerCommitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pasal",
	Subsystem: "ledger",
	Name:      "commits_total",
	Help:      "Orchestrated ledger operations by kind and outcome.",
}, []string{"kind", "outcome"})

// statusRecorder captures the response code for the request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func observeRequest(method string, status int, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func observeCommit(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ledgerCommitsTotal.WithLabelValues(kind, outcome).Inc()
}
