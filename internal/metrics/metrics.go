package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfcutter",
			Name:      "cuts_total",
			Help:      "Total cut operations by mode and result",
		},
		[]string{"mode", "result"},
	)

	cutDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfcutter",
			Name:      "cut_duration_seconds",
			Help:      "Duration of cut operations by mode",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	filesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfcutter",
			Name:      "files_written_total",
			Help:      "Output documents written by mode",
		},
		[]string{"mode"},
	)

	pagesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfcutter",
			Name:      "pages_written_total",
			Help:      "Pages written across all output documents",
		},
	)

	verifyMismatch = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfcutter",
			Name:      "verify_mismatch_total",
			Help:      "Written documents whose page count did not match on re-open",
		},
	)

	initOnce sync.Once
)

// Init registers collectors.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(cutsTotal, cutDuration, filesWritten, pagesWritten, verifyMismatch)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveCut(mode, result string, dur time.Duration) {
	cutsTotal.WithLabelValues(mode, result).Inc()
	cutDuration.WithLabelValues(mode).Observe(dur.Seconds())
}

func IncWritten(mode string, pages int) {
	filesWritten.WithLabelValues(mode).Inc()
	pagesWritten.Add(float64(pages))
}

func IncVerifyMismatch() { verifyMismatch.Inc() }
