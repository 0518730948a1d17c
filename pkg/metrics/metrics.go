package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes
const (
	OutcomeStored      = "stored"
	OutcomeRejected    = "rejected"
	OutcomeUnsupported = "unsupported"
	OutcomeFailed      = "failed"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentvault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talentvault_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentvault_uploads_total",
			Help: "Resume uploads by outcome",
		},
		[]string{"outcome"},
	)
	extractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talentvault_extraction_duration_seconds",
			Help:    "Time spent extracting fields from a resume",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format"},
	)
	extractionWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "talentvault_extraction_warnings_total",
			Help: "Extraction stages that degraded instead of failing",
		},
	)
	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "talentvault_cache_hits_total",
			Help: "Total number of candidate cache hits",
		},
	)
	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "talentvault_cache_misses_total",
			Help: "Total number of candidate cache misses",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(uploadsTotal)
	prometheus.MustRegister(extractionDuration)
	prometheus.MustRegister(extractionWarningsTotal)
	prometheus.MustRegister(cacheHitsTotal)
	prometheus.MustRegister(cacheMissesTotal)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordUpload(outcome string) {
	uploadsTotal.WithLabelValues(outcome).Inc()
}

func ObserveExtraction(format string, d time.Duration, warnings int) {
	extractionDuration.WithLabelValues(format).Observe(d.Seconds())
	if warnings > 0 {
		extractionWarningsTotal.Add(float64(warnings))
	}
}

func CacheHit() {
	cacheHitsTotal.Inc()
}

func CacheMiss() {
	cacheMissesTotal.Inc()
}

// Middleware records request counts and latency labelled by chi route pattern,
// so /candidates/{id} is one series rather than one per id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
