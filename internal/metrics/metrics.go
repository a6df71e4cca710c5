package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interview",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "sessions_started_total",
		Help:      "Interview sessions started",
	})

	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "sessions_completed_total",
		Help:      "Interview sessions completed",
	})

	SlotResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "slot_resolutions_total",
		Help:      "Question slots resolved, by trigger",
	}, []string{"reason"})

	OracleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "oracle_failures_total",
		Help:      "Failed scoring-oracle calls, by operation",
	}, []string{"op"})

	DroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "hub_dropped_events_total",
		Help:      "Events dropped because a subscriber queue was full",
	})

	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "interview",
		Name:      "hub_subscribers",
		Help:      "Currently connected hub subscribers",
	})
)

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps the websocket upgrade path working behind the middleware.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request counts and latencies with Prometheus labels.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
