package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         prometheus.Gauge

	// Snapshot sync
	SyncCycles   *prometheus.CounterVec
	SyncDuration prometheus.Histogram

	// Domain
	WorkflowOutcomes *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "payable",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "payable",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "payable",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		SyncCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "payable",
				Subsystem: "sync",
				Name:      "cycles_total",
				Help:      "Snapshot refresh cycles by result.",
			},
			[]string{"result"}, // result=ok|partial|failed
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "payable",
				Subsystem: "sync",
				Name:      "cycle_duration_seconds",
				Help:      "Snapshot refresh cycle duration.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
		WorkflowOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "payable",
				Subsystem: "workflow",
				Name:      "outcomes_total",
				Help:      "Access request and guard outcomes by operation and result.",
			},
			[]string{"operation", "result"},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.SyncCycles, p.SyncDuration, p.WorkflowOutcomes)

	return p
}

// Middleware records request counts and latency per chi route pattern.
func (p *Prom) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		p.InFlight.Inc()
		defer p.InFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// route pattern is only known once routing has happened
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		p.RequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		p.RequestsDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
	})
}

func (p *Prom) ObserveSyncCycle(result string, d time.Duration) {
	p.SyncCycles.WithLabelValues(result).Inc()
	p.SyncDuration.Observe(d.Seconds())
}

func (p *Prom) ObserveOutcome(operation, result string) {
	p.WorkflowOutcomes.WithLabelValues(operation, result).Inc()
}
