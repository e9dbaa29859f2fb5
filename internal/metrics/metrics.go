package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. Every method is safe on a nil
// receiver so packages can run without metrics in tests.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Splits
	SplitCommitsTotal     *prometheus.CounterVec
	UnassignedBookedTotal prometheus.Counter
	UnassignedAmountTotal prometheus.Counter
	SplitDraftOpsTotal    *prometheus.CounterVec

	// Everything else
	ExportsTotal            *prometheus.CounterVec
	AttachmentBytesTotal    prometheus.Counter
	EventPublishErrorsTotal prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),

		SplitCommitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "split_commits_total",
				Help: "Commission split commits by outcome (ok, rejected, locked, failed)",
			},
			[]string{"outcome"},
		),
		UnassignedBookedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "split_unassigned_booked_total",
			Help: "Commits that booked an Unassigned remainder row",
		}),
		UnassignedAmountTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "split_unassigned_amount_total",
			Help: "Commission amount booked to Unassigned",
		}),
		SplitDraftOpsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "split_draft_operations_total",
				Help: "Split draft operations by kind",
			},
			[]string{"op"},
		),

		ExportsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deal_exports_total",
				Help: "Deal exports by format",
			},
			[]string{"format"},
		),
		AttachmentBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "attachment_upload_bytes_total",
			Help: "Decoded bytes of uploaded attachments",
		}),
		EventPublishErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "activity_event_publish_errors_total",
			Help: "Activity events that could not be published",
		}),
	}
}

func (m *Metrics) SplitCommit(outcome string) {
	if m == nil {
		return
	}
	m.SplitCommitsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) UnassignedBooked(amount float64) {
	if m == nil {
		return
	}
	m.UnassignedBookedTotal.Inc()
	m.UnassignedAmountTotal.Add(amount)
}

func (m *Metrics) DraftOperation(op string) {
	if m == nil {
		return
	}
	m.SplitDraftOpsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) Export(format string) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(format).Inc()
}

func (m *Metrics) AttachmentUploaded(size int) {
	if m == nil {
		return
	}
	m.AttachmentBytesTotal.Add(float64(size))
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.EventPublishErrorsTotal.Inc()
}

// Handler serves the registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument attaches Middleware to r. It has to run inside the router:
// mux only exposes the matched route on the request it hands to its
// middleware and handlers.
func (m *Metrics) Instrument(r *mux.Router) {
	r.Use(m.Middleware)
}

// Middleware records request count and latency labelled by route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
