package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the HTTP and business collectors of the service.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ordersCreated    prometheus.Counter
	ordersSettled    prometheus.Counter
	paymentsRecorded *prometheus.CounterVec
	paymentsRejected *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		}, []string{"method", "route"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders successfully created",
		}),
		ordersSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_settled_total",
			Help: "Orders that transitioned to PAID",
		}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Payments recorded against orders",
		}, []string{"method"}),
		paymentsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_rejected_total",
			Help: "Payments refused by business rules",
		}, []string{"reason"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.ordersCreated,
		m.ordersSettled,
		m.paymentsRecorded,
		m.paymentsRejected,
	)
	return m
}

func (m *Metrics) OrderCreated() {
	m.ordersCreated.Inc()
}

func (m *Metrics) OrderSettled() {
	m.ordersSettled.Inc()
}

func (m *Metrics) PaymentRecorded(method string) {
	m.paymentsRecorded.WithLabelValues(method).Inc()
}

func (m *Metrics) PaymentRejected(reason string) {
	m.paymentsRejected.WithLabelValues(reason).Inc()
}

// Handler serves the registry the metrics were created on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
