package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.OrderCreated()
	m.OrderCreated()
	m.OrderSettled()
	m.PaymentRecorded("PIX")
	m.PaymentRecorded("PIX")
	m.PaymentRecorded("CARD")
	m.PaymentRejected("already_paid")

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]float64)
	for _, f := range families {
		var sum float64
		for _, metric := range f.GetMetric() {
			sum += metric.GetCounter().GetValue()
		}
		byName[f.GetName()] = sum
	}

	assert.Equal(t, 2.0, byName["orders_created_total"])
	assert.Equal(t, 1.0, byName["orders_settled_total"])
	assert.Equal(t, 3.0, byName["payments_recorded_total"])
	assert.Equal(t, 1.0, byName["payments_rejected_total"])

	m.HTTPRequests.WithLabelValues("GET", "/orders/{id}", "200").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/orders/{id}", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.PaymentRejected("exceeds_remaining")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `payments_rejected_total{reason="exceeds_remaining"} 1`)
}
