package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.OrderCreated()
	m.OrderCreated()
	m.Transition("PENDING", "PREPARING", "provider")
	m.Rejected("transition", "ILLEGAL_TRANSITION")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("PENDING", "PREPARING", "provider")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("transition", "ILLEGAL_TRANSITION")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.OrderCreated()
		m.Transition("PENDING", "CANCELLED", "customer")
		m.Rejected("checkout", "EMPTY_CART")
	})
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.OrderCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "foodhub_orders_created_total 1")
}
