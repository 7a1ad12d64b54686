package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveReservation("confirmed", 0.01)
	m.ObserveReservation("slot_unavailable", 0.02)
	m.ObserveReservation("confirmed", 0.01)
	m.ObserveNotification("confirmation", "sent")
	m.ObserveHTTP("POST", "/api/appointments", 201, 0.03)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reservations.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservations.WithLabelValues("slot_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("confirmation", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/appointments", "201")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReservation("confirmed", 0.1)
		m.ObserveCancellation("cancelled")
		m.ObserveCodeIssued()
		m.ObserveRedemption("verified")
		m.ObserveNotification("sms", "failed")
		m.ObserveHTTP("GET", "/", 200, 0.1)
	})
}
