package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveAdmission(t *testing.T) {
	m := NewWithRegistry("facility-booking", prometheus.NewRegistry())

	m.ObserveAdmission("rejected", "SLOT_FULL")
	m.ObserveAdmission("rejected", "SLOT_FULL")
	m.ObserveAdmission("admitted", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.admissionDecisions.WithLabelValues("facility-booking", "rejected", "SLOT_FULL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.admissionDecisions.WithLabelValues("facility-booking", "admitted", "")))
}

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := NewWithRegistry("facility-booking", prometheus.NewRegistry())

	m.ObserveHTTP("POST", "/api/v1/reservations", 201, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("facility-booking", "POST", "/api/v1/reservations", "201")))
}
