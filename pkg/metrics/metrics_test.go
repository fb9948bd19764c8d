package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveBooking(t *testing.T) {
	m := New("schedule")

	m.ObserveBooking(BookingResultBooked, 2)
	m.ObserveBooking(BookingResultConflict, 0)
	m.ObserveRelease(2)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.bookingsTotal.WithLabelValues(BookingResultBooked)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.bookingsTotal.WithLabelValues(BookingResultConflict)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.slotsBookedTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.slotsReleasedTotal))
}

func TestMetrics_ObserveDBQuery(t *testing.T) {
	m := New("schedule")

	m.ObserveDBQuery("select", time.Millisecond, nil)
	m.ObserveDBQuery("update", time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(0), testutil.ToFloat64(m.dbQueryErrors.WithLabelValues("select")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dbQueryErrors.WithLabelValues("update")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveBooking(BookingResultBooked, 1)
		m.ObserveRelease(1)
		m.ObserveHTTPRequest("GET", "/api/v1/slots", 200, time.Millisecond)
		m.ObserveDBQuery("select", time.Millisecond, nil)
		m.SetDBPoolStats(1, 1, 0, 0)
		m.ObserveRPCCommand("get_shifts", true)
		m.IncRateLimited()
	})
}
