package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("test_endpoint")
	})

	before := testutil.ToFloat64(bookingsCreated)
	IncBookingCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(bookingsCreated))

	IncBookingDecision("APPROVED")
	IncBookingDecision("APPROVED")
	assert.Equal(t, float64(2), testutil.ToFloat64(bookingDecisions.WithLabelValues("APPROVED")))
}
