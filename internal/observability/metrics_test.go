package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordAnnouncement("obs-test", ResultAccepted, 1)
	RecordAnnouncement("obs-test", ResultCapacity, 1)
	RecordAnnouncement("obs-test", ResultCapacity, 1)
	RecordWakeup("obs-test")
	RecordInterrupt("obs-test", ResultDelivered)
	RecordNeighbours("obs-test", 3)

	if got := testutil.ToFloat64(announcements.WithLabelValues("obs-test", ResultCapacity)); got != 2 {
		t.Fatalf("unexpected capacity count: %v", got)
	}
	if got := testutil.ToFloat64(neighbours.WithLabelValues("obs-test")); got != 3 {
		t.Fatalf("unexpected neighbour gauge: %v", got)
	}
	if got := testutil.ToFloat64(interrupts.WithLabelValues("obs-test", ResultDelivered)); got != 1 {
		t.Fatalf("unexpected interrupt count: %v", got)
	}
}
