package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryMetrics(t *testing.T) {
	t.Run("counters are keyed by tags in any order", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricAdmissionDecisions, 1, T("reason", "ok"), T("allowed", "true"))
		m.Counter(MetricAdmissionDecisions, 1, T("allowed", "true"), T("reason", "ok"))
		m.Counter(MetricAdmissionDecisions, 1, T("allowed", "false"), T("reason", "booking_conflict"))

		assert.Equal(t, int64(2), m.GetCounter(MetricAdmissionDecisions, T("reason", "ok"), T("allowed", "true")))
		assert.Equal(t, int64(1), m.GetCounter(MetricAdmissionDecisions, T("reason", "booking_conflict"), T("allowed", "false")))
		assert.Zero(t, m.GetCounter(MetricAdmissionDecisions))
	})

	t.Run("gauge keeps the last value", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Gauge(MetricOutboxLag, 4)
		m.Gauge(MetricOutboxLag, 1.5)
		assert.Equal(t, 1.5, m.GetGauge(MetricOutboxLag))
	})

	t.Run("timings are copied out", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Timing(MetricAvailabilityDuration, 5*time.Millisecond, T("source", "compute"))
		m.Timing(MetricAvailabilityDuration, 7*time.Millisecond, T("source", "compute"))

		got := m.GetTimings(MetricAvailabilityDuration, T("source", "compute"))
		assert.Equal(t, []time.Duration{5 * time.Millisecond, 7 * time.Millisecond}, got)

		got[0] = 0
		assert.Equal(t, 5*time.Millisecond, m.GetTimings(MetricAvailabilityDuration, T("source", "compute"))[0])
	})
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.Counter(MetricSnapshotCache, 1, T("result", "hit"))
		m.Gauge(MetricOutboxLag, 1)
		m.Timing(MetricRefreshDuration, time.Second)
	})
}

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, "name", seriesKey("name", nil))
	assert.Equal(t, "name:a=1:b=2", seriesKey("name", []Tag{T("b", "2"), T("a", "1")}))
}
