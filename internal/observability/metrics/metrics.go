package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking front end.
type BookingMetrics struct {
	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	viewChanges    *prometheus.CounterVec
	slotPolls      *prometheus.CounterVec
	activeCalendar prometheus.Gauge
	submissions    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total requests sent to the remote salon API",
		}, []string{"operation", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of remote salon API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		viewChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "flow",
			Name:      "view_transitions_total",
			Help:      "Booking flow view transitions",
		}, []string{"from", "to"}),
		slotPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "slots",
			Name:      "polls_total",
			Help:      "Slot directory refreshes",
		}, []string{"status"}),
		activeCalendar: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salon",
			Subsystem: "slots",
			Name:      "active_subscriptions",
			Help:      "Calendar views currently subscribed to slot polling",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "submission",
			Name:      "bookings_total",
			Help:      "Booking submissions by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.apiRequests, m.apiLatency, m.viewChanges, m.slotPolls, m.activeCalendar, m.submissions)
	return m
}

func (m *BookingMetrics) ObserveAPIRequest(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(operation, status).Inc()
	m.apiLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveViewChange(from, to string) {
	if m == nil || from == to {
		return
	}
	m.viewChanges.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveSlotPoll(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.slotPolls.WithLabelValues(status).Inc()
}

// CalendarMounted tracks live slot subscriptions; pass false on teardown.
func (m *BookingMetrics) CalendarMounted(mounted bool) {
	if m == nil {
		return
	}
	if mounted {
		m.activeCalendar.Inc()
		return
	}
	m.activeCalendar.Dec()
}

func (m *BookingMetrics) ObserveSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind, outcome).Inc()
}
