package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok && want == pair.GetValue() {
			matched++
		}
	}
	return matched == len(labels)
}

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveAPIRequest("create_appointment", "201", 0.2)
	m.ObserveAPIRequest("create_appointment", "201", 0.1)
	m.ObserveViewChange("SlotCalendar", "ConfirmationForm")
	m.ObserveViewChange("SlotCalendar", "SlotCalendar")
	m.ObserveSlotPoll(false)
	m.CalendarMounted(true)
	m.CalendarMounted(false)
	m.ObserveSubmission("modify", "partial_failure")

	if got := counterValue(t, reg, "salon_api_requests_total", map[string]string{"operation": "create_appointment", "status": "201"}); got != 2 {
		t.Fatalf("expected 2 api requests, got %v", got)
	}
	if got := counterValue(t, reg, "salon_flow_view_transitions_total", map[string]string{"from": "SlotCalendar", "to": "ConfirmationForm"}); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
	if got := counterValue(t, reg, "salon_slots_polls_total", map[string]string{"status": "error"}); got != 1 {
		t.Fatalf("expected 1 failed poll, got %v", got)
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveAPIRequest("me", "200", 0.1)
	m.ObserveViewChange("Landing", "AuthForm")
	m.ObserveSlotPoll(true)
	m.CalendarMounted(true)
	m.ObserveSubmission("book", "ok")
}
