// Package calendar renders a booked appointment as a calendar invite.
package calendar

import (
	"strings"
	"time"

	"github.com/wolfman30/salon-booking-web/internal/salon"
)

const (
	// ContentType is served with the invite.
	ContentType = "text/calendar"
	// Filename is the suggested download name.
	Filename = "appointment.ics"

	stampLayout = "20060102T150405Z"
)

// ICS returns a minimal VCALENDAR with one VEVENT for appt. Times are UTC
// without fractional seconds; lines are joined with "\n".
func ICS(appt salon.Appointment) string {
	start, end := appt.StartTime.Time, appt.EndTime.Time
	if start.IsZero() && appt.TimeSlot != nil {
		start, end = appt.TimeSlot.StartTime.Time, appt.TimeSlot.EndTime.Time
	}

	summary := appt.Service
	if summary == "" {
		summary = "Appointment"
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"SUMMARY:" + clean(summary),
		"LOCATION:" + clean(appt.Location),
		"DTSTART:" + stamp(start),
		"DTEND:" + stamp(end),
		"DESCRIPTION:Appointment with " + clean(appt.CustomerName),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\n")
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Second).Format(stampLayout)
}

// clean keeps user text on its own content line.
func clean(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
