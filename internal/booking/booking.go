// Package booking formats follow-up appointment notifications for a
// flagged device: the calendar link and the two email bodies sent to the
// user and the manufacturer.
package booking

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "02/01/06" // DD/MM/YY

// ParseDate parses a DD/MM/YY appointment date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("appointment date parsing failed, use DD/MM/YY format: %w", err)
	}
	return t, nil
}

// CalendarLink builds a Google Calendar day view link for the appointment.
func CalendarLink(t time.Time) string {
	return fmt.Sprintf("https://calendar.google.com/calendar/r/day/%d/%02d/%02d",
		t.Year(), int(t.Month()), t.Day())
}

// UserBody composes the confirmation email sent to the device owner.
func UserBody(userName string, fields map[string]any, appt time.Time, link string) string {
	return fmt.Sprintf(`Hello %s,

Your device has been flagged for additional attention.

Appointment details:
Date: %s
%s
Calendar link: %s

Regards,
Automated Booking System
`, userName, appt.Format("Monday, 02 January 2006"), deviceDetails(fields), link)
}

// ManufacturerBody composes the escalation email sent to the manufacturer,
// including the model's explanation.
func ManufacturerBody(userName, userEmail string, fields map[string]any, explanation string, appt time.Time, link string) string {
	if strings.TrimSpace(explanation) == "" {
		explanation = "No explanation provided."
	}
	return fmt.Sprintf(`Manufacturer team,

A device failure / elevated risk has been detected and an appointment has been scheduled.

User: %s (%s)
%s
AI Explanation:
%s

Appointment date: %s
Calendar link: %s

Please reach out to the user for remediation.
`, userName, userEmail, deviceDetails(fields), explanation, appt.Format("Monday, 02 January 2006"), link)
}

func deviceDetails(fields map[string]any) string {
	return fmt.Sprintf(`Device: %s
Manufacturer: %s
Country: %s
Quantity in commerce: %s
Reported events: %s
`, field(fields, "classification"), field(fields, "name_mfr"), field(fields, "country"),
		field(fields, "quantity_in_commerce"), field(fields, "num_events"))
}

func field(fields map[string]any, name string) string {
	v, ok := fields[name]
	if !ok || v == nil {
		return "N/A"
	}
	s := fmt.Sprintf("%v", v)
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
