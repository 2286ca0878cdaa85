package booking

import (
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("25/12/26")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := ParseDate("2026-12-25"); err == nil {
		t.Fatal("expected error for ISO date")
	}
	if _, err := ParseDate(""); err == nil {
		t.Fatal("expected error for empty date")
	}
}

func TestCalendarLink(t *testing.T) {
	d := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
	got := CalendarLink(d)
	want := "https://calendar.google.com/calendar/r/day/2026/03/07"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUserBody(t *testing.T) {
	d := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
	body := UserBody("Ana", map[string]any{
		"classification": "Orthopedic",
		"num_events":     6,
	}, d, "https://example.test/cal")

	for _, want := range []string{
		"Hello Ana,",
		"Saturday, 07 March 2026",
		"Device: Orthopedic",
		"Reported events: 6",
		"Manufacturer: N/A",
		"https://example.test/cal",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("user body missing %q:\n%s", want, body)
		}
	}
}

func TestManufacturerBody(t *testing.T) {
	d := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
	body := ManufacturerBody("Ana", "ana@example.test", map[string]any{
		"name_mfr": "Acme",
	}, "many reported events", d, "https://example.test/cal")

	for _, want := range []string{
		"User: Ana (ana@example.test)",
		"Manufacturer: Acme",
		"many reported events",
		"Appointment date: Saturday, 07 March 2026",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("manufacturer body missing %q:\n%s", want, body)
		}
	}
}

func TestManufacturerBody_BlankExplanation(t *testing.T) {
	d := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
	body := ManufacturerBody("Ana", "ana@example.test", nil, "  ", d, "link")
	if !strings.Contains(body, "No explanation provided.") {
		t.Fatalf("blank explanation should substitute the default:\n%s", body)
	}
}

func TestField_Placeholders(t *testing.T) {
	fields := map[string]any{"country": "", "name_mfr": nil, "num_events": 0}
	if got := field(fields, "country"); got != "N/A" {
		t.Fatalf("blank should render N/A, got %q", got)
	}
	if got := field(fields, "name_mfr"); got != "N/A" {
		t.Fatalf("nil should render N/A, got %q", got)
	}
	if got := field(fields, "num_events"); got != "0" {
		t.Fatalf("zero is a real value, got %q", got)
	}
}
