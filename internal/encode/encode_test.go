package encode

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEncode_KnownColumn(t *testing.T) {
	tbl := New(map[string][]string{
		"classification": {"Cardiology", "Orthopedic"},
	})

	if got := tbl.Encode("classification", "Cardiology"); got != 0 {
		t.Fatalf("expected code 0, got %v", got)
	}
	if got := tbl.Encode("classification", "Orthopedic"); got != 1 {
		t.Fatalf("expected code 1, got %v", got)
	}
}

func TestEncode_UnseenValueMapsToUnknown(t *testing.T) {
	tbl := New(map[string][]string{
		"classification": {"Cardiology", "Orthopedic"},
	})

	// "Unknown" is appended after the training classes on first need.
	if got := tbl.Encode("classification", "Radiology"); got != 2 {
		t.Fatalf("expected Unknown code 2, got %v", got)
	}
	// Repeating must not grow the class list again.
	if got := tbl.Encode("classification", "Neurology"); got != 2 {
		t.Fatalf("expected Unknown code 2 on repeat, got %v", got)
	}
	if got := tbl.Encode("classification", "Orthopedic"); got != 1 {
		t.Fatalf("known codes must be stable after augmentation, got %v", got)
	}
}

func TestEncode_TableWithExplicitUnknown(t *testing.T) {
	tbl := New(map[string][]string{
		"country": {"Unknown", "USA"},
	})
	if got := tbl.Encode("country", "Mars"); got != 0 {
		t.Fatalf("expected existing Unknown code 0, got %v", got)
	}
	if got := tbl.Encode("country", "USA"); got != 1 {
		t.Fatalf("expected code 1, got %v", got)
	}
}

func TestEncode_UnknownColumnParsesNumbers(t *testing.T) {
	tbl := New(nil)
	if got := tbl.Encode("quantity_in_commerce", "42.5"); got != 42.5 {
		t.Fatalf("expected 42.5, got %v", got)
	}
}

func TestEncode_UnknownColumnHashesText(t *testing.T) {
	tbl := New(nil)
	a := tbl.Encode("name_mfr", "Acme Medical")
	b := tbl.Encode("name_mfr", "Acme Medical")
	if a != b {
		t.Fatalf("hash fallback must be deterministic: %v vs %v", a, b)
	}
	if a < 0 || a >= 1000 {
		t.Fatalf("hash code out of range: %v", a)
	}
	if a != HashCode("Acme Medical") {
		t.Fatalf("Encode should delegate to HashCode, got %v want %v", a, HashCode("Acme Medical"))
	}
}

func TestEncode_NilRendersAsNone(t *testing.T) {
	tbl := New(map[string][]string{"country": {"None", "USA"}})
	if got := tbl.Encode("country", nil); got != 0 {
		t.Fatalf("nil should encode as the \"None\" class, got %v", got)
	}
}

func TestLoad_MissingFileYieldsEmptyTable(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if tbl.Has("classification") {
		t.Fatal("empty table should know no columns")
	}
}

func TestLoad_ReadsClassLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encoders.json")
	if err := os.WriteFile(path, []byte(`{"country":["Germany","USA"]}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !tbl.Has("country") {
		t.Fatal("expected country column")
	}
	if got := tbl.Encode("country", "USA"); got != 1 {
		t.Fatalf("expected code 1, got %v", got)
	}
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encoders.json")
	if err := os.WriteFile(path, []byte(`{"country": 3}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed table")
	}
}
