package predict

import (
	"testing"

	"github.com/riskpulse-ai/riskpulse/internal/encode"
)

func TestAlign_FeatureNamesReorderAndFill(t *testing.T) {
	h := &Handle{kind: kindLinear, featureNames: []string{"a", "b"}, expected: 2}
	in := InputRow{Names: []string{"b", "c"}, Values: []any{2.0, 9.0}}

	f := Align(in, h)
	if len(f.Cols) != 2 || f.Cols[0] != "a" || f.Cols[1] != "b" {
		t.Fatalf("columns must follow the model's feature names: %v", f.Cols)
	}
	if len(f.Rows) != 1 || f.Rows[0][0] != 0 || f.Rows[0][1] != 2 {
		t.Fatalf("absent feature fills 0, present reorders: %v", f.Rows)
	}
}

func TestAlign_ExpectedCountPads(t *testing.T) {
	h := &Handle{kind: kindLinear, expected: 4}
	in := InputRow{Names: []string{"x", "y"}, Values: []any{1.0, 2.0}}

	f := Align(in, h)
	if len(f.Rows[0]) != 4 {
		t.Fatalf("expected 4 features after padding, got %d", len(f.Rows[0]))
	}
	if f.Rows[0][2] != 0 || f.Rows[0][3] != 0 {
		t.Fatalf("padded cells must be zero: %v", f.Rows[0])
	}
	if f.Cols[2] != "_pad_0" || f.Cols[3] != "_pad_1" {
		t.Fatalf("padded columns get synthetic names: %v", f.Cols)
	}
}

func TestAlign_ExpectedCountTruncates(t *testing.T) {
	h := &Handle{kind: kindLinear, expected: 1}
	in := InputRow{Names: []string{"x", "y"}, Values: []any{1.0, 2.0}}

	f := Align(in, h)
	if len(f.Rows[0]) != 1 || f.Rows[0][0] != 1 {
		t.Fatalf("trailing features must be dropped: %v", f.Rows[0])
	}
	if len(f.Cols) != 1 || f.Cols[0] != "x" {
		t.Fatalf("columns must truncate with the row: %v", f.Cols)
	}
}

func TestAlign_NoShapeMetadataPassesThrough(t *testing.T) {
	h := NewHeuristicHandle()
	in := InputRow{
		Names:  []string{"classification", "num_events"},
		Values: []any{"Orthopedic", 6.0},
	}

	f := Align(in, h)
	if len(f.Cols) != 2 || f.Cols[1] != "num_events" {
		t.Fatalf("passthrough must keep input columns: %v", f.Cols)
	}
	if f.Rows[0][1] != 6 {
		t.Fatalf("numeric cell must pass through: %v", f.Rows[0])
	}
	// Text with no numeric form gets the stable hash code.
	if f.Rows[0][0] != encode.HashCode("Orthopedic") {
		t.Fatalf("text cell must hash-coerce: got %v", f.Rows[0][0])
	}
}

func TestAlign_HeuristicStillFindsEvents(t *testing.T) {
	// End to end: a raw row aligned for the fallback handle keeps the
	// event column visible to the rule.
	h := NewHeuristicHandle()
	in := InputRow{
		Names:  []string{"classification", "name_mfr", "country", "quantity_in_commerce", "num_events"},
		Values: []any{"Orthopedic", "Acme", "USA", 100.0, 6.0},
	}

	got, err := h.Predict(Align(in, h))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got[0] != 3 {
		t.Fatalf("expected class 3 for 6 events, got %d", got[0])
	}
}
