package predict

import (
	"fmt"

	"github.com/riskpulse-ai/riskpulse/internal/encode"
)

// InputRow is an ordered view of a raw input record: the caller fixes the
// column order so alignment and padding stay deterministic.
type InputRow struct {
	Names  []string
	Values []any
}

// Align reshapes an input row into the feature frame the handle expects.
// Preference order: the model's own feature names (absent names become 0),
// then its expected feature count (zero-pad or truncate trailing columns),
// then the raw input unchanged. Every cell is coerced to a float; a cell
// with no numeric form gets the stable hash code, so the predictor always
// receives a fully numeric frame.
func Align(in InputRow, h *Handle) Frame {
	if names := h.FeatureNames(); len(names) > 0 {
		row := make([]float64, len(names))
		for i, name := range names {
			if idx := indexOf(in.Names, name); idx >= 0 {
				row[i] = coerce(in.Values[idx])
			}
		}
		return Frame{Cols: append([]string(nil), names...), Rows: [][]float64{row}}
	}

	cols := append([]string(nil), in.Names...)
	row := make([]float64, len(in.Values))
	for i, v := range in.Values {
		row[i] = coerce(v)
	}

	if expected := h.ExpectedFeatureCount(); expected > 0 && expected != len(row) {
		for len(row) < expected {
			cols = append(cols, fmt.Sprintf("_pad_%d", len(row)-len(in.Values)))
			row = append(row, 0)
		}
		if len(row) > expected {
			cols = cols[:expected]
			row = row[:expected]
		}
	}

	return Frame{Cols: cols, Rows: [][]float64{row}}
}

func coerce(v any) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	return encode.HashCode(valueString(v))
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
