package predict

import (
	"encoding/json"
	"errors"
	"fmt"
)

// linearModel scores each class as a weighted sum over the feature row.
// One weight row per class (argmax), or a single row for the binary case
// (positive score selects the second class).
type linearModel struct {
	Coef      [][]float64 `json:"coefficients"`
	Intercept []float64   `json:"intercepts"`
	Classes   []int       `json:"classes"`
}

func newLinearModel(raw []byte) (Predictor, error) {
	var m linearModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if len(m.Coef) == 0 {
		return nil, errors.New("linear model has no coefficients")
	}
	width := len(m.Coef[0])
	for i, row := range m.Coef {
		if len(row) != width {
			return nil, fmt.Errorf("linear model coefficient row %d has width %d, want %d", i, len(row), width)
		}
	}
	if len(m.Intercept) != 0 && len(m.Intercept) != len(m.Coef) {
		return nil, fmt.Errorf("linear model has %d intercepts for %d coefficient rows", len(m.Intercept), len(m.Coef))
	}
	return &m, nil
}

func (m *linearModel) Predict(f Frame) ([]int, error) {
	width := len(m.Coef[0])
	out := make([]int, 0, len(f.Rows))

	for i, row := range f.Rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), width)
		}

		var idx int
		if len(m.Coef) == 1 {
			if m.score(0, row) > 0 {
				idx = 1
			}
		} else {
			best := m.score(0, row)
			for c := 1; c < len(m.Coef); c++ {
				if s := m.score(c, row); s > best {
					best, idx = s, c
				}
			}
		}
		out = append(out, m.label(idx))
	}
	return out, nil
}

func (m *linearModel) score(class int, row []float64) float64 {
	s := 0.0
	if class < len(m.Intercept) {
		s = m.Intercept[class]
	}
	for j, w := range m.Coef[class] {
		s += w * row[j]
	}
	return s
}

func (m *linearModel) label(idx int) int {
	if idx < len(m.Classes) {
		return m.Classes[idx]
	}
	return idx
}
