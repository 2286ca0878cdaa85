package predict

import (
	"encoding/json"
	"errors"
	"fmt"
)

// treeModel is a serialized decision tree in parallel-array form: node i
// splits on Feature[i] at Threshold[i] (left when value <= threshold), or
// is a leaf carrying LeafClass[i] when Feature[i] is negative.
type treeModel struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"children_left"`
	Right     []int     `json:"children_right"`
	LeafClass []int     `json:"leaf_class"`
	Classes   []int     `json:"classes"`
}

func newTreeModel(raw []byte) (Predictor, error) {
	var m treeModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	n := len(m.Feature)
	if n == 0 {
		return nil, errors.New("tree model has no nodes")
	}
	if len(m.Threshold) != n || len(m.Left) != n || len(m.Right) != n || len(m.LeafClass) != n {
		return nil, fmt.Errorf("tree model arrays disagree on node count %d", n)
	}
	return &m, nil
}

func (m *treeModel) Predict(f Frame) ([]int, error) {
	out := make([]int, 0, len(f.Rows))
	for i, row := range f.Rows {
		idx, err := m.walk(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, m.label(idx))
	}
	return out, nil
}

func (m *treeModel) walk(row []float64) (int, error) {
	node := 0
	// A well-formed tree terminates well before visiting every node once.
	for steps := 0; steps <= len(m.Feature); steps++ {
		feat := m.Feature[node]
		if feat < 0 {
			return m.LeafClass[node], nil
		}
		if feat >= len(row) {
			return 0, fmt.Errorf("split on feature %d but row has %d features", feat, len(row))
		}
		next := m.Right[node]
		if row[feat] <= m.Threshold[node] {
			next = m.Left[node]
		}
		if next < 0 || next >= len(m.Feature) {
			return 0, fmt.Errorf("child index %d out of range", next)
		}
		node = next
	}
	return 0, errors.New("tree walk did not terminate")
}

func (m *treeModel) label(idx int) int {
	if idx >= 0 && idx < len(m.Classes) {
		return m.Classes[idx]
	}
	return idx
}
