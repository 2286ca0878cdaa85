// Package predict resolves a serialized model artifact of unknown shape
// into a usable predictor, aligns arbitrary input fields to the shape that
// predictor expects, and supplies the rule-based fallback used when no
// model is available.
package predict

import (
	"fmt"
	"strconv"
	"strings"
)

// Frame is a fully numeric feature matrix with named columns. Column names
// survive alignment so the heuristic fallback can still locate its fields
// when it ends up as the resolved predictor.
type Frame struct {
	Cols []string
	Rows [][]float64
}

// Predictor is anything that can assign a class label per frame row.
type Predictor interface {
	Predict(f Frame) ([]int, error)
}

// Handle wraps a resolved predictor together with whatever shape metadata
// the underlying model exposes. It is resolved once at startup, shared
// read-only for the process lifetime, and never re-resolved per request.
type Handle struct {
	predictor    Predictor
	kind         string
	featureNames []string
	expected     int
	classes      []int
}

// NewHandle wraps an arbitrary predictor with explicit shape metadata.
// Resolve is the usual constructor; this exists for callers supplying
// their own predictor implementation.
func NewHandle(p Predictor, kind string, featureNames []string, expected int, classes []int) *Handle {
	return &Handle{
		predictor:    p,
		kind:         kind,
		featureNames: featureNames,
		expected:     expected,
		classes:      classes,
	}
}

// Predict delegates to the resolved predictor.
func (h *Handle) Predict(f Frame) ([]int, error) {
	if h == nil || h.predictor == nil {
		return nil, fmt.Errorf("predictor handle is empty")
	}
	return h.predictor.Predict(f)
}

// Kind names the resolved variant: linear, tree, onnx, or heuristic.
func (h *Handle) Kind() string {
	if h == nil {
		return ""
	}
	return h.kind
}

// FeatureNames returns the ordered feature names the model was trained
// with, or nil when unknown.
func (h *Handle) FeatureNames() []string {
	if h == nil {
		return nil
	}
	return h.featureNames
}

// ExpectedFeatureCount returns the number of input features the model
// expects, or 0 when unknown.
func (h *Handle) ExpectedFeatureCount() int {
	if h == nil {
		return 0
	}
	return h.expected
}

// ClassLabels returns the model's label space, or nil when unknown.
func (h *Handle) ClassLabels() []int {
	if h == nil {
		return nil
	}
	return h.classes
}

// IsHeuristic reports whether the handle is the rule-based fallback.
func (h *Handle) IsHeuristic() bool {
	return h != nil && h.kind == kindHeuristic
}

const (
	kindLinear    = "linear"
	kindTree      = "tree"
	kindONNX      = "onnx"
	kindHeuristic = "heuristic"
)

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func valueString(v any) string {
	if v == nil {
		return "None"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
