package predict

import (
	"encoding/json"
	"testing"
)

// decode round-trips a literal through JSON so resolver tests see the
// same generic shapes LoadArtifact produces.
func decode(t *testing.T, literal string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(literal), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

const linearFixture = `{
	"kind": "linear",
	"coefficients": [[1, 0], [0, 1], [-1, -1]],
	"intercepts": [0, 0, 0],
	"classes": [1, 2, 3],
	"feature_names": ["num_events", "quantity_in_commerce"]
}`

func TestResolve_DirectModel(t *testing.T) {
	h := Resolve(decode(t, linearFixture))
	if h.Kind() != "linear" {
		t.Fatalf("expected linear, got %q", h.Kind())
	}
	if got := h.FeatureNames(); len(got) != 2 || got[0] != "num_events" {
		t.Fatalf("unexpected feature names: %v", got)
	}
	if h.ExpectedFeatureCount() != 2 {
		t.Fatalf("expected feature count 2, got %d", h.ExpectedFeatureCount())
	}
}

func TestResolve_ContainerKey(t *testing.T) {
	artifact := decode(t, `{"metadata": {"trained": "2024-01-01"}, "model": `+linearFixture+`}`)
	h := Resolve(artifact)
	if h.Kind() != "linear" {
		t.Fatalf("expected linear from container, got %q", h.Kind())
	}
}

func TestResolve_NestedSearch(t *testing.T) {
	artifact := decode(t, `{"bundle": {"inner": {"clf": `+linearFixture+`}}}`)
	h := Resolve(artifact)
	if h.Kind() != "linear" {
		t.Fatalf("expected linear from nested search, got %q", h.Kind())
	}
}

func TestResolve_WrapperKey(t *testing.T) {
	artifact := decode(t, `{"best_estimator_": `+linearFixture+`}`)
	h := Resolve(artifact)
	if h.Kind() != "linear" {
		t.Fatalf("expected linear from wrapper, got %q", h.Kind())
	}
}

func TestResolve_ContainerBeatsSearchOrder(t *testing.T) {
	// "aaa" sorts before "model", but the container probe runs first.
	tree := `{"kind": "tree", "feature": [-1], "threshold": [0], "children_left": [-1], "children_right": [-1], "leaf_class": [2], "classes": [1, 2, 3]}`
	artifact := decode(t, `{"aaa": `+tree+`, "model": `+linearFixture+`}`)
	h := Resolve(artifact)
	if h.Kind() != "linear" {
		t.Fatalf("container key must win over key-order search, got %q", h.Kind())
	}
}

func TestResolve_FallsBackToHeuristic(t *testing.T) {
	for name, artifact := range map[string]any{
		"nil":             nil,
		"empty map":       map[string]any{},
		"scalar":          decode(t, `42`),
		"unknown kind":    decode(t, `{"kind": "svm", "support_vectors": []}`),
		"malformed model": decode(t, `{"kind": "linear", "coefficients": []}`),
		"no model inside": decode(t, `{"metadata": {"trained": "2024-01-01"}}`),
	} {
		h := Resolve(artifact)
		if !h.IsHeuristic() {
			t.Fatalf("%s: expected heuristic fallback, got %q", name, h.Kind())
		}
	}
}
