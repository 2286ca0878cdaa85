package predict

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadArtifact reads a serialized model artifact from disk. The artifact
// is a JSON document of unknown, training-pipeline-dependent shape; it is
// decoded into generic form and left for Resolve to make sense of. A
// missing file is not an error: it returns a nil artifact, which resolves
// to the heuristic fallback.
func LoadArtifact(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var artifact any
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return artifact, nil
}

// modelSpec is the common envelope every concrete model variant carries.
type modelSpec struct {
	Kind         string   `json:"kind"`
	FeatureNames []string `json:"feature_names"`
	NFeatures    int      `json:"n_features"`
	Classes      []int    `json:"classes"`
}

// parseModel attempts to interpret a decoded JSON value as one of the
// closed set of model variants. It returns (nil, false) for anything that
// is not a recognizable model.
func parseModel(v any) (*Handle, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	kind, _ := m["kind"].(string)
	if kind == "" {
		return nil, false
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return nil, false
	}

	var spec modelSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, false
	}

	var p Predictor
	switch kind {
	case kindLinear:
		p, err = newLinearModel(raw)
	case kindTree:
		p, err = newTreeModel(raw)
	case kindONNX:
		p, err = newONNXModel(raw, &spec)
	default:
		return nil, false
	}
	if err != nil || p == nil {
		return nil, false
	}

	expected := spec.NFeatures
	if expected == 0 {
		expected = len(spec.FeatureNames)
	}
	return &Handle{
		predictor:    p,
		kind:         kind,
		featureNames: spec.FeatureNames,
		expected:     expected,
		classes:      spec.Classes,
	}, true
}
