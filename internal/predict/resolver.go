package predict

import "sort"

// Key names training pipelines conventionally nest an estimator under,
// probed in priority order before any exhaustive search.
var containerKeys = []string{"model", "estimator", "classifier", "clf", "pipeline", "best_estimator_"}

// Field names wrapper objects (grid searches, calibrators) store their
// fitted estimator under.
var wrapperKeys = []string{"best_estimator_", "estimator_", "clf", "model_"}

// Resolve finds or synthesizes a usable predictor from a deserialized
// model artifact of arbitrary shape. It never fails: when no strategy
// yields a recognizable model, the heuristic fallback is returned. Callers
// resolve once at startup and hold the handle for the process lifetime.
func Resolve(artifact any) *Handle {
	if h, ok := resolve(artifact); ok {
		return h
	}
	return NewHeuristicHandle()
}

func resolve(v any) (*Handle, bool) {
	if v == nil {
		return nil, false
	}

	// The artifact may itself be the model.
	if h, ok := parseModel(v); ok {
		return h, true
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}

	// Conventional container keys, in priority order.
	for _, key := range containerKeys {
		if inner, present := m[key]; present {
			if h, ok := parseModel(inner); ok {
				return h, true
			}
		}
	}

	// Depth-first over every value, deterministically ordered.
	for _, key := range sortedKeys(m) {
		if h, ok := resolve(m[key]); ok {
			return h, true
		}
	}

	// Wrapper-object field names. For a JSON artifact these are map keys
	// too; kept as a distinct probe to preserve the resolution order of
	// the original extraction logic.
	for _, key := range wrapperKeys {
		if inner, present := m[key]; present {
			if h, ok := parseModel(inner); ok {
				return h, true
			}
		}
	}

	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
