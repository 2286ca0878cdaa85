package predict

// Alternate spellings tried in order when locating the heuristic's inputs.
var (
	eventAliases    = []string{"num_events", "numEvents", "num event", "events"}
	quantityAliases = []string{"quantity_in_commerce", "quantity", "qty"}
)

// Heuristic is the rule-based fallback predictor: a stateless function of
// the reported event count. It never fails.
type Heuristic struct{}

// NewHeuristicHandle wraps the fallback rule as a resolved handle. Its
// label space is the user-facing 1-3 scale, so no class remapping applies.
func NewHeuristicHandle() *Handle {
	return &Handle{
		predictor: Heuristic{},
		kind:      kindHeuristic,
		classes:   []int{1, 2, 3},
	}
}

// Predict classifies each frame row by its event count, located by the
// alias list against the frame's column names.
func (Heuristic) Predict(f Frame) ([]int, error) {
	eventIdx := aliasIndex(f.Cols, eventAliases)
	qtyIdx := aliasIndex(f.Cols, quantityAliases)

	out := make([]int, 0, len(f.Rows))
	for _, row := range f.Rows {
		events := 0.0
		if eventIdx >= 0 && eventIdx < len(row) {
			events = row[eventIdx]
		}
		// quantity_in_commerce is read for parity with the trained models'
		// feature set but does not participate in the rule.
		if qtyIdx >= 0 && qtyIdx < len(row) {
			_ = row[qtyIdx]
		}
		out = append(out, classifyEvents(events))
	}
	return out, nil
}

// PredictRow classifies a raw, pre-alignment field map. Used when a real
// model's invocation fails mid-request.
func (Heuristic) PredictRow(row map[string]any) int {
	events := aliasValue(row, eventAliases)
	_ = aliasValue(row, quantityAliases)
	return classifyEvents(events)
}

func classifyEvents(events float64) int {
	switch {
	case events >= 5:
		return 3
	case events >= 2:
		return 2
	default:
		return 1
	}
}

func aliasIndex(cols []string, aliases []string) int {
	for _, alias := range aliases {
		for i, col := range cols {
			if col == alias {
				return i
			}
		}
	}
	return -1
}

// aliasValue takes the first present, parseable alias, defaulting to 0
// when none parse.
func aliasValue(row map[string]any, aliases []string) float64 {
	for _, alias := range aliases {
		v, ok := row[alias]
		if !ok {
			continue
		}
		if f, numeric := toFloat(v); numeric {
			return f
		}
	}
	return 0
}
