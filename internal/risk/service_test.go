package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/riskpulse-ai/riskpulse/internal/encode"
	"github.com/riskpulse-ai/riskpulse/internal/explain"
	"github.com/riskpulse-ai/riskpulse/internal/predict"
)

func TestPredict_NoModelUsesHeuristic(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)

	res, err := svc.Predict(context.Background(), map[string]any{
		"classification": "Orthopedic",
		"num_events":     6,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.PredictedClass != 3 {
		t.Fatalf("6 events should classify 3, got %d", res.PredictedClass)
	}
	if res.RawOutput != 3 {
		t.Fatalf("heuristic output is already 1-3, got raw %d", res.RawOutput)
	}
	if res.Explanation != explain.DefaultExplanation {
		t.Fatalf("nil explainer should return the default text, got %q", res.Explanation)
	}
}

func TestPredict_InputEchoedWithNilAbsents(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)

	res, err := svc.Predict(context.Background(), map[string]any{"num_events": 1})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Input) != 5 {
		t.Fatalf("all expected fields must be echoed, got %v", res.Input)
	}
	if res.Input["country"] != nil {
		t.Fatalf("absent field must echo as nil, got %v", res.Input["country"])
	}
	if res.Input["num_events"] != 1 {
		t.Fatalf("present field must echo as sent, got %v", res.Input["num_events"])
	}
}

func TestPredict_RejectsEmptyPayload(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)

	for name, fields := range map[string]map[string]any{
		"empty":             {},
		"only nils":         {"num_events": nil},
		"unexpected fields": {"serial": "X1"},
	} {
		if _, err := svc.Predict(context.Background(), fields); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: got %v", name, err)
		}
	}
}

// failingPredictor always errors, standing in for a model that loads but
// cannot be invoked.
type failingPredictor struct{}

func (failingPredictor) Predict(predict.Frame) ([]int, error) {
	return nil, errors.New("shape mismatch")
}

func TestPredict_InvocationFailureFallsBack(t *testing.T) {
	handle := predict.NewHandle(failingPredictor{}, "linear", nil, 0, []int{0, 1, 2})
	svc := NewService(handle, nil, nil, nil)

	res, err := svc.Predict(context.Background(), map[string]any{"num_events": 2})
	if err != nil {
		t.Fatalf("invocation failure must not surface: %v", err)
	}
	if res.RawOutput != 2 {
		t.Fatalf("fallback rule should yield 2 for 2 events, got %d", res.RawOutput)
	}
	// The handle's zero-based label space still remaps the fallback output.
	if res.PredictedClass != 3 {
		t.Fatalf("expected remapped class 3, got %d", res.PredictedClass)
	}
}

// constPredictor returns a fixed label for every row.
type constPredictor struct{ label int }

func (p constPredictor) Predict(f predict.Frame) ([]int, error) {
	out := make([]int, len(f.Rows))
	for i := range out {
		out[i] = p.label
	}
	return out, nil
}

func TestPredict_ZeroBasedLabelsRemapped(t *testing.T) {
	handle := predict.NewHandle(constPredictor{label: 0}, "linear", nil, 5, []int{0, 1, 2})
	svc := NewService(handle, nil, nil, nil)

	res, err := svc.Predict(context.Background(), map[string]any{"num_events": 0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.RawOutput != 0 || res.PredictedClass != 1 {
		t.Fatalf("raw 0 in a zero-based space maps to 1, got raw %d class %d", res.RawOutput, res.PredictedClass)
	}
}

func TestPredict_OneBasedLabelsUntouched(t *testing.T) {
	handle := predict.NewHandle(constPredictor{label: 2}, "linear", nil, 5, []int{1, 2, 3})
	svc := NewService(handle, nil, nil, nil)

	res, err := svc.Predict(context.Background(), map[string]any{"num_events": 0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.PredictedClass != 2 {
		t.Fatalf("one-based labels should pass through, got %d", res.PredictedClass)
	}
}

func TestPredict_CategoricalsEncodedBeforeAlignment(t *testing.T) {
	encoders := encode.New(map[string][]string{
		"classification": {"Cardiology", "Orthopedic"},
	})
	// A model trained on just the classification code: class index 1 pushes
	// the positive side of the binary decision.
	handle := predict.NewHandle(thresholdPredictor{}, "linear", []string{"classification"}, 1, []int{1, 3})
	svc := NewService(handle, encoders, nil, nil)

	res, err := svc.Predict(context.Background(), map[string]any{"classification": "Orthopedic"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.PredictedClass != 3 {
		t.Fatalf("encoded class 1 should cross the threshold, got %d", res.PredictedClass)
	}
}

// thresholdPredictor labels 3 when the first feature is positive, else 1.
type thresholdPredictor struct{}

func (thresholdPredictor) Predict(f predict.Frame) ([]int, error) {
	out := make([]int, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = 1
		if len(row) > 0 && row[0] > 0 {
			out[i] = 3
		}
	}
	return out, nil
}

func TestPredict_ExplainerTextAndFailure(t *testing.T) {
	svc := NewService(nil, nil, explain.Static{Text: "events driven"}, nil)
	res, err := svc.Predict(context.Background(), map[string]any{"num_events": 1})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Explanation != "events driven" {
		t.Fatalf("unexpected explanation: %q", res.Explanation)
	}

	svc = NewService(nil, nil, explain.Static{Err: errors.New("boom")}, nil)
	res, err = svc.Predict(context.Background(), map[string]any{"num_events": 1})
	if err != nil {
		t.Fatalf("explainer failure must not surface: %v", err)
	}
	if res.Explanation != explain.FailureExplanation(errors.New("boom")) {
		t.Fatalf("unexpected failure text: %q", res.Explanation)
	}
}

func TestRemapClass(t *testing.T) {
	cases := []struct {
		raw     int
		classes []int
		want    int
	}{
		{0, []int{0, 1, 2}, 1},
		{2, []int{0, 1, 2}, 3},
		{1, []int{1, 2, 3}, 1},
		{3, []int{1, 2, 3}, 3},
		{-1, []int{-1, 1}, -1},
		{0, nil, 1},
		{2, nil, 3},
		{5, nil, 5},
	}
	for _, tc := range cases {
		if got := remapClass(tc.raw, tc.classes); got != tc.want {
			t.Fatalf("remapClass(%d, %v) = %d, want %d", tc.raw, tc.classes, got, tc.want)
		}
	}
}
