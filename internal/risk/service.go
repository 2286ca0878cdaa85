// Package risk orchestrates a single device risk prediction: categorical
// encoding, feature alignment, model invocation with heuristic fallback,
// class remapping, and the explanation call.
package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskpulse-ai/riskpulse/internal/encode"
	"github.com/riskpulse-ai/riskpulse/internal/explain"
	"github.com/riskpulse-ai/riskpulse/internal/predict"
	"github.com/riskpulse-ai/riskpulse/internal/redact"
	"github.com/riskpulse-ai/riskpulse/internal/telemetry"
)

// ErrInvalidInput marks a structurally unusable prediction payload.
var ErrInvalidInput = errors.New("invalid prediction input")

// Device fields the service reads, in canonical order.
var fieldOrder = []string{"classification", "name_mfr", "country", "quantity_in_commerce", "num_events"}

var categoricalFields = map[string]bool{
	"classification": true,
	"name_mfr":       true,
	"country":        true,
}

// Result is the outcome of one prediction.
type Result struct {
	PredictedClass int            `json:"predicted_class"`
	RawOutput      int            `json:"raw_model_output"`
	Explanation    string         `json:"explanation"`
	Input          map[string]any `json:"input_data"`
}

// Service holds the process-lifetime prediction state: the resolved
// predictor handle and encoder table are read-only after construction.
type Service struct {
	handle    *predict.Handle
	encoders  *encode.Table
	explainer explain.Explainer
	heuristic predict.Heuristic
	tel       *telemetry.Provider
}

// NewService wires a prediction service around an already-resolved handle.
func NewService(handle *predict.Handle, encoders *encode.Table, explainer explain.Explainer, tel *telemetry.Provider) *Service {
	if handle == nil {
		handle = predict.NewHeuristicHandle()
	}
	if encoders == nil {
		encoders = encode.New(nil)
	}
	return &Service{
		handle:    handle,
		encoders:  encoders,
		explainer: explainer,
		tel:       tel,
	}
}

// Handle exposes the resolved predictor, e.g. for health reporting.
func (s *Service) Handle() *predict.Handle {
	return s.handle
}

// Predict runs the full pipeline for one device. Model-side failures never
// surface: an invocation error falls back to the heuristic rule over the
// pre-alignment row. Only a payload with every expected field absent is
// rejected.
func (s *Service) Predict(ctx context.Context, fields map[string]any) (*Result, error) {
	if !anyFieldPresent(fields) {
		return nil, fmt.Errorf("%w: none of %v present", ErrInvalidInput, fieldOrder)
	}

	// Echo all expected fields back, absent ones as nil, like the intake
	// form the caller sees.
	input := make(map[string]any, len(fieldOrder))
	for _, name := range fieldOrder {
		input[name] = fields[name]
	}

	row := predict.InputRow{
		Names:  append([]string(nil), fieldOrder...),
		Values: make([]any, len(fieldOrder)),
	}
	for i, name := range fieldOrder {
		v := input[name]
		if categoricalFields[name] {
			row.Values[i] = s.encoders.Encode(name, v)
		} else {
			row.Values[i] = v
		}
	}

	frame := predict.Align(row, s.handle)

	start := time.Now()
	fallback := false
	var raw int
	labels, err := s.handle.Predict(frame)
	if err != nil || len(labels) == 0 {
		if err != nil {
			redact.Logf("model predict failed, using heuristic fallback: %v", err)
		}
		fallback = true
		raw = s.heuristic.PredictRow(input)
	} else {
		raw = labels[0]
	}
	s.tel.RecordPrediction(s.handle.Kind(), float64(time.Since(start).Milliseconds()), fallback)

	predicted := remapClass(raw, s.handle.ClassLabels())

	result := &Result{
		PredictedClass: predicted,
		RawOutput:      raw,
		Input:          input,
	}
	result.Explanation = s.explanation(ctx, predicted, input)
	return result, nil
}

// remapClass converts a zero-based label space to the user-facing 1-3
// scale. Best-effort: when the label space is unknown, a raw output in
// [0,2] is assumed zero-based.
func remapClass(raw int, classes []int) int {
	if len(classes) > 0 {
		min := classes[0]
		allNonNegative := true
		for _, c := range classes {
			if c < 0 {
				allNonNegative = false
				break
			}
			if c < min {
				min = c
			}
		}
		if allNonNegative && min == 0 && raw >= 0 {
			return raw + 1
		}
		return raw
	}
	if raw >= 0 && raw <= 2 {
		return raw + 1
	}
	return raw
}

func (s *Service) explanation(ctx context.Context, predicted int, input map[string]any) string {
	if s.explainer == nil {
		return explain.DefaultExplanation
	}

	start := time.Now()
	text, err := s.explainer.Explain(ctx, predicted, input)
	s.tel.RecordExplanation(float64(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		redact.Logf("explanation call failed: %v", err)
		return explain.FailureExplanation(err)
	}
	return text
}

func anyFieldPresent(fields map[string]any) bool {
	for _, name := range fieldOrder {
		if v, ok := fields[name]; ok && v != nil {
			return true
		}
	}
	return false
}
