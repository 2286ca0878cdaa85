// Package explain turns a predicted risk class into a short natural-
// language rationale by delegating to an external language model. The
// output is consumed as an opaque string; every failure mode substitutes a
// fixed explanation so the prediction path never depends on the
// collaborator being up.
package explain

import (
	"context"
	"fmt"
	"strings"
)

// FieldOrder fixes how device fields are listed in the prompt.
var FieldOrder = []string{"classification", "name_mfr", "country", "quantity_in_commerce", "num_events"}

// DefaultExplanation is returned when no explainer is configured.
const DefaultExplanation = "Automated explanation not available (LLM disabled). Likely contributing factors: reported events, manufacturer history, and market exposure."

// Explainer generates a short rationale for an assigned risk class.
type Explainer interface {
	Explain(ctx context.Context, riskClass int, fields map[string]any) (string, error)
}

// FailureExplanation is the substitute text when the collaborator call
// fails mid-request.
func FailureExplanation(err error) string {
	return fmt.Sprintf("(LLM failed: %v) Short reason: many reported events or poor market controls.", err)
}

// Prompt renders the fixed template embedding the predicted class and the
// input fields.
func Prompt(riskClass int, fields map[string]any) string {
	var details strings.Builder
	for _, name := range FieldOrder {
		v, ok := fields[name]
		if !ok {
			v = nil
		}
		fmt.Fprintf(&details, "%s: %v\n", name, v)
	}

	return fmt.Sprintf(`You are a medical device risk specialist.
A predictive model has assigned this device a risk class of %d.
Device details:
%s
Provide a short professional explanation (2-4 lines) of why this risk class might have been assigned.`, riskClass, details.String())
}

// Static is a fixed-response explainer for tests and disabled setups.
type Static struct {
	Text string
	Err  error
}

func (s Static) Explain(ctx context.Context, riskClass int, fields map[string]any) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}
