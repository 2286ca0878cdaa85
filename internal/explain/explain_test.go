package explain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPrompt_ListsFieldsInOrder(t *testing.T) {
	p := Prompt(3, map[string]any{
		"num_events":     6,
		"classification": "Orthopedic",
	})

	if !strings.Contains(p, "risk class of 3") {
		t.Fatalf("prompt must embed the class:\n%s", p)
	}
	if !strings.Contains(p, "classification: Orthopedic\n") {
		t.Fatalf("prompt must list present fields:\n%s", p)
	}
	if !strings.Contains(p, "country: <nil>\n") {
		t.Fatalf("absent fields render as nil:\n%s", p)
	}
	ci := strings.Index(p, "classification:")
	ei := strings.Index(p, "num_events:")
	if ci < 0 || ei < 0 || ci > ei {
		t.Fatalf("fields must keep canonical order:\n%s", p)
	}
}

func TestFailureExplanation_EmbedsError(t *testing.T) {
	got := FailureExplanation(errors.New("rate limited"))
	if !strings.Contains(got, "rate limited") {
		t.Fatalf("failure text must carry the cause: %q", got)
	}
	if !strings.HasPrefix(got, "(LLM failed:") {
		t.Fatalf("unexpected prefix: %q", got)
	}
}

func TestStatic(t *testing.T) {
	s := Static{Text: "fixed"}
	got, err := s.Explain(context.Background(), 1, nil)
	if err != nil || got != "fixed" {
		t.Fatalf("got (%q, %v)", got, err)
	}

	s = Static{Err: errors.New("down")}
	if _, err := s.Explain(context.Background(), 1, nil); err == nil {
		t.Fatal("expected error")
	}
}
