package classifier

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type stubCompletion struct {
	response string
	err      error
	calls    int
}

func (s *stubCompletion) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	return s.response, s.err
}

func newTestAnthropic(client completionClient) *Anthropic {
	return &Anthropic{
		client:   client,
		fallback: NewRandomWithSeed(1),
		logger:   zap.NewNop(),
	}
}

func TestAnthropicClassify_ValidResponse(t *testing.T) {
	stub := &stubCompletion{response: `{"category": "billing", "explanation": "  Mentions an invoice.  ", "confidence": 0.87}`}
	a := newTestAnthropic(stub)

	result := a.Classify(context.Background(), "Invoice issue", "Wrong amount")

	if result.Category != domain.CategoryBilling {
		t.Fatalf("category = %s, want billing", result.Category)
	}
	if result.Explanation != "Mentions an invoice." {
		t.Fatalf("explanation not trimmed: %q", result.Explanation)
	}
	if result.Confidence != 0.87 {
		t.Fatalf("confidence = %v, want 0.87", result.Confidence)
	}
}

func TestAnthropicClassify_ResponseWrappedInProse(t *testing.T) {
	stub := &stubCompletion{response: "Here is the classification:\n```json\n{\"category\": \"technical\", \"explanation\": \"An error report.\", \"confidence\": 0.9}\n```"}
	a := newTestAnthropic(stub)

	result := a.Classify(context.Background(), "s", "b")
	if result.Category != domain.CategoryTechnical {
		t.Fatalf("category = %s, want technical", result.Category)
	}
}

func TestAnthropicClassify_UnknownCategoryCoercedToOther(t *testing.T) {
	stub := &stubCompletion{response: `{"category": "shipping", "explanation": "x", "confidence": 0.5}`}
	a := newTestAnthropic(stub)

	result := a.Classify(context.Background(), "s", "b")
	if result.Category != domain.CategoryOther {
		t.Fatalf("category = %s, want other", result.Category)
	}
}

func TestAnthropicClassify_ConfidenceClamped(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"above one", `{"category": "general", "explanation": "x", "confidence": 1.7}`, 1.0},
		{"below zero", `{"category": "general", "explanation": "x", "confidence": -0.3}`, 0.0},
		{"rounded", `{"category": "general", "explanation": "x", "confidence": 0.8351}`, 0.84},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAnthropic(&stubCompletion{response: tc.raw})
			result := a.Classify(context.Background(), "s", "b")
			if result.Confidence != tc.want {
				t.Fatalf("confidence = %v, want %v", result.Confidence, tc.want)
			}
		})
	}
}

func TestAnthropicClassify_FallbackPaths(t *testing.T) {
	cases := []struct {
		name string
		stub *stubCompletion
	}{
		{"call error", &stubCompletion{err: errors.New("api down")}},
		{"no json", &stubCompletion{response: "I cannot classify this."}},
		{"malformed json", &stubCompletion{response: `{"category": "billing"`}},
		{"missing fields", &stubCompletion{response: `{"category": "billing"}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAnthropic(tc.stub)
			result := a.Classify(context.Background(), "s", "b")

			// Failures never surface; the random fallback answers instead.
			if !domain.ValidCategory(result.Category) {
				t.Fatalf("fallback category %q outside fixed set", result.Category)
			}
			if result.Explanation != randomExplanation {
				t.Fatalf("explanation = %q, want random fallback placeholder", result.Explanation)
			}
			if result.Confidence < 0.50 || result.Confidence > 1.00 {
				t.Fatalf("fallback confidence = %v, want within [0.50, 1.00]", result.Confidence)
			}
		})
	}
}

func TestAnthropicClassify_NoClientFallsBack(t *testing.T) {
	a := &Anthropic{fallback: NewRandomWithSeed(3), logger: zap.NewNop()}
	result := a.Classify(context.Background(), "s", "b")
	if result.Explanation != randomExplanation {
		t.Fatalf("expected random fallback, got %q", result.Explanation)
	}
}
