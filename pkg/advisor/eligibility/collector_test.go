package eligibility

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/completion"
	"bank-advisor-be/pkg/llm"
)

type scriptedProvider struct {
	replies []string
	calls   int
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if p.calls >= len(p.replies) {
		return "", errors.New("no scripted reply left")
	}
	reply := p.replies[p.calls]
	p.calls++
	return reply, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func newCollector(replies ...string) *Collector {
	gw := completion.NewGateway(&scriptedProvider{replies: replies}, 0, zap.NewNop())
	return NewCollector(gw, zap.NewNop())
}

func TestExtractMergesWithoutOverwriting(t *testing.T) {
	c := newCollector("AGE: 35\nEMPLOYMENT: salaried\nTENURE: unknown\nINCOME: unknown\nETIN: unknown\nCREDIT_HISTORY: unknown")

	transcript := []llm.Message{
		{Role: "user", Content: "I'm 28, actually no wait"},
	}
	collected := map[string]string{"age": "28"}
	collected = c.Extract(context.Background(), transcript, collected)

	if collected["age"] != "28" {
		t.Errorf("age = %q, want earlier answer %q kept", collected["age"], "28")
	}
	if collected["employment"] != "salaried" {
		t.Errorf("employment = %q, want newly extracted value", collected["employment"])
	}
}

func TestExtractIgnoresUnknownAndGarbage(t *testing.T) {
	c := newCollector("AGE: unknown\nSHOE_SIZE: 44\nnot a labeled line\nETIN: yes")

	collected := c.Extract(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil)

	if _, ok := collected["age"]; ok {
		t.Error("unknown sentinel must not be stored")
	}
	if len(collected) != 1 || collected["etin"] != "yes" {
		t.Errorf("collected = %v, want only etin", collected)
	}
}

func TestMissingFieldsOrder(t *testing.T) {
	collected := map[string]string{"age": "30", "income": "80000"}
	missing := MissingFields(collected)

	want := []string{"employment", "tenure", "etin"}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}

	// Optional fields never appear in missing.
	for _, f := range missing {
		if f == "credit_history" {
			t.Error("credit_history must not block")
		}
	}
}

func TestNextQuestionFallback(t *testing.T) {
	c := newCollector() // gateway always fails

	q := c.NextQuestion(context.Background(), nil, map[string]string{}, "gold credit card")
	if q != fieldFallbacks["age"] {
		t.Errorf("question = %q, want hardcoded age fallback", q)
	}

	done := c.NextQuestion(context.Background(), nil, map[string]string{
		"age": "30", "employment": "salaried", "tenure": "3 years", "income": "90000", "etin": "yes",
	}, "gold credit card")
	if done != "" {
		t.Errorf("question = %q, want empty when nothing is missing", done)
	}
}

func TestFormatProfile(t *testing.T) {
	collected := map[string]string{"age": "30", "etin": "yes"}
	frame := intent.Frame{
		BankingType: intent.Known("islami"),
		Tier:        intent.Known("gold"),
	}

	profile := FormatProfile(collected, frame)
	for _, want := range []string{"Age: 30", "Has E-TIN: yes", "Banking Preference: islami", "Preferred Tier: gold"} {
		if !strings.Contains(profile, want) {
			t.Errorf("profile %q missing %q", profile, want)
		}
	}

	if FormatProfile(nil, intent.Frame{}) != "No profile data collected" {
		t.Error("empty profile placeholder missing")
	}
}

func TestTargetProduct(t *testing.T) {
	frame := intent.Frame{
		ProductType: intent.Known("credit_card"),
		BankingType: intent.Known("islami"),
		Tier:        intent.Known("gold"),
	}
	if got := TargetProduct(frame); got != "gold credit card (islami banking)" {
		t.Errorf("TargetProduct = %q", got)
	}

	if got := TargetProduct(intent.Frame{}); got != "credit card (conventional banking)" {
		t.Errorf("TargetProduct defaults = %q", got)
	}
}
