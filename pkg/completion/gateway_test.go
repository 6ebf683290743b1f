package completion

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/llm"
)

type scriptedProvider struct {
	reply string
	err   error
}

func (p *scriptedProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return p.reply, p.err
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func TestCompleteStripsReasoning(t *testing.T) {
	g := NewGateway(&scriptedProvider{reply: "<think>hmm, the user wants gold</think>TIER: gold"}, 0, zap.NewNop())

	got := g.Complete(context.Background(), "sys", "user", 0.0, 50)
	if got != "TIER: gold" {
		t.Errorf("Complete() = %q, want %q", got, "TIER: gold")
	}
}

func TestCompleteReturnsEmptyOnError(t *testing.T) {
	g := NewGateway(&scriptedProvider{err: errors.New("connection refused")}, 0, zap.NewNop())

	if got := g.Complete(context.Background(), "sys", "user", 0.0, 50); got != "" {
		t.Errorf("Complete() = %q, want empty string on provider error", got)
	}
}

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no markup", "plain answer", "plain answer"},
		{"single block", "<think>reasoning</think>answer", "answer"},
		{"multiline block", "<think>line one\nline two</think>\nanswer", "answer"},
		{"multiple blocks", "<think>a</think>first <think>b</think>second", "first second"},
		{"unclosed block", "partial<think>never closed", "partial"},
		{"only reasoning", "<think>all of it</think>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripReasoning(tt.in); got != tt.want {
				t.Errorf("StripReasoning(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
