package completion

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/llm"
)

// Reasoning models wrap their internal monologue in <think> blocks; that text
// must never reach a prompt chain or the end user.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Gateway is the single choke point for text-completion calls. Every failure
// mode (network, timeout, non-2xx, garbage output) collapses to an empty
// string so callers degrade with fallbacks instead of propagating errors.
type Gateway struct {
	provider llm.LLMProvider
	timeout  time.Duration
	logger   *zap.Logger
}

func NewGateway(provider llm.LLMProvider, timeout time.Duration, logger *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Complete sends a system + user instruction pair and returns the model text.
// Returns "" on any failure; never returns an error.
func (g *Gateway) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) string {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	history := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	opts := []llm.Option{llm.WithTemperature(temperature)}
	if maxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(maxTokens))
	}

	raw, err := g.provider.Chat(callCtx, history, opts...)
	if err != nil {
		g.logger.Warn("completion call failed", zap.Error(err))
		return ""
	}

	return StripReasoning(raw)
}

// StripReasoning removes delimited internal-reasoning markup and trims the
// remainder. Unclosed blocks are treated as all-reasoning output.
func StripReasoning(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	if idx := strings.Index(s, "<think>"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
