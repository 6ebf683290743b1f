package stage

import (
	"context"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/completion"
)

// Stage names double as the agent-chain labels the API reports back.
type Stage string

const (
	StageRetrieve Stage = "Product Retriever"
	StageCompare  Stage = "Comparator"
	StageAssess   Stage = "Eligibility Analyzer"
	StageFormat   Stage = "Formatter"
)

// Retriever is the product-search boundary the sequencer runs through.
type Retriever interface {
	Retrieve(ctx context.Context, query string, frame intent.Frame) (text string, names []string, err error)
}

// Input carries everything one generation pass needs. CachedProducts is the
// retrieval text surviving from earlier turns, empty when none is cached.
type Input struct {
	Query          string
	Type           intent.IntentType
	Frame          intent.Frame
	CachedProducts string
	Profile        string
}

// Output is the generation result. Retrieved is non-empty exactly when the
// retrieval stage ran this turn, so the caller knows to refresh the cache.
type Output struct {
	Response       string
	Retrieved      string
	RetrievedNames []string
	Executed       []Stage
}

// Sequencer runs the generation stages in fixed order, executing only the
// ones the intent type and cache state call for. The formatter always runs
// last and is the only stage whose text reaches the customer; the whole pass
// never fails.
type Sequencer struct {
	gateway   *completion.Gateway
	retriever Retriever
	logger    *zap.Logger
}

func NewSequencer(gateway *completion.Gateway, retriever Retriever, logger *zap.Logger) *Sequencer {
	return &Sequencer{
		gateway:   gateway,
		retriever: retriever,
		logger:    logger,
	}
}

// Run executes the selected stages and returns the formatted response.
func (s *Sequencer) Run(ctx context.Context, in Input) Output {
	// Retrieval runs only on a cold cache. Filter changes cleared the cache
	// upstream, so a warm cache always matches the current frame.
	needsRetrieval := in.CachedProducts == ""
	needsComparison := in.Type == intent.IntentComparison
	needsAssessment := in.Type == intent.IntentEligibilityCheck

	s.logger.Info("stage plan",
		zap.String("intent_type", string(in.Type)),
		zap.Bool("retrieval", needsRetrieval),
		zap.Bool("comparison", needsComparison),
		zap.Bool("assessment", needsAssessment),
	)

	var out Output
	products := in.CachedProducts

	if needsRetrieval {
		out.Executed = append(out.Executed, StageRetrieve)

		query := in.Query
		if needsComparison {
			query += "\n\nCOMPARISON REQUEST: the customer wants to compare products. Include both Islamic and Conventional variants when the criteria do not pin one down."
		}

		text, names, err := s.retriever.Retrieve(ctx, query, in.Frame)
		if err != nil {
			s.logger.Error("product retrieval failed", zap.Error(err))
		}
		if text != "" {
			if summary := s.gateway.Complete(ctx, retrievalSummarySystem, retrievalSummaryPrompt(query, text), 0.3, 700); summary != "" {
				text = summary
			}
			products = text
			out.Retrieved = text
			out.RetrievedNames = names
		}
	}

	if products == "" {
		out.Response = "I couldn't find matching products for those criteria right now. Could you try rephrasing, or relax the tier or banking preference?"
		return out
	}

	var comparison, assessment string

	if needsComparison {
		out.Executed = append(out.Executed, StageCompare)
		comparison = s.gateway.Complete(ctx, comparisonSystem, comparisonPrompt(products), 0.3, 700)
	}

	if needsAssessment {
		out.Executed = append(out.Executed, StageAssess)
		assessment = s.gateway.Complete(ctx, assessmentSystem, assessmentPrompt(products, in.Profile), 0.3, 700)
	}

	out.Executed = append(out.Executed, StageFormat)
	out.Response = s.gateway.Complete(ctx, formatSystem, formatPrompt(in.Query, products, comparison, assessment), 0.4, 900)

	if out.Response == "" {
		// Only the formatter's text may reach the customer. Raw stage
		// material stays internal, so a dead formatter degrades to a
		// generic apology instead.
		s.logger.Warn("formatter produced no output, serving fallback",
			zap.String("intent_type", string(in.Type)))
		out.Response = formatterFallback
	}

	return out
}

const formatterFallback = "I'm having trouble putting together a complete answer right now. Please try again in a moment, or ask me about a specific product and I'll do my best to help."
