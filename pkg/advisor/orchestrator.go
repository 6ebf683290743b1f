package advisor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/advisor/eligibility"
	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/advisor/session"
	"bank-advisor-be/pkg/advisor/stage"
	"bank-advisor-be/pkg/completion"
	"bank-advisor-be/pkg/llm"
)

// Turn is one customer message plus its conversation context.
type Turn struct {
	SessionID string
	Message   string
	History   []llm.Message
	Customer  CustomerInfo
}

// TurnResult mirrors what the dialogue surface reports back per turn.
type TurnResult struct {
	Response           string
	AgentChain         []string
	ProductsFound      []string
	NeedsClarification bool
	Intent             intent.Frame
}

// Orchestrator routes each turn through the dialogue policy: eligibility
// sub-conversation first, then social short-circuits, clarification, and
// finally the generation stages. It owns no locking; the service layer
// serializes turns per session.
type Orchestrator struct {
	extractor *intent.Extractor
	collector *eligibility.Collector
	sequencer *stage.Sequencer
	store     session.Store
	gateway   *completion.Gateway
	logger    *zap.Logger
}

func NewOrchestrator(
	extractor *intent.Extractor,
	collector *eligibility.Collector,
	sequencer *stage.Sequencer,
	store session.Store,
	gateway *completion.Gateway,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		collector: collector,
		sequencer: sequencer,
		store:     store,
		gateway:   gateway,
		logger:    logger,
	}
}

// HandleTurn processes one message and returns the reply. It never returns
// an error: every failure inside degrades to a usable response.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn Turn) TurnResult {
	state, ok := o.store.Get(turn.SessionID)
	if !ok {
		state = session.New(turn.SessionID)
	}

	// An active eligibility flow intercepts the turn before intent detection:
	// the customer is answering our question, not issuing a new request.
	if state.Eligibility.Active {
		return o.eligibilityTurn(ctx, turn, state)
	}

	frame := o.extractor.Extract(ctx, turn.Message, turn.History, state.Frame)

	switch frame.Type {
	case intent.IntentGreeting:
		return o.socialReply(ctx, turn.Message, frame,
			"You are a friendly Prime Bank assistant. Give a warm, brief greeting.",
			fmt.Sprintf("Customer said: %q. Greet them warmly and offer to help with banking products in 1-2 sentences.", turn.Message),
			"Hello! Welcome to Prime Bank. How can I assist you today?")
	case intent.IntentSmallTalk:
		return o.socialReply(ctx, turn.Message, frame,
			"You are a Prime Bank assistant. Respond briefly and redirect to banking help.",
			fmt.Sprintf("Customer said: %q. Give a short friendly response and gently redirect to banking services.", turn.Message),
			"I'm here to help with your banking needs! Feel free to ask about our cards, loans, or accounts.")
	case intent.IntentComparisonNeedsCriteria:
		// Ask for a ranking criterion and bail out: neither the confirmed
		// frame nor the cached retrieval moves until the customer answers.
		return TurnResult{
			Response:           o.criteriaQuestion(ctx),
			AgentChain:         []string{"Intent Detector"},
			NeedsClarification: true,
			Intent:             frame,
		}
	}

	if state.HasRetrieval() && intent.FiltersChanged(frame, state.Frame) {
		o.logger.Info("retrieval filters changed, dropping cached products",
			zap.String("session_id", state.ID))
		state.ResetRetrieval()
	}

	if frame.NeedsClarification {
		state.Frame = frame
		o.store.Save(state)
		return TurnResult{
			Response:           o.clarifyingQuestions(ctx, frame),
			AgentChain:         []string{"Intent Detector"},
			NeedsClarification: true,
			Intent:             frame,
		}
	}

	if frame.Type == intent.IntentEligibilityCheck {
		return o.startEligibility(ctx, frame, state)
	}

	enriched := BuildEnrichedQuery(turn.Message, turn.History, frame, state)
	out := o.sequencer.Run(ctx, stage.Input{
		Query:          enriched,
		Type:           frame.Type,
		Frame:          frame,
		CachedProducts: cachedText(state),
		Profile:        turn.Customer.FormatProfile(),
	})

	applyStageOutput(state, out)
	if frame.Type == intent.IntentComparison {
		state.ComparisonDone = true
	}
	state.Frame = frame
	o.store.Save(state)

	return TurnResult{
		Response:      out.Response,
		AgentChain:    stageNames(out.Executed),
		ProductsFound: productNames(state),
		Intent:        frame,
	}
}

// eligibilityTurn advances the slot-filling sub-conversation by one step,
// running the assessment once every required field is answered.
func (o *Orchestrator) eligibilityTurn(ctx context.Context, turn Turn, state *session.State) TurnResult {
	if turn.Message != "" {
		state.Eligibility.Transcript = append(state.Eligibility.Transcript,
			llm.Message{Role: "user", Content: turn.Message})
	}

	state.Eligibility.Collected = o.collector.Extract(ctx, state.Eligibility.Transcript, state.Eligibility.Collected)

	if question := o.collector.NextQuestion(ctx, state.Eligibility.Transcript, state.Eligibility.Collected, state.Eligibility.TargetProduct); question != "" {
		state.Eligibility.Transcript = append(state.Eligibility.Transcript,
			llm.Message{Role: "assistant", Content: question})
		o.store.Save(state)
		return TurnResult{
			Response:           question,
			AgentChain:         []string{"Eligibility Conversation"},
			NeedsClarification: true,
			Intent:             state.Frame,
		}
	}

	profile := eligibility.FormatProfile(state.Eligibility.Collected, state.Frame)
	target := state.Eligibility.TargetProduct
	enriched := fmt.Sprintf("Customer Query: Check eligibility for %s\nCustomer Profile: %s\nProduct to check: %s",
		target, profile, target)

	out := o.sequencer.Run(ctx, stage.Input{
		Query:          enriched,
		Type:           intent.IntentEligibilityCheck,
		Frame:          state.Frame,
		CachedProducts: cachedText(state),
		Profile:        profile,
	})

	applyStageOutput(state, out)
	state.EligibilityDone = true
	state.ResetEligibility()
	o.store.Save(state)

	return TurnResult{
		Response:      out.Response,
		AgentChain:    append([]string{"Eligibility Conversation"}, stageNames(out.Executed)...),
		ProductsFound: productNames(state),
		Intent:        state.Frame,
	}
}

// startEligibility activates the sub-conversation and sends its opening
// question. The confirmed frame is saved first so sticky slots survive.
func (o *Orchestrator) startEligibility(ctx context.Context, frame intent.Frame, state *session.State) TurnResult {
	state.Frame = frame
	state.Eligibility = session.EligibilityState{
		Active:        true,
		TargetProduct: eligibility.TargetProduct(frame),
	}

	opening := o.collector.Opening(ctx, state.Eligibility.TargetProduct)
	state.Eligibility.Transcript = append(state.Eligibility.Transcript,
		llm.Message{Role: "assistant", Content: opening})
	o.store.Save(state)

	return TurnResult{
		Response:           opening,
		AgentChain:         []string{"Eligibility Conversation"},
		NeedsClarification: true,
		Intent:             frame,
	}
}

func (o *Orchestrator) socialReply(ctx context.Context, message string, frame intent.Frame, system, user, fallback string) TurnResult {
	reply := o.gateway.Complete(ctx, system, user, 0.7, 100)
	if reply == "" {
		reply = fallback
	}
	return TurnResult{
		Response: reply,
		Intent:   frame,
	}
}

func (o *Orchestrator) criteriaQuestion(ctx context.Context) string {
	reply := o.gateway.Complete(ctx,
		"Friendly bank assistant. 2 sentences max.",
		"Customer wants to compare products.\nAsk them ONE question: what matters most - travel perks, dining benefits, international use, or insurance coverage?",
		0.7, 80,
	)
	if reply == "" {
		reply = "To find the best match, what matters most to you - travel perks, dining benefits, international use, or insurance coverage?"
	}
	return reply
}

// clarifyingQuestions asks for the slots still blocking sufficiency, phrased
// by the model when possible and from templates when not.
func (o *Orchestrator) clarifyingQuestions(ctx context.Context, frame intent.Frame) string {
	missing := intent.MissingSlotHints(frame)
	product := strings.ReplaceAll(frame.ProductType.String(), "_", " ")
	if !frame.ProductType.IsKnown() {
		product = "banking product"
	}

	if len(missing) > 0 {
		reply := o.gateway.Complete(ctx,
			"Friendly bank assistant. 2 sentences max. No lists.",
			fmt.Sprintf("Ask customer for: %s. They want: %s.", strings.Join(missing, ", "), product),
			0.7, 80,
		)
		if reply != "" {
			return reply
		}
	}

	return fallbackQuestions(product, frame)
}

func fallbackQuestions(product string, frame intent.Frame) string {
	q := []string{fmt.Sprintf("I'd love to help you find the right %s!", product)}
	if !frame.BankingType.IsKnown() {
		q = append(q, "Do you prefer Islamic (Shariah-compliant) or Conventional banking?")
	}
	if !frame.UseCase.IsKnown() {
		q = append(q, "What will you mainly use it for - travel, shopping, dining, or business?")
	}
	if !frame.Tier.IsKnown() {
		q = append(q, "Are you interested in Gold, Platinum, or Silver tier?")
	}
	return strings.Join(q, " ")
}

func cachedText(state *session.State) string {
	if state.HasRetrieval() {
		return state.Cached.Text
	}
	return ""
}

func applyStageOutput(state *session.State, out stage.Output) {
	if out.Retrieved != "" {
		state.Cached = &session.Retrieval{
			Text:         out.Retrieved,
			ProductNames: out.RetrievedNames,
		}
	}
}

func productNames(state *session.State) []string {
	if state.Cached == nil {
		return nil
	}
	return state.Cached.ProductNames
}

func stageNames(stages []stage.Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return names
}
