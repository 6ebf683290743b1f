package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/advisor/eligibility"
	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/advisor/session"
	"bank-advisor-be/pkg/advisor/stage"
	"bank-advisor-be/pkg/completion"
	"bank-advisor-be/pkg/llm"
)

// routingProvider answers extraction prompts from scripted queues and fails
// everything else, so generation falls through to the deterministic
// fallbacks and assertions stay stable.
type routingProvider struct {
	intentReplies []string
	eligReplies   []string
}

func (p *routingProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	user := history[len(history)-1].Content
	switch {
	case strings.Contains(user, "Extract intent fields"):
		if len(p.intentReplies) == 0 {
			return "", errors.New("no scripted intent reply")
		}
		reply := p.intentReplies[0]
		p.intentReplies = p.intentReplies[1:]
		return reply, nil
	case strings.Contains(user, "Extract eligibility information"):
		if len(p.eligReplies) == 0 {
			return "", errors.New("no scripted eligibility reply")
		}
		reply := p.eligReplies[0]
		p.eligReplies = p.eligReplies[1:]
		return reply, nil
	}
	return "", errors.New("unscripted call")
}

func (p *routingProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type mapStore struct {
	m map[string]*session.State
}

func newMapStore() *mapStore {
	return &mapStore{m: make(map[string]*session.State)}
}

func (s *mapStore) Get(id string) (*session.State, bool) {
	state, ok := s.m[id]
	return state, ok
}

func (s *mapStore) Save(state *session.State) {
	s.m[state.ID] = state
}

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Retrieve(ctx context.Context, query string, frame intent.Frame) (string, []string, error) {
	r.calls++
	return "Found Products: Visa Gold Islamic, Visa Gold Classic", []string{"Visa Gold Islamic", "Visa Gold Classic"}, nil
}

func intentLines(queryType, product, banking, tier, useCase, employment, intentType string) string {
	return strings.Join([]string{
		"QUERY_TYPE: " + queryType,
		"PRODUCT_TYPE: " + product,
		"BANKING_TYPE: " + banking,
		"TIER: " + tier,
		"USE_CASE: " + useCase,
		"EMPLOYMENT: " + employment,
		"INTENT_TYPE: " + intentType,
	}, "\n")
}

func newTestOrchestrator(provider llm.LLMProvider, retriever stage.Retriever, store session.Store) *Orchestrator {
	logger := zap.NewNop()
	gw := completion.NewGateway(provider, 0, logger)
	return NewOrchestrator(
		intent.NewExtractor(gw, logger),
		eligibility.NewCollector(gw, logger),
		stage.NewSequencer(gw, retriever, logger),
		store,
		gw,
		logger,
	)
}

func TestSlotAccumulationAcrossTurns(t *testing.T) {
	provider := &routingProvider{intentReplies: []string{
		intentLines("banking", "credit_card", "unknown", "unknown", "unknown", "unknown", "product_info"),
		intentLines("banking", "general", "islami", "gold", "travel", "unknown", "product_info"),
		intentLines("banking", "general", "unknown", "unknown", "unknown", "salaried", "product_info"),
	}}
	retriever := &countingRetriever{}
	store := newMapStore()
	o := newTestOrchestrator(provider, retriever, store)
	ctx := context.Background()

	r1 := o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "I want a credit card"})
	if !r1.NeedsClarification {
		t.Fatal("turn 1 should ask for clarification")
	}
	if retriever.calls != 0 {
		t.Fatal("no retrieval before sufficiency")
	}

	r2 := o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "islamic gold card for travel"})
	if !r2.NeedsClarification {
		t.Fatal("turn 2 still misses employment for a credit card")
	}
	if r2.Intent.ProductType.Value() != "credit_card" {
		t.Error("product type from turn 1 must stick")
	}

	r3 := o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "I'm a salaried engineer"})
	if r3.NeedsClarification {
		t.Fatal("turn 3 completes the frame")
	}
	if retriever.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", retriever.calls)
	}
	if len(r3.ProductsFound) != 2 {
		t.Errorf("ProductsFound = %v", r3.ProductsFound)
	}
	if r3.AgentChain[0] != "Product Retriever" || r3.AgentChain[len(r3.AgentChain)-1] != "Formatter" {
		t.Errorf("AgentChain = %v", r3.AgentChain)
	}

	state, _ := store.Get("s1")
	if !state.HasRetrieval() {
		t.Error("retrieval must be cached on the session")
	}
	if state.Frame.Tier.Value() != "gold" || state.Frame.Employment.Value() != "salaried" {
		t.Errorf("confirmed frame = %+v", state.Frame)
	}
}

func TestFilterChangeInvalidatesCache(t *testing.T) {
	provider := &routingProvider{intentReplies: []string{
		intentLines("banking", "savings_account", "conventional", "gold", "shopping", "unknown", "product_info"),
		intentLines("banking", "general", "unknown", "platinum", "unknown", "unknown", "product_info"),
	}}
	retriever := &countingRetriever{}
	store := newMapStore()
	o := newTestOrchestrator(provider, retriever, store)
	ctx := context.Background()

	o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "gold savings account for shopping"})
	if retriever.calls != 1 {
		t.Fatalf("retriever calls = %d", retriever.calls)
	}

	r2 := o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "actually make it platinum"})
	if r2.NeedsClarification {
		t.Fatal("sticky slots keep the frame sufficient")
	}
	if retriever.calls != 2 {
		t.Error("tier change must force a fresh retrieval")
	}

	state, _ := store.Get("s1")
	if state.Frame.Tier.Value() != "platinum" {
		t.Errorf("Tier = %q", state.Frame.Tier.Value())
	}
}

func TestLearningNewSlotKeepsCache(t *testing.T) {
	provider := &routingProvider{intentReplies: []string{
		intentLines("banking", "savings_account", "conventional", "gold", "shopping", "unknown", "product_info"),
		intentLines("banking", "general", "unknown", "unknown", "unknown", "unknown", "feature_query"),
	}}
	retriever := &countingRetriever{}
	store := newMapStore()
	o := newTestOrchestrator(provider, retriever, store)
	ctx := context.Background()

	o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "gold savings account for shopping"})
	o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "what about the annual fee?"})

	// feature_query with a warm cache must not re-retrieve.
	if retriever.calls != 1 {
		t.Errorf("retriever calls = %d, want cache reuse", retriever.calls)
	}
}

func TestGreetingShortCircuits(t *testing.T) {
	provider := &routingProvider{intentReplies: []string{
		intentLines("greeting", "general", "unknown", "unknown", "unknown", "unknown", "product_info"),
	}}
	retriever := &countingRetriever{}
	o := newTestOrchestrator(provider, retriever, newMapStore())

	r := o.HandleTurn(context.Background(), Turn{SessionID: "s1", Message: "hello"})
	if r.NeedsClarification {
		t.Error("greeting never asks for clarification")
	}
	if len(r.AgentChain) != 0 {
		t.Errorf("AgentChain = %v, want empty", r.AgentChain)
	}
	if retriever.calls != 0 {
		t.Error("greeting must not retrieve")
	}
	if r.Response == "" {
		t.Error("greeting fallback must produce text")
	}
}

func TestComparisonWithoutCriteriaAsksForThem(t *testing.T) {
	provider := &routingProvider{intentReplies: []string{
		intentLines("banking", "credit_card", "conventional", "gold", "unknown", "unknown", "comparison"),
	}}
	retriever := &countingRetriever{}
	store := newMapStore()
	o := newTestOrchestrator(provider, retriever, store)

	r := o.HandleTurn(context.Background(), Turn{SessionID: "s1", Message: "compare gold cards"})
	if !r.NeedsClarification {
		t.Fatal("comparison without a criterion must ask what matters")
	}
	if r.Intent.Type != intent.IntentComparisonNeedsCriteria {
		t.Errorf("Intent.Type = %q", r.Intent.Type)
	}
	if retriever.calls != 0 {
		t.Error("no retrieval before criteria are known")
	}
	if !strings.Contains(r.Response, "matters most") {
		t.Errorf("Response = %q", r.Response)
	}
	// The turn must leave the session untouched: nothing is confirmed until
	// the customer names a criterion.
	if _, ok := store.Get("s1"); ok {
		t.Error("criteria question must not persist session state")
	}
}

func TestComparisonCriteriaQuestionKeepsConfirmedFrame(t *testing.T) {
	provider := &routingProvider{intentReplies: []string{
		// Turn 1 is insufficient (credit card without employment), so the
		// clarification branch persists the frame.
		intentLines("banking", "credit_card", "conventional", "gold", "unknown", "unknown", "product_info"),
		intentLines("banking", "general", "unknown", "platinum", "unknown", "unknown", "comparison"),
	}}
	retriever := &countingRetriever{}
	store := newMapStore()
	o := newTestOrchestrator(provider, retriever, store)
	ctx := context.Background()

	o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "gold conventional credit card"})
	r2 := o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "compare the platinum ones"})
	if r2.Intent.Type != intent.IntentComparisonNeedsCriteria {
		t.Fatalf("Intent.Type = %q", r2.Intent.Type)
	}

	state, ok := store.Get("s1")
	if !ok {
		t.Fatal("first turn must have persisted the session")
	}
	if state.Frame.Tier.Value() != "gold" {
		t.Errorf("Tier = %q, criteria question must not confirm the new tier", state.Frame.Tier.Value())
	}
	if state.Frame.Type != intent.IntentProductInfo {
		t.Errorf("Type = %q, confirmed intent mutated by a criteria question", state.Frame.Type)
	}
}

func TestEligibilityFlowEndToEnd(t *testing.T) {
	provider := &routingProvider{
		intentReplies: []string{
			intentLines("banking", "credit_card", "islami", "gold", "unknown", "unknown", "eligibility_check"),
		},
		eligReplies: []string{
			"AGE: 28\nEMPLOYMENT: unknown\nTENURE: unknown\nINCOME: unknown\nETIN: unknown\nCREDIT_HISTORY: unknown",
			"AGE: 28\nEMPLOYMENT: salaried\nTENURE: 2 years\nINCOME: 90000\nETIN: yes\nCREDIT_HISTORY: unknown",
		},
	}
	retriever := &countingRetriever{}
	store := newMapStore()
	o := newTestOrchestrator(provider, retriever, store)
	ctx := context.Background()

	r1 := o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "am I eligible for a gold islamic credit card?"})
	if !r1.NeedsClarification {
		t.Fatal("activation turn must open the sub-conversation")
	}
	if r1.AgentChain[0] != "Eligibility Conversation" {
		t.Errorf("AgentChain = %v", r1.AgentChain)
	}

	state, _ := store.Get("s1")
	if !state.Eligibility.Active {
		t.Fatal("flow must be active after activation")
	}
	if state.Eligibility.TargetProduct != "gold credit card (islami banking)" {
		t.Errorf("TargetProduct = %q", state.Eligibility.TargetProduct)
	}

	// Mid-flow turn: still missing fields, so it asks the next question and
	// never touches intent extraction (intentReplies queue is already empty).
	r2 := o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "I'm 28"})
	if !r2.NeedsClarification {
		t.Fatal("collection continues while fields are missing")
	}
	if !strings.Contains(r2.Response, "salaried") {
		t.Errorf("expected the employment question, got %q", r2.Response)
	}

	// Final turn fills everything: assessment runs and the flow closes.
	r3 := o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "salaried, 2 years, 90k, yes I have an E-TIN"})
	if r3.NeedsClarification {
		t.Fatal("assessment turn is final")
	}
	wantChain := []string{"Eligibility Conversation", "Product Retriever", "Eligibility Analyzer", "Formatter"}
	if len(r3.AgentChain) != len(wantChain) {
		t.Fatalf("AgentChain = %v", r3.AgentChain)
	}
	for i := range wantChain {
		if r3.AgentChain[i] != wantChain[i] {
			t.Errorf("AgentChain[%d] = %q, want %q", i, r3.AgentChain[i], wantChain[i])
		}
	}

	state, _ = store.Get("s1")
	if state.Eligibility.Active {
		t.Error("flow state must be reset after assessment")
	}
	if !state.EligibilityDone {
		t.Error("EligibilityDone must be recorded")
	}
	// The confirmed frame survives the sub-conversation.
	if state.Frame.Tier.Value() != "gold" {
		t.Errorf("Frame.Tier = %q", state.Frame.Tier.Value())
	}
}

func TestEligibilityAnswersAreImmutable(t *testing.T) {
	provider := &routingProvider{
		intentReplies: []string{
			intentLines("banking", "credit_card", "unknown", "unknown", "unknown", "unknown", "eligibility_check"),
		},
		eligReplies: []string{
			"AGE: 28\nEMPLOYMENT: unknown\nTENURE: unknown\nINCOME: unknown\nETIN: unknown\nCREDIT_HISTORY: unknown",
			"AGE: 35\nEMPLOYMENT: salaried\nTENURE: unknown\nINCOME: unknown\nETIN: unknown\nCREDIT_HISTORY: unknown",
		},
	}
	store := newMapStore()
	o := newTestOrchestrator(provider, &countingRetriever{}, store)
	ctx := context.Background()

	o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "am I eligible for a credit card?"})
	o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "I'm 28"})
	o.HandleTurn(ctx, Turn{SessionID: "s1", Message: "salaried"})

	state, _ := store.Get("s1")
	if state.Eligibility.Collected["age"] != "28" {
		t.Errorf("age = %q, first answer must win", state.Eligibility.Collected["age"])
	}
}
