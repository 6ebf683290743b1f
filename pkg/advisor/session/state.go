package session

import (
	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/llm"
)

// Retrieval is the cached product-retrieval result for the current filter
// combination. It stays valid until a known filter slot changes value.
type Retrieval struct {
	Text         string
	ProductNames []string
}

// EligibilityState tracks the slot-filling sub-conversation. While Active,
// every incoming turn is routed here instead of the normal pipeline.
type EligibilityState struct {
	Active        bool
	TargetProduct string
	Transcript    []llm.Message
	Collected     map[string]string
}

// State is everything the advisor remembers about one conversation.
type State struct {
	ID    string
	Frame intent.Frame

	Cached          *Retrieval
	ComparisonDone  bool
	EligibilityDone bool

	Eligibility EligibilityState
}

func New(id string) *State {
	return &State{ID: id}
}

func (s *State) HasRetrieval() bool {
	return s.Cached != nil && s.Cached.Text != ""
}

// ResetRetrieval drops the cached retrieval and every derived stage result.
// Called when the filter slots change mid-conversation.
func (s *State) ResetRetrieval() {
	s.Cached = nil
	s.ComparisonDone = false
	s.EligibilityDone = false
}

// ResetEligibility closes the sub-conversation and clears its working state.
// The confirmed frame is untouched.
func (s *State) ResetEligibility() {
	s.Eligibility = EligibilityState{}
}

// Store is the per-session persistence boundary. Implementations must be
// safe for concurrent use; the orchestrator serializes turns per session on
// top of this.
type Store interface {
	Get(id string) (*State, bool)
	Save(state *State)
}
