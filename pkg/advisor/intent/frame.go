package intent

// Slot is a single intent field that is either a known value or unknown.
// The zero value is unknown. Using a real optional type here keeps the
// merge and sufficiency logic free of sentinel-string comparisons.
type Slot struct {
	v string
}

// Known wraps a value into a known slot. Empty input stays unknown.
func Known(v string) Slot {
	return Slot{v: v}
}

// Unknown is the absent slot value.
var Unknown = Slot{}

func (s Slot) IsKnown() bool {
	return s.v != ""
}

// Value returns the underlying value, or "" when unknown.
func (s Slot) Value() string {
	return s.v
}

// Or implements the sticky merge: keep this slot if known, otherwise fall
// back to the previously confirmed one.
func (s Slot) Or(prev Slot) Slot {
	if s.IsKnown() {
		return s
	}
	return prev
}

func (s Slot) String() string {
	if s.v == "" {
		return "unknown"
	}
	return s.v
}

// IntentType classifies what the customer is trying to do this turn.
type IntentType string

const (
	IntentProductInfo             IntentType = "product_info"
	IntentComparison              IntentType = "comparison"
	IntentComparisonNeedsCriteria IntentType = "comparison_needs_criteria"
	IntentEligibilityCheck        IntentType = "eligibility_check"
	IntentFeatureQuery            IntentType = "feature_query"
	IntentGreeting                IntentType = "greeting"
	IntentSmallTalk               IntentType = "small_talk"
)

// Frame is the structured snapshot of customer intent for one turn.
type Frame struct {
	ProductType Slot
	BankingType Slot
	Tier        Slot
	UseCase     Slot
	Employment  Slot
	Type        IntentType

	// NeedsClarification is derived every turn via Resolve; it is never
	// trusted from a previous turn.
	NeedsClarification bool
}

// Merge applies the per-field sticky merge against the previously confirmed
// frame. Intent type and NeedsClarification are taken from the new frame;
// only slot values persist across turns.
func (f Frame) Merge(prev Frame) Frame {
	f.ProductType = f.ProductType.Or(prev.ProductType)
	f.BankingType = f.BankingType.Or(prev.BankingType)
	f.Tier = f.Tier.Or(prev.Tier)
	f.UseCase = f.UseCase.Or(prev.UseCase)
	f.Employment = f.Employment.Or(prev.Employment)
	return f
}

// Closed value sets. Anything the model emits outside these is a
// hallucination and collapses to unknown.
var (
	validBankingTypes = map[string]bool{
		"conventional": true,
		"islami":       true,
	}

	validTiers = map[string]bool{
		"gold":     true,
		"platinum": true,
		"silver":   true,
	}

	validProductTypes = map[string]bool{
		"credit_card":     true,
		"debit_card":      true,
		"loan":            true,
		"savings_account": true,
	}
)

// coerceBankingType validates against the closed set, normalizing the
// "islamic" spelling to the catalog's "islami".
func coerceBankingType(v string) Slot {
	if v == "islamic" {
		v = "islami"
	}
	if validBankingTypes[v] {
		return Known(v)
	}
	return Unknown
}

func coerceTier(v string) Slot {
	if validTiers[v] {
		return Known(v)
	}
	return Unknown
}

// coerceProductType treats the catch-all "general" the same as unknown: it
// carries no filterable information.
func coerceProductType(v string) Slot {
	if validProductTypes[v] {
		return Known(v)
	}
	return Unknown
}

func coerceIntentType(v string) IntentType {
	switch IntentType(v) {
	case IntentProductInfo, IntentComparison, IntentEligibilityCheck, IntentFeatureQuery:
		return IntentType(v)
	}
	return IntentProductInfo
}
