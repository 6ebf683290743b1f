package intent

// Sufficient reports whether enough slots are known to run the generation
// stages without asking the customer anything else. Pure function of the
// frame contents; called on the merged frame every turn.
func Sufficient(f Frame) bool {
	switch f.Type {
	case IntentGreeting, IntentSmallTalk:
		return true
	case IntentEligibilityCheck:
		// The eligibility sub-conversation fills the remaining gaps itself.
		return f.ProductType.IsKnown()
	case IntentComparisonNeedsCriteria:
		return false
	case IntentComparison:
		return f.ProductType.IsKnown() && f.BankingType.IsKnown() && f.Tier.IsKnown()
	}

	switch f.ProductType.Value() {
	case "credit_card", "loan":
		return f.ProductType.IsKnown() && f.BankingType.IsKnown() && f.Tier.IsKnown() && f.Employment.IsKnown()
	default:
		return f.ProductType.IsKnown() && f.BankingType.IsKnown() && f.Tier.IsKnown() && f.UseCase.IsKnown()
	}
}

// Resolve finalizes a merged frame: a comparison with no ranking criterion
// (no use case and no employment) is rewritten to comparison_needs_criteria,
// and NeedsClarification is recomputed from scratch.
func Resolve(f *Frame) {
	if f.Type == IntentComparison && !f.UseCase.IsKnown() && !f.Employment.IsKnown() {
		f.Type = IntentComparisonNeedsCriteria
	}
	f.NeedsClarification = !Sufficient(*f)
}

// MissingSlotHints lists human-readable descriptions of the slots that still
// block sufficiency, in the order they should be asked about.
func MissingSlotHints(f Frame) []string {
	var missing []string
	if !f.BankingType.IsKnown() {
		missing = append(missing, "Islamic or Conventional banking preference")
	}
	if !f.UseCase.IsKnown() {
		missing = append(missing, "main purpose: travel, shopping, dining, or business")
	}
	if !f.Tier.IsKnown() {
		missing = append(missing, "preferred tier: Gold, Platinum, or Silver")
	}
	if !f.Employment.IsKnown() {
		switch f.ProductType.Value() {
		case "credit_card", "loan":
			missing = append(missing, "employment type: salaried, self-employed, or business owner")
		}
	}
	return missing
}
