package advisor

import (
	"fmt"
	"strings"

	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/advisor/session"
	"bank-advisor-be/pkg/llm"
)

const cachedProductsExcerpt = 1000

// BuildEnrichedQuery assembles the generation-stage query: the raw message,
// every known slot, an excerpt of the cached retrieval, and the trailing
// conversation window.
func BuildEnrichedQuery(message string, history []llm.Message, frame intent.Frame, state *session.State) string {
	parts := []string{fmt.Sprintf("Customer Query: %s", message)}

	if frame.ProductType.IsKnown() {
		parts = append(parts, fmt.Sprintf("Product Interest: %s", strings.ReplaceAll(frame.ProductType.Value(), "_", " ")))
	}
	if frame.BankingType.IsKnown() {
		parts = append(parts, fmt.Sprintf("Banking Type: %s", frame.BankingType.Value()))
	}
	if frame.Tier.IsKnown() {
		parts = append(parts, fmt.Sprintf("Tier: %s", frame.Tier.Value()))
	}
	if frame.UseCase.IsKnown() {
		parts = append(parts, fmt.Sprintf("Use Case: %s", frame.UseCase.Value()))
	}
	if frame.Employment.IsKnown() {
		parts = append(parts, fmt.Sprintf("Employment: %s", frame.Employment.Value()))
	}

	if state != nil && state.HasRetrieval() {
		excerpt := state.Cached.Text
		if len(excerpt) > cachedProductsExcerpt {
			excerpt = excerpt[:cachedProductsExcerpt]
		}
		parts = append(parts, fmt.Sprintf("\nPreviously Retrieved Products:\n%s", excerpt))
	}

	if len(history) > 0 {
		parts = append(parts, "\nConversation context:")
		window := history
		if len(window) > 6 {
			window = window[len(window)-6:]
		}
		for _, msg := range window {
			parts = append(parts, fmt.Sprintf("  %s: %s", strings.ToUpper(msg.Role), msg.Content))
		}
	}

	return strings.Join(parts, "\n")
}

// CustomerInfo is optional caller-supplied profile data attached to a turn.
type CustomerInfo struct {
	Employment        string
	Income            string
	CreditScore       string
	BankingPreference string
}

// FormatProfile renders the caller-supplied profile for the assessment stage.
// Empty fields are skipped; a fully empty profile renders as "".
func (c CustomerInfo) FormatProfile() string {
	var parts []string
	if c.Employment != "" {
		parts = append(parts, fmt.Sprintf("Employment: %s", c.Employment))
	}
	if c.Income != "" {
		parts = append(parts, fmt.Sprintf("Monthly Income: %s", c.Income))
	}
	if c.CreditScore != "" {
		parts = append(parts, fmt.Sprintf("Credit Score: %s", c.CreditScore))
	}
	if c.BankingPreference != "" {
		parts = append(parts, fmt.Sprintf("Banking Preference: %s", c.BankingPreference))
	}
	return strings.Join(parts, "; ")
}
