package eligibility

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/completion"
	"bank-advisor-be/pkg/llm"
)

// RequiredFields block the final assessment until answered, in asking order.
var RequiredFields = []string{"age", "employment", "tenure", "income", "etin"}

// OptionalFields enrich the profile when volunteered but never block.
var OptionalFields = []string{"credit_history"}

var fieldLabels = map[string]string{
	"AGE":            "age",
	"EMPLOYMENT":     "employment",
	"TENURE":         "tenure",
	"INCOME":         "income",
	"ETIN":           "etin",
	"CREDIT_HISTORY": "credit_history",
}

var fieldHints = map[string]string{
	"age":            "their age",
	"employment":     "employment type (salaried, self-employed, or business owner)",
	"tenure":         "how long they have been in their current job or business",
	"income":         "approximate monthly income or annual revenue in BDT",
	"etin":           "whether they have a valid E-TIN certificate (yes or no)",
	"credit_history": "whether they have prior credit history (loans or cards)",
}

var fieldFallbacks = map[string]string{
	"age":            "Could you please tell me your age?",
	"employment":     "Are you salaried, self-employed, or a business owner?",
	"tenure":         "How long have you been in your current job or business?",
	"income":         "What's your approximate monthly income (or annual revenue if self-employed)?",
	"etin":           "Do you have a valid E-TIN certificate? (yes/no)",
	"credit_history": "Do you have any prior credit card or loan history? (yes/no)",
}

// Collector runs the eligibility slot-filling sub-conversation: one extraction
// pass over the transcript per turn, then a single question for the first
// missing required field.
type Collector struct {
	gateway *completion.Gateway
	logger  *zap.Logger
}

func NewCollector(gateway *completion.Gateway, logger *zap.Logger) *Collector {
	return &Collector{
		gateway: gateway,
		logger:  logger,
	}
}

// Extract pulls structured answers out of the transcript and merges them into
// collected. A field answered in an earlier turn is immutable: later
// extractions never overwrite it.
func (c *Collector) Extract(ctx context.Context, transcript []llm.Message, collected map[string]string) map[string]string {
	if collected == nil {
		collected = make(map[string]string)
	}
	if len(transcript) == 0 {
		return collected
	}

	raw := c.gateway.Complete(ctx,
		"Extract data from conversation. Output ONLY the exact format shown. No extra text.",
		buildExtractionPrompt(transcript),
		0.0, 100,
	)

	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		field, ok := fieldLabels[strings.ToUpper(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		val := strings.ToLower(strings.TrimSpace(value))
		if val == "" || val == "unknown" {
			continue
		}
		if _, exists := collected[field]; exists {
			continue
		}
		collected[field] = val
	}

	c.logger.Debug("eligibility fields collected",
		zap.Int("count", len(collected)),
		zap.Strings("missing", MissingFields(collected)),
	)
	return collected
}

func buildExtractionPrompt(transcript []llm.Message) string {
	var b strings.Builder
	b.WriteString("Extract eligibility information from this conversation.\n\nCONVERSATION:\n")
	b.WriteString(intent.FormatHistory(transcript, 0))
	b.WriteString(`
Output EXACTLY these lines (use "unknown" if not mentioned):
AGE: [number only, e.g. 28, or unknown]
EMPLOYMENT: [salaried/self_employed/business_owner/student or unknown]
TENURE: [e.g. "2 years" / "8 months" or unknown]
INCOME: [amount in BDT or unknown]
ETIN: [yes/no or unknown]
CREDIT_HISTORY: [yes/no or unknown]`)
	return b.String()
}

// MissingFields lists the required fields not yet collected, in asking order.
func MissingFields(collected map[string]string) []string {
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := collected[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// NextQuestion phrases a question for the first missing field. Empty result
// means nothing is missing and the assessment can run.
func (c *Collector) NextQuestion(ctx context.Context, transcript []llm.Message, collected map[string]string, targetProduct string) string {
	missing := MissingFields(collected)
	if len(missing) == 0 {
		return ""
	}
	next := missing[0]

	if targetProduct == "" {
		targetProduct = "a credit card"
	}
	system := fmt.Sprintf(`You are a friendly Prime Bank eligibility assistant.
You are collecting information to check if the customer qualifies for: %s.
Be conversational and warm. Ask for ONE piece of information at a time. Keep it under 2 sentences.`, targetProduct)

	user := fmt.Sprintf(`Conversation so far:
%s
Now naturally ask for: %s
Do not repeat questions already answered. Be friendly and brief.`,
		intent.FormatHistory(transcript, 6), fieldHints[next])

	question := c.gateway.Complete(ctx, system, user, 0.5, 80)
	if question == "" {
		question = fieldFallbacks[next]
	}
	return question
}

// Opening produces the first assistant message after the flow activates.
func (c *Collector) Opening(ctx context.Context, targetProduct string) string {
	opening := c.gateway.Complete(ctx,
		"Friendly Prime Bank assistant. 1-2 sentences max.",
		fmt.Sprintf("Customer wants to check eligibility for: %s. Warmly acknowledge and ask their age to begin the eligibility check.", targetProduct),
		0.6, 60,
	)
	if opening == "" {
		opening = fmt.Sprintf("Happy to check your eligibility for the %s! Could you start by telling me your age?", targetProduct)
	}
	return opening
}

// FormatProfile renders the collected answers plus the sticky frame slots
// into the profile string the assessment stage consumes.
func FormatProfile(collected map[string]string, frame intent.Frame) string {
	labels := []struct{ field, label string }{
		{"age", "Age"},
		{"employment", "Employment Type"},
		{"tenure", "Job/Business Tenure"},
		{"income", "Monthly Income"},
		{"etin", "Has E-TIN"},
		{"credit_history", "Credit History"},
	}

	var parts []string
	for _, l := range labels {
		if val := collected[l.field]; val != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", l.label, val))
		}
	}
	if frame.BankingType.IsKnown() {
		parts = append(parts, fmt.Sprintf("Banking Preference: %s", frame.BankingType.Value()))
	}
	if frame.Tier.IsKnown() {
		parts = append(parts, fmt.Sprintf("Preferred Tier: %s", frame.Tier.Value()))
	}

	if len(parts) == 0 {
		return "No profile data collected"
	}
	return strings.Join(parts, "; ")
}

// TargetProduct names the product under eligibility review from the frame.
func TargetProduct(frame intent.Frame) string {
	product := frame.ProductType.String()
	if !frame.ProductType.IsKnown() {
		product = "credit card"
	}
	banking := frame.BankingType.String()
	if !frame.BankingType.IsKnown() {
		banking = "conventional"
	}

	name := strings.TrimSpace(fmt.Sprintf("%s %s", frame.Tier.Value(), strings.ReplaceAll(product, "_", " ")))
	return fmt.Sprintf("%s (%s banking)", name, banking)
}
