package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bank-advisor-be/pkg/completion"
	"bank-advisor-be/pkg/llm"
)

// historyWindow bounds how many trailing turns feed the extraction prompt.
const historyWindow = 6

// Extractor turns a free-text customer message into a canonical Frame using
// one completion call, then sticky-merges it with the previously confirmed
// frame. It never fails a turn: a dead gateway degrades to the previous frame.
type Extractor struct {
	gateway *completion.Gateway
	logger  *zap.Logger
}

func NewExtractor(gateway *completion.Gateway, logger *zap.Logger) *Extractor {
	return &Extractor{
		gateway: gateway,
		logger:  logger,
	}
}

// Extract classifies the message and returns the merged, resolved frame.
func (e *Extractor) Extract(ctx context.Context, message string, history []llm.Message, prev Frame) Frame {
	raw := e.gateway.Complete(ctx,
		"You are an intent extraction parser. Extract user intent fields and output EXACTLY 7 lines. Be precise and literal with KEYWORD MATCHING.",
		buildExtractionPrompt(message, history),
		0.0, 120,
	)

	if raw == "" {
		// Keep the confirmed context rather than losing it to a flaky model.
		e.logger.Warn("intent extraction returned nothing, keeping previous frame")
		frame := prev
		if frame.Type == "" {
			frame.Type = IntentProductInfo
		}
		Resolve(&frame)
		return frame
	}

	frame := parseFrame(raw)
	if frame.Type == IntentGreeting || frame.Type == IntentSmallTalk {
		// Social turns never touch the confirmed slots.
		return frame
	}

	frame = frame.Merge(prev)
	Resolve(&frame)

	e.logger.Debug("intent extracted",
		zap.String("product_type", frame.ProductType.String()),
		zap.String("banking_type", frame.BankingType.String()),
		zap.String("tier", frame.Tier.String()),
		zap.String("use_case", frame.UseCase.String()),
		zap.String("employment", frame.Employment.String()),
		zap.String("intent_type", string(frame.Type)),
		zap.Bool("needs_clarification", frame.NeedsClarification),
	)

	return frame
}

func buildExtractionPrompt(message string, history []llm.Message) string {
	var b strings.Builder

	fmt.Fprintf(&b, "TASK: Extract intent fields from this message using exact keyword matching.\n\n")
	fmt.Fprintf(&b, "MESSAGE: %q\n", message)

	if historyText := FormatHistory(history, historyWindow); historyText != "" {
		b.WriteString("CONVERSATION HISTORY:\n")
		b.WriteString(historyText)
	}

	b.WriteString(`
EXTRACTION RULES - Apply these in order, check the EXACT MESSAGE TEXT:

STEP 1: TIER - Search for these EXACT words in message:
- If contains "gold" (including "gold card", "visa gold") -> TIER: gold
- Else if contains "platinum" (including "platinum card") -> TIER: platinum
- Else if contains "silver" (including "silver card") -> TIER: silver
- Else -> TIER: unknown

STEP 2: BANKING_TYPE - Search for these EXACT words:
- If contains "conventional" -> BANKING_TYPE: conventional
- Else if contains "islami" OR "islamic" -> BANKING_TYPE: islami
- Else -> BANKING_TYPE: unknown

STEP 3: PRODUCT_TYPE - Search for these EXACT words:
- If contains "credit card" OR "credit" -> PRODUCT_TYPE: credit_card
- Else if contains "debit card" OR "debit" -> PRODUCT_TYPE: debit_card
- Else if contains "loan" -> PRODUCT_TYPE: loan
- Else if contains "savings" -> PRODUCT_TYPE: savings_account
- Else -> PRODUCT_TYPE: general

STEP 4: USE_CASE - Search for these EXACT words:
- If contains "travel" -> USE_CASE: travel
- Else if contains "shopping" -> USE_CASE: shopping
- Else if contains "dining" -> USE_CASE: dining
- Else if contains "business" -> USE_CASE: business
- Else if contains "lifestyle" -> USE_CASE: lifestyle
- Else if contains "reward" -> USE_CASE: rewards
- Else -> USE_CASE: unknown

STEP 5: EMPLOYMENT - Search for EXACT job titles:
- If contains "engineer", "developer", "consultant", "employee", "manager", "officer", "salaried" -> EMPLOYMENT: salaried
- Else if contains "freelancer", "contractor" -> EMPLOYMENT: self_employed
- Else if contains "business owner", "entrepreneur", "founder" -> EMPLOYMENT: business_owner
- Else if contains "student" -> EMPLOYMENT: student
- Else -> EMPLOYMENT: unknown

STEP 6: INTENT_TYPE - Search for EXACT intent keywords (check in this order):
- If contains "eligible", "qualify", "qualify for", "requirements", "can i apply", "do i meet" -> INTENT_TYPE: eligibility_check
- Else if contains "compare", "versus", "vs", "which is better", "difference" -> INTENT_TYPE: comparison
- Else if contains "feature", "benefit", "how does", "tell me about" -> INTENT_TYPE: feature_query
- Else (contains "want", "need", "looking for", "recommend") -> INTENT_TYPE: product_info

STEP 7: QUERY_TYPE - If the message is only a greeting ("hi", "hello", "good morning") -> QUERY_TYPE: greeting
- Else if the message is chit-chat unrelated to banking -> QUERY_TYPE: small_talk
- Else -> QUERY_TYPE: banking

OUTPUT - Exactly these 7 lines, one per line:
QUERY_TYPE: [banking/greeting/small_talk]
PRODUCT_TYPE: [your extracted value]
BANKING_TYPE: [your extracted value]
TIER: [your extracted value]
USE_CASE: [your extracted value]
EMPLOYMENT: [your extracted value]
INTENT_TYPE: [your extracted value]

IMPORTANT: Extract ONLY what you find in the message text itself.`)

	return b.String()
}

// parseFrame reads the labeled line format into a raw (unmerged) frame.
// Garbled or missing lines collapse to unknown instead of failing the turn.
func parseFrame(raw string) Frame {
	fields := parseLabeledLines(raw)

	queryType := fields["QUERY_TYPE"]
	if strings.Contains(queryType, "greeting") {
		return socialFrame(IntentGreeting)
	}
	if strings.Contains(queryType, "small") {
		return socialFrame(IntentSmallTalk)
	}

	return Frame{
		ProductType: coerceProductType(fields["PRODUCT_TYPE"]),
		BankingType: coerceBankingType(fields["BANKING_TYPE"]),
		Tier:        coerceTier(fields["TIER"]),
		UseCase:     coerceOpenSlot(fields["USE_CASE"]),
		Employment:  coerceOpenSlot(fields["EMPLOYMENT"]),
		Type:        coerceIntentType(fields["INTENT_TYPE"]),
	}
}

// parseLabeledLines splits "LABEL: value" lines into an upper-label map with
// lowercased values.
func parseLabeledLines(raw string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.ToUpper(strings.TrimSpace(key))] = strings.ToLower(strings.TrimSpace(value))
	}
	return fields
}

// coerceOpenSlot handles the free-category fields (use_case, employment)
// where any non-sentinel value is accepted.
func coerceOpenSlot(v string) Slot {
	if v == "" || v == "unknown" {
		return Unknown
	}
	return Known(v)
}

// socialFrame resets every slot: greetings and small talk short-circuit the
// rest of the extraction.
func socialFrame(t IntentType) Frame {
	return Frame{Type: t, NeedsClarification: false}
}

// FormatHistory renders the trailing window of conversation turns for prompt
// injection.
func FormatHistory(history []llm.Message, window int) string {
	if len(history) == 0 {
		return ""
	}
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	var b strings.Builder
	for _, msg := range history {
		role := "USER"
		if msg.Role == "assistant" || msg.Role == "model" {
			role = "ASSISTANT"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
	}
	return b.String()
}
