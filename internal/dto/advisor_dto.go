package dto

// CustomerInfoDTO is optional profile data the caller already knows.
type CustomerInfoDTO struct {
	Employment        string `json:"employment,omitempty"`
	Income            string `json:"income,omitempty"`
	CreditScore       string `json:"credit_score,omitempty"`
	BankingPreference string `json:"banking_preference,omitempty"`
}

type ChatRequest struct {
	SessionId    string           `json:"session_id" validate:"required,max=128"`
	Message      string           `json:"message" validate:"required,max=4000"`
	CustomerInfo *CustomerInfoDTO `json:"customer_info,omitempty"`
}

// IntentDTO exposes the resolved intent frame; unknown slots render as
// "unknown" to keep the wire format stable.
type IntentDTO struct {
	ProductType string `json:"product_type"`
	BankingType string `json:"banking_type"`
	Tier        string `json:"tier"`
	UseCase     string `json:"use_case"`
	Employment  string `json:"employment"`
	IntentType  string `json:"intent_type"`
}

type ChatResponse struct {
	SessionId          string    `json:"session_id"`
	Response           string    `json:"response"`
	AgentChain         []string  `json:"agent_chain"`
	ProductsFound      []string  `json:"products_found"`
	NeedsClarification bool      `json:"needs_clarification"`
	DetectedIntent     IntentDTO `json:"detected_intent"`
}

type ResetSessionRequest struct {
	SessionId string `json:"session_id" validate:"required,max=128"`
}
