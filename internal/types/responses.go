package types

import (
	"encoding/json"
	"time"
)

// ------------------------------
// Response Payloads
// ------------------------------

// CaptureLeadResponse is returned when a funnel session opens.
type CaptureLeadResponse struct {
	LeadID        string    `json:"leadId"`
	SessionToken  string    `json:"sessionToken"`
	SessionExpiry time.Time `json:"sessionExpiry"`
}

// StartAssessmentResponse acknowledges an assessment start and reports the
// first question.
type StartAssessmentResponse struct {
	SessionID string   `json:"sessionId"`
	Progress  Progress `json:"progress"`
}

// SubmitAnswerResponse carries the server's authoritative progress after an
// answer lands.
type SubmitAnswerResponse struct {
	Progress Progress `json:"progress"`
}

// FunnelResultsResponse is the completed-assessment result payload.
type FunnelResultsResponse struct {
	SessionID            string             `json:"sessionId"`
	OverallScore         float64            `json:"overallScore"`
	RiskScore            float64            `json:"riskScore"`
	SectionScores        map[string]float64 `json:"sectionScores,omitempty"`
	GapsCount            int                `json:"gapsCount"`
	RecommendationsCount int                `json:"recommendationsCount"`
	CompletedAt          time.Time          `json:"completedAt"`
}

// ListConversationsResponse wraps the conversation collection.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// ListMessagesResponse wraps a conversation's message page.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

// HistoryResponse wraps historical assessment records for one business
// profile key.
type HistoryResponse struct {
	Records []AssessmentRecord `json:"records"`
}

// LayoutResponse returns a persisted layout blob and its stored checksum.
type LayoutResponse struct {
	Layout   json.RawMessage `json:"layout"`
	Checksum string          `json:"checksum"`
	SavedAt  time.Time       `json:"saved_at"`
}

// ListEvidenceResponse wraps the evidence collection.
type ListEvidenceResponse struct {
	Evidence []Evidence `json:"evidence"`
}

// ListPoliciesResponse wraps the policy collection.
type ListPoliciesResponse struct {
	Policies []Policy `json:"policies"`
}
