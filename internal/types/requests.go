package types

import "encoding/json"

// ------------------------------
// Request Payloads
// ------------------------------

// RegisterRequest creates a full account from a lead or from scratch.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	LeadID   string `json:"leadId,omitempty"`
}

// CaptureLeadRequest opens a funnel session for an anonymous visitor.
type CaptureLeadRequest struct {
	Email   string            `json:"email"`
	Consent Consent           `json:"consent"`
	UTM     map[string]string `json:"utm,omitempty"`
}

// SubmitAnswerRequest records one answer within a funnel session.
type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// SendMessageRequest posts a chat message over the REST fallback path.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// CreateConversationRequest opens a new chat thread.
type CreateConversationRequest struct {
	Title string `json:"title,omitempty"`
}

// SaveLayoutRequest persists a dashboard layout blob. Checksum is a
// non-cryptographic corruption hint, not an integrity guarantee.
type SaveLayoutRequest struct {
	Layout   json.RawMessage `json:"layout"`
	Checksum string          `json:"checksum"`
}

// FeedbackRequest carries fire-and-forget product feedback.
type FeedbackRequest struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Page     string `json:"page,omitempty"`
}

// CreateEvidenceRequest attaches new evidence to a control.
type CreateEvidenceRequest struct {
	ControlID   string `json:"controlId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FileName    string `json:"fileName,omitempty"`
}

// UpdateEvidenceRequest mutates evidence fields; zero values are ignored
// server-side.
type UpdateEvidenceRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// CreatePolicyRequest drafts a new policy document.
type CreatePolicyRequest struct {
	Framework string `json:"framework"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}
