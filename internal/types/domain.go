package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// Token is an access/refresh token pair issued by the auth endpoints.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Consent records what an anonymous lead agreed to at capture time.
type Consent struct {
	Marketing bool `json:"marketing"`
	Terms     bool `json:"terms"`
}

// Lead identifies a visitor who has handed over at least an email.
type Lead struct {
	LeadID        string            `json:"leadId"`
	Email         string            `json:"email"`
	Consent       Consent           `json:"consent"`
	SessionToken  string            `json:"sessionToken"`
	SessionExpiry time.Time         `json:"sessionExpiry"`
	UTM           map[string]string `json:"utm,omitempty"`
}

// AssessmentStatus is the server-reported state of a funnel assessment.
type AssessmentStatus string

const (
	StatusNotStarted AssessmentStatus = "not_started"
	StatusInProgress AssessmentStatus = "in_progress"
	StatusCompleted  AssessmentStatus = "completed"
)

// Answer is one recorded response in a funnel assessment. At most one
// Answer exists per QuestionID; a re-answer replaces the previous one.
type Answer struct {
	QuestionID string    `json:"questionId"`
	Value      string    `json:"answer"`
	AnsweredAt time.Time `json:"answeredAt"`
	Submitted  bool      `json:"submitted"`
}

// Progress mirrors the server's authoritative view of assessment progress.
// Percentage comes from the server, never from a local answer count: the
// server may insert adaptive follow-up questions at any time.
type Progress struct {
	QuestionsAnswered int              `json:"questions_answered"`
	TotalQuestions    int              `json:"total_questions"`
	Percentage        float64          `json:"percentage"`
	NextQuestionID    string           `json:"next_question_id,omitempty"`
	Status            AssessmentStatus `json:"status"`
}

// Message is one entry in a conversation log.
type Message struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	SequenceNumber int64     `json:"sequence_number"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation is a chat thread between a user and the assistant.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssessmentRecord is one completed historical assessment.
type AssessmentRecord struct {
	ID                   string             `json:"id"`
	SessionID            string             `json:"sessionId"`
	BusinessProfileKey   string             `json:"businessProfileKey"`
	OverallScore         float64            `json:"overallScore"`
	RiskScore            float64            `json:"riskScore"`
	CompletionPercentage float64            `json:"completionPercentage"`
	CompletedAt          time.Time          `json:"completedAt"`
	SectionScores        map[string]float64 `json:"sectionScores,omitempty"`
	GapsCount            int                `json:"gapsCount"`
	RecommendationsCount int                `json:"recommendationsCount"`
}

// Evidence is a piece of compliance evidence attached to a control.
type Evidence struct {
	ID          string    `json:"id"`
	ControlID   string    `json:"controlId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileName    string    `json:"fileName,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Policy is a compliance policy document.
type Policy struct {
	ID        string    `json:"id"`
	Framework string    `json:"framework"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
