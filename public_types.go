package complyon

import (
	"github.com/complyon/complyon-go/internal/trend"
	"github.com/complyon/complyon-go/internal/types"
)

// Aliases for the shared wire types, so callers use the root package only.

type (
	Token            = types.Token
	Consent          = types.Consent
	Lead             = types.Lead
	Answer           = types.Answer
	Progress         = types.Progress
	Conversation     = types.Conversation
	Message          = types.Message
	AssessmentRecord = types.AssessmentRecord
	Evidence         = types.Evidence
	Policy           = types.Policy

	RegisterRequest       = types.RegisterRequest
	FeedbackRequest       = types.FeedbackRequest
	CreateEvidenceRequest = types.CreateEvidenceRequest
	UpdateEvidenceRequest = types.UpdateEvidenceRequest
	CreatePolicyRequest   = types.CreatePolicyRequest
)

// Trend aggregation types and windows.

type (
	TrendWindow    = trend.Window
	TrendSummary   = trend.Summary
	SectionTrend   = trend.SectionSummary
	TrendDirection = trend.Direction
)

const (
	WindowLast30Days  = trend.Last30Days
	WindowLast3Months = trend.Last3Months
	WindowLast6Months = trend.Last6Months
	WindowLastYear    = trend.LastYear
	WindowAllTime     = trend.AllTime

	TrendImproving = trend.Improving
	TrendDeclining = trend.Declining
	TrendStable    = trend.Stable
)

// ParseTrendWindow validates a window label from user input.
func ParseTrendWindow(s string) (TrendWindow, error) { return trend.ParseWindow(s) }
