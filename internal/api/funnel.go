package api

import (
	"context"
	"net/http"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// CaptureLead opens an anonymous funnel session. Validation happens in the
// funnel container before this is reached; this guard is the last line.
func CaptureLead(ctx context.Context, tc *transport.Client, req types.CaptureLeadRequest) (*types.CaptureLeadResponse, error) {
	if err := types.ValidateEmail(req.Email); err != nil {
		return nil, apierrors.Validation(err)
	}
	var resp types.CaptureLeadResponse
	err := tc.DoPublic(ctx, transport.Request{
		Op:     "capture lead",
		Method: http.MethodPost,
		Path:   "/api/v1/freemium/leads",
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartAssessment begins the Q&A phase for a captured lead.
func StartAssessment(ctx context.Context, tc *transport.Client, sessionToken string) (*types.StartAssessmentResponse, error) {
	var resp types.StartAssessmentResponse
	err := tc.DoPublic(ctx, transport.Request{
		Op:          "start assessment",
		Method:      http.MethodPost,
		Path:        "/api/v1/freemium/assessment/start",
		BearerToken: sessionToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitAnswer records one answer and returns the server's authoritative
// progress. Progress must never be derived locally from answer counts.
func SubmitAnswer(ctx context.Context, tc *transport.Client, sessionToken string, req types.SubmitAnswerRequest) (*types.SubmitAnswerResponse, error) {
	if err := types.ValidateIDPresent(req.QuestionID, "questionId"); err != nil {
		return nil, apierrors.Validation(err)
	}
	var resp types.SubmitAnswerResponse
	err := tc.DoPublic(ctx, transport.Request{
		Op:          "submit answer",
		Method:      http.MethodPost,
		Path:        "/api/v1/freemium/assessment/answers",
		Body:        req,
		BearerToken: sessionToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FunnelResults fetches the completed assessment's results.
func FunnelResults(ctx context.Context, tc *transport.Client, sessionToken string) (*types.FunnelResultsResponse, error) {
	var resp types.FunnelResultsResponse
	err := tc.DoPublic(ctx, transport.Request{
		Op:          "funnel results",
		Method:      http.MethodGet,
		Path:        "/api/v1/freemium/assessment/results",
		BearerToken: sessionToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
