package api

import (
	"context"
	"net/http"

	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// SubmitFeedback posts product feedback. The endpoint is non-critical:
// callers run it through the async outbox and drop any error there, so the
// return value only matters to the outbox's retry policy.
func SubmitFeedback(ctx context.Context, tc *transport.Client, req types.FeedbackRequest) error {
	return tc.Do(ctx, transport.Request{
		Op:        "submit feedback",
		Method:    http.MethodPost,
		Path:      "/api/v1/telemetry/feedback",
		Body:      req,
		Retryable: true,
	}, nil)
}
