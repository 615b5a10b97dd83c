package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// ListHistory returns the historical assessment records for one business
// profile key, as stored server-side. Dedup and ordering happen in the
// trend package.
func ListHistory(ctx context.Context, tc *transport.Client, businessProfileKey string) ([]types.AssessmentRecord, error) {
	if err := types.ValidateIDPresent(businessProfileKey, "businessProfileKey"); err != nil {
		return nil, apierrors.Validation(err)
	}
	q := url.Values{}
	q.Set("business_profile_key", businessProfileKey)
	var resp types.HistoryResponse
	err := tc.Do(ctx, transport.Request{
		Op:     "list history",
		Method: http.MethodGet,
		Path:   "/api/v1/assessments/history",
		Query:  q,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Records, nil
}
