package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// ListEvidence returns all evidence visible to the caller.
func ListEvidence(ctx context.Context, tc *transport.Client) ([]types.Evidence, error) {
	var resp types.ListEvidenceResponse
	err := tc.Do(ctx, transport.Request{
		Op:     "list evidence",
		Method: http.MethodGet,
		Path:   "/api/v1/evidence",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Evidence, nil
}

// CreateEvidence attaches new evidence to a control.
func CreateEvidence(ctx context.Context, tc *transport.Client, req types.CreateEvidenceRequest) (*types.Evidence, error) {
	if err := types.ValidateIDPresent(req.ControlID, "controlId"); err != nil {
		return nil, apierrors.Validation(err)
	}
	var ev types.Evidence
	err := tc.Do(ctx, transport.Request{
		Op:     "create evidence",
		Method: http.MethodPost,
		Path:   "/api/v1/evidence",
		Body:   req,
	}, &ev)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateEvidence mutates evidence fields.
func UpdateEvidence(ctx context.Context, tc *transport.Client, evidenceID string, req types.UpdateEvidenceRequest) (*types.Evidence, error) {
	if err := types.ValidateIDPresent(evidenceID, "evidenceId"); err != nil {
		return nil, apierrors.Validation(err)
	}
	var ev types.Evidence
	err := tc.Do(ctx, transport.Request{
		Op:     "update evidence",
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/api/v1/evidence/%s", evidenceID),
		Body:   req,
	}, &ev)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// DeleteEvidence removes evidence by ID.
func DeleteEvidence(ctx context.Context, tc *transport.Client, evidenceID string) error {
	if err := types.ValidateIDPresent(evidenceID, "evidenceId"); err != nil {
		return apierrors.Validation(err)
	}
	return tc.Do(ctx, transport.Request{
		Op:     "delete evidence",
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/v1/evidence/%s", evidenceID),
	}, nil)
}
