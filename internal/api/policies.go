package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// ListPolicies returns the caller's policy documents.
func ListPolicies(ctx context.Context, tc *transport.Client) ([]types.Policy, error) {
	var resp types.ListPoliciesResponse
	err := tc.Do(ctx, transport.Request{
		Op:     "list policies",
		Method: http.MethodGet,
		Path:   "/api/v1/policies",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Policies, nil
}

// GetPolicy fetches one policy with content.
func GetPolicy(ctx context.Context, tc *transport.Client, policyID string) (*types.Policy, error) {
	if err := types.ValidateIDPresent(policyID, "policyId"); err != nil {
		return nil, apierrors.Validation(err)
	}
	var p types.Policy
	err := tc.Do(ctx, transport.Request{
		Op:     "get policy",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v1/policies/%s", policyID),
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePolicy drafts a new policy document.
func CreatePolicy(ctx context.Context, tc *transport.Client, req types.CreatePolicyRequest) (*types.Policy, error) {
	if err := types.ValidateIDPresent(req.Framework, "framework"); err != nil {
		return nil, apierrors.Validation(err)
	}
	var p types.Policy
	err := tc.Do(ctx, transport.Request{
		Op:     "create policy",
		Method: http.MethodPost,
		Path:   "/api/v1/policies",
		Body:   req,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePolicy removes a policy by ID.
func DeletePolicy(ctx context.Context, tc *transport.Client, policyID string) error {
	if err := types.ValidateIDPresent(policyID, "policyId"); err != nil {
		return apierrors.Validation(err)
	}
	return tc.Do(ctx, transport.Request{
		Op:     "delete policy",
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/v1/policies/%s", policyID),
	}, nil)
}
