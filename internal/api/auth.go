// Package api contains one function per backend endpoint. Each function
// validates its inputs, shapes the request for the transport, and decodes
// the response into the shared types. No state lives here.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// Login exchanges credentials for a token pair. The backend expects a
// multipart form, not JSON, on this endpoint specifically.
func Login(ctx context.Context, tc *transport.Client, email, password string) (*types.Token, error) {
	if err := types.ValidateEmail(email); err != nil {
		return nil, apierrors.Validation(err)
	}
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tok types.Token
	err := tc.DoPublic(ctx, transport.Request{
		Op:     "login",
		Method: http.MethodPost,
		Path:   "/api/v1/auth/login",
		Form:   form,
	}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Register creates a full account, optionally upgrading a captured lead.
func Register(ctx context.Context, tc *transport.Client, req types.RegisterRequest) (*types.Token, error) {
	if err := types.ValidateEmail(req.Email); err != nil {
		return nil, apierrors.Validation(err)
	}
	var tok types.Token
	err := tc.DoPublic(ctx, transport.Request{
		Op:     "register",
		Method: http.MethodPost,
		Path:   "/api/v1/auth/register",
		Body:   req,
	}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// RefreshSession exchanges a refresh token for a new pair. Called only by
// the token store's single-flight refresh; never call it directly.
func RefreshSession(ctx context.Context, tc *transport.Client, refreshToken string) (types.Token, error) {
	var tok types.Token
	err := tc.DoPublic(ctx, transport.Request{
		Op:     "refresh session",
		Method: http.MethodPost,
		Path:   "/api/v1/auth/refresh",
		Body:   map[string]string{"refresh_token": refreshToken},
	}, &tok)
	return tok, err
}

// Logout invalidates the server-side session. A failure here is reported
// but the caller should clear local tokens regardless.
func Logout(ctx context.Context, tc *transport.Client) error {
	return tc.Do(ctx, transport.Request{
		Op:     "logout",
		Method: http.MethodPost,
		Path:   "/api/v1/auth/logout",
	}, nil)
}
