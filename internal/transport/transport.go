// Package transport is the single HTTP request path for the SDK. It owns
// bearer-token attachment, the one-shot 401 refresh-and-replay cycle,
// bounded network retry with exponential backoff, and normalization of
// every failure into the apierrors taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/auth"
)

// ErrNoToken is returned by Do when no access token is held. Protected
// calls fail fast instead of silently degrading to an anonymous request.
var ErrNoToken = errors.New("no access token: authenticate first")

// Config carries the transport knobs resolved by the root package.
type Config struct {
	BaseURL        string
	MaxAttempts    int           // total attempts per request, network failures only
	InitialBackoff time.Duration // first retry delay
	MaxInterval    time.Duration // backoff cap
	SlowThreshold  time.Duration // 0 disables slow-call notification
	OnSlow         func(op string)
}

// Client sends requests against one backend base URL.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens *auth.Store
	log    zerolog.Logger
}

// New constructs a transport over httpClient. tokens may not be nil.
func New(cfg Config, httpClient *http.Client, tokens *auth.Store, log zerolog.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 250 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	return &Client{cfg: cfg, http: httpClient, tokens: tokens, log: log}
}

// Request describes one logical API call.
type Request struct {
	Op     string // operation name used in errors, logs and metrics
	Method string
	Path   string // joined onto BaseURL, e.g. "/api/v1/freemium/leads"
	Query  url.Values
	Body   any        // JSON-encoded when non-nil; mutually exclusive with Form
	Form   url.Values // multipart form fields (login, uploads)

	// Retryable marks a non-GET call safe to retry on network failure.
	// GETs always retry; writes never retry unless the caller opts in.
	Retryable bool

	// BearerToken overrides the token store for this call. Used by the
	// funnel, whose anonymous session token is not part of the auth store.
	BearerToken string
}

// Do sends an authenticated request. It fails fast with ErrNoToken when the
// store is empty, and on a 401 runs exactly one refresh-and-replay cycle; a
// second 401 surfaces as a fatal auth failure.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	tok := c.tokens.AccessToken()
	if tok == "" {
		return &apierrors.Classified{Category: apierrors.CategoryAuth, Message: req.Op, Underlying: ErrNoToken}
	}

	err := c.send(ctx, req, tok, out)
	if !apierrors.IsAuth(err) {
		return err
	}

	fresh, rerr := c.tokens.Refresh(ctx)
	if rerr != nil {
		c.log.Debug().Str("op", req.Op).Err(rerr).Msg("token refresh failed; session is over")
		return apierrors.Auth(req.Op, http.StatusUnauthorized, "session refresh failed")
	}
	authReplaysTotal.Inc()
	return c.send(ctx, req, fresh.AccessToken, out)
}

// DoPublic sends a request outside the token-store auth cycle. When
// req.BearerToken is set it is attached verbatim; a 401 here is surfaced
// directly, never refreshed.
func (c *Client) DoPublic(ctx context.Context, req Request, out any) error {
	return c.send(ctx, req, req.BearerToken, out)
}

// send runs the bounded retry loop around one attempt. Only network-level
// failures are retried, and only for GET or explicitly retryable calls.
func (c *Client) send(ctx context.Context, req Request, bearer string, out any) error {
	if c.cfg.SlowThreshold > 0 && c.cfg.OnSlow != nil {
		timer := time.AfterFunc(c.cfg.SlowThreshold, func() { c.cfg.OnSlow(req.Op) })
		defer timer.Stop()
	}

	canRetry := req.Method == http.MethodGet || req.Retryable

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.InitialBackoff
	exp.Multiplier = 2
	exp.MaxInterval = c.cfg.MaxInterval
	exp.Reset()

	var err error
	for attempt := 1; ; attempt++ {
		err = c.attempt(ctx, req, bearer, out)
		if err == nil || !apierrors.IsCategory(err, apierrors.CategoryNetwork) || !canRetry {
			return err
		}
		if attempt >= c.cfg.MaxAttempts {
			return err
		}

		retriesTotal.WithLabelValues(req.Op).Inc()
		wait := exp.NextBackOff()
		c.log.Debug().Str("op", req.Op).Int("attempt", attempt).Dur("wait", wait).Msg("retrying after network failure")
		select {
		case <-ctx.Done():
			return apierrors.Network(req.Op, ctx.Err())
		case <-time.After(wait):
		}
	}
}

// attempt performs a single HTTP exchange and normalizes its outcome.
func (c *Client) attempt(ctx context.Context, req Request, bearer string, out any) error {
	httpReq, err := c.build(ctx, req, bearer)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return apierrors.Network(req.Op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierrors.HTTP(req.Op, resp.StatusCode, readDetail(resp.Body))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierrors.Malformed(req.Op, err)
	}
	return nil
}

// build constructs the concrete *http.Request for one attempt. Bodies are
// re-encoded per attempt so replays never reuse a drained reader.
func (c *Client) build(ctx context.Context, req Request, bearer string) (*http.Request, error) {
	u := c.cfg.BaseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		for field, vals := range req.Form {
			for _, v := range vals {
				if err := mw.WriteField(field, v); err != nil {
					return nil, apierrors.Malformed(req.Op, err)
				}
			}
		}
		if err := mw.Close(); err != nil {
			return nil, apierrors.Malformed(req.Op, err)
		}
		body = buf
		contentType = mw.FormDataContentType()
	case req.Body != nil:
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apierrors.Validation(fmt.Errorf("%s: encode body: %w", req.Op, err))
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, apierrors.Validation(fmt.Errorf("%s: %w", req.Op, err))
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}
	return httpReq, nil
}

// readDetail extracts the backend's `{"detail": "..."}` error body. A body
// that is not that shape yields an empty detail, never an error.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
