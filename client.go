// Package complyon is the Go client SDK for the Complyon compliance
// platform. The Client is the facade: it wires the token store, the
// retrying transport, the deduplicating request cache, the funnel state
// container, and the realtime chat channel, and exposes thin wrappers over
// the REST resources.
package complyon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/complyon/complyon-go/internal/api"
	"github.com/complyon/complyon-go/internal/auth"
	"github.com/complyon/complyon-go/internal/funnel"
	"github.com/complyon/complyon-go/internal/outbox"
	"github.com/complyon/complyon-go/internal/realtime"
	"github.com/complyon/complyon-go/internal/requestcache"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/trend"
	"github.com/complyon/complyon-go/internal/types"
)

// Client is the SDK entry point. Construct with New or NewFromEnv; a
// Client is safe for concurrent use and must be Closed when done.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger

	tokens *auth.Store
	tc     *transport.Client
	cache  *requestcache.Cache
	out    *outbox.Outbox
	fun    *funnel.Container

	snapshots funnel.SnapshotStore
	outboxCfg outbox.Config
	wsDialer  realtime.Dialer

	slowThreshold time.Duration
	onSlow        func(op string)

	historyMu sync.Mutex
	history   map[string][]types.AssessmentRecord

	closed uint32
}

// New constructs a Client for the given API base URL. wsURL may be empty
// when realtime chat is unused. Environment overrides for tuning knobs are
// still honored; the URLs given here win over COMPLYON_API_URL/WS_URL.
func New(apiURL, wsURL string, opts ...Option) (*Client, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("apiURL cannot be empty")
	}

	cfg, err := LoadConfig()
	if err != nil {
		// Env config is optional when the URLs are passed explicitly.
		cfg = Config{}
	}
	cfg.APIURL = apiURL
	if wsURL != "" {
		cfg.WSURL = wsURL
	}
	return build(cfg, opts...)
}

// NewFromEnv constructs a Client entirely from COMPLYON_* environment
// variables. COMPLYON_API_URL is required.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return build(cfg, opts...)
}

func build(cfg Config, opts ...Option) (*Client, error) {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     zerolog.Nop(),
		history: make(map[string][]types.AssessmentRecord),
	}
	if cfg.SnapshotPath != "" {
		c.snapshots = funnel.NewFileStore(cfg.SnapshotPath)
	}
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.tokens = auth.NewStore(nil)
	c.tc = transport.New(transport.Config{
		BaseURL:        c.cfg.APIURL,
		MaxAttempts:    c.cfg.MaxAttempts,
		InitialBackoff: c.cfg.InitialBackoff,
		MaxInterval:    c.cfg.MaxBackoff,
		SlowThreshold:  c.slowThreshold,
		OnSlow: func(op string) {
			slowCallsTotal.WithLabelValues(op).Inc()
			if c.onSlow != nil {
				c.onSlow(op)
			}
		},
	}, c.http, c.tokens, c.log)
	// The refresh exchange goes through the public path so a refresh can
	// never recurse into another refresh.
	c.tokens.SetRefreshFunc(func(ctx context.Context, refreshToken string) (types.Token, error) {
		return api.RefreshSession(ctx, c.tc, refreshToken)
	})

	c.cache = requestcache.New()
	c.out = outbox.New(c.outboxCfg, c.log)
	c.fun = funnel.New(c.tc, c.snapshots, c.log)
	return c, nil
}

// Close stops background workers, draining any queued outbox jobs. Safe to
// call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		return nil
	}
	if c.out != nil {
		c.out.Stop()
	}
	return nil
}

// --------------------------------------------------------------------
// Authentication
// --------------------------------------------------------------------

// Login authenticates with email/password and stores the token pair.
func (c *Client) Login(ctx context.Context, email, password string) error {
	tok, err := api.Login(ctx, c.tc, email, password)
	if err != nil {
		return err
	}
	c.tokens.Set(*tok)
	return nil
}

// Register creates an account (optionally upgrading a captured lead) and
// stores the resulting token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	tok, err := api.Register(ctx, c.tc, req)
	if err != nil {
		return err
	}
	c.tokens.Set(*tok)
	return nil
}

// Logout invalidates the server session and clears local tokens. Local
// tokens are cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := api.Logout(ctx, c.tc)
	c.tokens.Clear()
	return err
}

// SetToken installs a token pair obtained out of band (tests, service
// accounts, dev environments).
func (c *Client) SetToken(tok Token) { c.tokens.Set(tok) }

// SessionExpired reports whether the stored token has passed its expiry.
func (c *Client) SessionExpired() bool { return c.tokens.IsExpired() }

// --------------------------------------------------------------------
// Freemium funnel
// --------------------------------------------------------------------

// Funnel returns the funnel state container. One container exists per
// Client; its state survives restarts through the snapshot store.
func (c *Client) Funnel() *funnel.Container { return c.fun }

// --------------------------------------------------------------------
// Realtime chat
// --------------------------------------------------------------------

// OpenConversation connects the realtime channel for a conversation and
// returns its manager. Callers own the manager's lifecycle and must
// Disconnect it; while disconnected, SendMessage is the REST fallback.
func (c *Client) OpenConversation(ctx context.Context, conversationID string) (*realtime.Manager, error) {
	if c.cfg.WSURL == "" {
		return nil, fmt.Errorf("realtime disabled: no WebSocket URL configured")
	}
	m := realtime.NewManager(realtime.Config{
		WSBaseURL:            c.cfg.WSURL,
		MaxReconnectAttempts: c.cfg.MaxReconnectAttempts,
		InitialReconnectWait: c.cfg.InitialReconnectWait,
		MaxReconnectWait:     c.cfg.MaxReconnectWait,
	}, c.wsDialer, c.tokens.AccessToken, c.log)
	if err := m.Connect(ctx, conversationID); err != nil {
		return nil, err
	}
	return m, nil
}

// Conversations lists the caller's chat threads.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	return api.ListConversations(ctx, c.tc)
}

// CreateConversation opens a new chat thread.
func (c *Client) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	return api.CreateConversation(ctx, c.tc, types.CreateConversationRequest{Title: title})
}

// Messages pages a conversation's history after the given sequence number.
func (c *Client) Messages(ctx context.Context, conversationID string, afterSequence int64) ([]Message, error) {
	return api.ListMessages(ctx, c.tc, conversationID, afterSequence)
}

// SendMessage posts a chat message over REST, the fallback path while the
// realtime channel is disconnected.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*Message, error) {
	return api.SendMessage(ctx, c.tc, conversationID, types.SendMessageRequest{Content: content})
}

// --------------------------------------------------------------------
// Assessment history and trends
// --------------------------------------------------------------------

// History fetches historical assessment records for a business profile
// key and merges them into the client-side history: deduplicated by
// sessionId, newest first.
func (c *Client) History(ctx context.Context, businessProfileKey string) ([]AssessmentRecord, error) {
	fetched, err := api.ListHistory(ctx, c.tc, businessProfileKey)
	if err != nil {
		return nil, err
	}
	c.historyMu.Lock()
	merged := trend.MergeHistory(c.history[businessProfileKey], fetched)
	c.history[businessProfileKey] = merged
	out := make([]AssessmentRecord, len(merged))
	copy(out, merged)
	c.historyMu.Unlock()
	return out, nil
}

// Trends fetches history for a business profile key and computes the
// windowed trend summary plus the per-section breakdown.
func (c *Client) Trends(ctx context.Context, businessProfileKey string, window TrendWindow) (TrendSummary, []SectionTrend, error) {
	records, err := c.History(ctx, businessProfileKey)
	if err != nil {
		return TrendSummary{}, nil, err
	}
	now := time.Now()
	return trend.Aggregate(records, window, now), trend.SectionTrends(records, window, now), nil
}

// --------------------------------------------------------------------
// Layout persistence
// --------------------------------------------------------------------

// SaveLayout persists a dashboard layout. Concurrent saves of the same
// layout coalesce onto one request through the dedup cache.
func (c *Client) SaveLayout(ctx context.Context, name string, layout json.RawMessage) error {
	_, err := c.cache.Run(ctx, "layout:save:"+name, func(ctx context.Context) (any, error) {
		return nil, api.SaveLayout(ctx, c.tc, name, layout)
	})
	return err
}

// LoadLayout fetches a persisted layout, coalescing concurrent loads.
func (c *Client) LoadLayout(ctx context.Context, name string) (json.RawMessage, error) {
	v, err := c.cache.Run(ctx, "layout:load:"+name, func(ctx context.Context) (any, error) {
		return api.LoadLayout(ctx, c.tc, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// --------------------------------------------------------------------
// Evidence and policies
// --------------------------------------------------------------------

// ListEvidence returns all evidence visible to the caller.
func (c *Client) ListEvidence(ctx context.Context) ([]Evidence, error) {
	return api.ListEvidence(ctx, c.tc)
}

// CreateEvidence attaches new evidence to a control.
func (c *Client) CreateEvidence(ctx context.Context, req CreateEvidenceRequest) (*Evidence, error) {
	return api.CreateEvidence(ctx, c.tc, req)
}

// UpdateEvidence mutates evidence fields.
func (c *Client) UpdateEvidence(ctx context.Context, evidenceID string, req UpdateEvidenceRequest) (*Evidence, error) {
	return api.UpdateEvidence(ctx, c.tc, evidenceID, req)
}

// DeleteEvidence removes evidence by ID.
func (c *Client) DeleteEvidence(ctx context.Context, evidenceID string) error {
	return api.DeleteEvidence(ctx, c.tc, evidenceID)
}

// ListPolicies returns the caller's policy documents.
func (c *Client) ListPolicies(ctx context.Context) ([]Policy, error) {
	return api.ListPolicies(ctx, c.tc)
}

// GetPolicy fetches one policy with content.
func (c *Client) GetPolicy(ctx context.Context, policyID string) (*Policy, error) {
	return api.GetPolicy(ctx, c.tc, policyID)
}

// CreatePolicy drafts a new policy document.
func (c *Client) CreatePolicy(ctx context.Context, req CreatePolicyRequest) (*Policy, error) {
	return api.CreatePolicy(ctx, c.tc, req)
}

// DeletePolicy removes a policy by ID.
func (c *Client) DeletePolicy(ctx context.Context, policyID string) error {
	return api.DeletePolicy(ctx, c.tc, policyID)
}

// --------------------------------------------------------------------
// Telemetry
// --------------------------------------------------------------------

// feedbackKey serializes all feedback jobs onto one outbox shard.
const feedbackKey = "telemetry:feedback"

// SubmitFeedback enqueues product feedback for asynchronous delivery.
// Delivery failures are retried in the background and ultimately dropped;
// telemetry must never block or break a user flow. The returned error only
// reports enqueue-level problems.
func (c *Client) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	err := c.out.Submit(ctx, feedbackKey, func(jobCtx context.Context) error {
		return api.SubmitFeedback(jobCtx, c.tc, req)
	})
	if errors.Is(err, outbox.ErrQueueFull) {
		return ErrBackPressure
	}
	return err
}

// Flush blocks until all previously enqueued feedback has been attempted.
func (c *Client) Flush(ctx context.Context) error {
	return c.out.Barrier(ctx, feedbackKey)
}
