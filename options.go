package complyon

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/complyon/complyon-go/internal/funnel"
	"github.com/complyon/complyon-go/internal/outbox"
	"github.com/complyon/complyon-go/internal/realtime"
)

// Option customizes Client construction.
type Option func(*Client) error

// WithHTTPTimeout overrides the per-request HTTP timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be positive, got %v", d)
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely. The caller
// owns its timeout and transport settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithLogger sets the SDK logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithDebugLogging wraps the HTTP transport with full request/response
// dumps. Dumps include credentials; never enable it in production.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if !enabled {
			return nil
		}
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		if _, already := base.(*debugTransport); !already {
			c.http.Transport = &debugTransport{base: base}
		}
		return nil
	}
}

// WithSnapshotStore replaces the funnel persistence backend. Overrides
// COMPLYON_SNAPSHOT_PATH; pass nil to disable persistence explicitly.
func WithSnapshotStore(store funnel.SnapshotStore) Option {
	return func(c *Client) error {
		c.snapshots = store
		return nil
	}
}

// WithRetryPolicy tunes the transport's network retry loop.
func WithRetryPolicy(maxAttempts int, initialBackoff, maxBackoff time.Duration) Option {
	return func(c *Client) error {
		if maxAttempts <= 0 {
			return fmt.Errorf("maxAttempts must be positive, got %d", maxAttempts)
		}
		c.cfg.MaxAttempts = maxAttempts
		c.cfg.InitialBackoff = initialBackoff
		c.cfg.MaxBackoff = maxBackoff
		return nil
	}
}

// WithSlowThreshold invokes fn with the operation name whenever a request
// is still in flight after d. Used to surface "still working" hints in UIs.
func WithSlowThreshold(d time.Duration, fn func(op string)) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("slow threshold must be positive, got %v", d)
		}
		c.slowThreshold = d
		c.onSlow = fn
		return nil
	}
}

// WithOutboxConfig tunes the telemetry outbox. Zero fields keep defaults.
func WithOutboxConfig(cfg outbox.Config) Option {
	return func(c *Client) error {
		c.outboxCfg = cfg
		return nil
	}
}

// WithRealtimeDialer replaces the WebSocket dialer. Test hook.
func WithRealtimeDialer(dial realtime.Dialer) Option {
	return func(c *Client) error {
		c.wsDialer = dial
		return nil
	}
}
