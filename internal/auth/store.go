// Package auth holds the access/refresh token pair and owns its lifecycle.
// The store is the only state in the SDK mutated from every authenticated
// request path, so the refresh operation is single-flight: N callers racing
// on simultaneous 401s produce exactly one network refresh and all observe
// the same resulting token.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/complyon/complyon-go/internal/types"
)

// ErrNoRefreshToken is returned by Refresh when the store holds no
// refresh token to exchange.
var ErrNoRefreshToken = errors.New("no refresh token available")

// RefreshFunc exchanges a refresh token for a new token pair. The transport
// wires this to the auth refresh endpoint; tests inject counters.
type RefreshFunc func(ctx context.Context, refreshToken string) (types.Token, error)

// Store is a concurrency-safe token container with single-flight refresh.
type Store struct {
	mu      sync.RWMutex
	tok     types.Token
	haveTok bool

	sf      singleflight.Group
	refresh RefreshFunc

	now func() time.Time // injectable clock for expiry tests
}

// NewStore constructs an empty store. refresh may be nil for stores that
// only hold static tokens (dev mode); Refresh then fails immediately.
func NewStore(refresh RefreshFunc) *Store {
	return &Store{refresh: refresh, now: time.Now}
}

// SetRefreshFunc installs the refresh exchange after construction. The
// store and the transport reference each other, so one of them has to be
// wired late; it is this one.
func (s *Store) SetRefreshFunc(fn RefreshFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = fn
}

// WithClock overrides the store's clock. Test helper.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// AccessToken returns the current access token or "" when none is held.
// It deliberately does not check expiry; IsExpired is a separate predicate.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.haveTok {
		return ""
	}
	return s.tok.AccessToken
}

// Set replaces the stored token pair.
func (s *Store) Set(tok types.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
	s.haveTok = true
}

// Clear drops the stored token pair. Used on logout and on refresh failure.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = types.Token{}
	s.haveTok = false
}

// IsExpired reports whether the stored token has passed its expiry.
// The boundary instant counts as expired; an empty store is expired.
func (s *Store) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.haveTok || s.tok.ExpiresAt.IsZero() {
		return true
	}
	return !s.now().Before(s.tok.ExpiresAt)
}

// Refresh exchanges the refresh token for a new pair. Concurrent callers
// coalesce onto one in-flight exchange and all receive its result. On
// failure the stored tokens are cleared: the session is over and the
// caller must re-authenticate; refresh is never retried automatically.
func (s *Store) Refresh(ctx context.Context) (types.Token, error) {
	res := s.sf.DoChan("refresh", func() (any, error) {
		s.mu.RLock()
		rt := s.tok.RefreshToken
		have := s.haveTok
		fn := s.refresh
		s.mu.RUnlock()

		if !have || rt == "" || fn == nil {
			refreshesTotal.WithLabelValues("failure").Inc()
			s.Clear()
			return types.Token{}, ErrNoRefreshToken
		}

		tok, err := fn(context.WithoutCancel(ctx), rt)
		if err != nil {
			refreshesTotal.WithLabelValues("failure").Inc()
			s.Clear()
			return types.Token{}, err
		}
		refreshesTotal.WithLabelValues("success").Inc()
		s.Set(tok)
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return types.Token{}, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return types.Token{}, r.Err
		}
		return r.Val.(types.Token), nil
	}
}
