package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/auth"
	"github.com/complyon/complyon-go/internal/types"
)

func testClient(t *testing.T, baseURL string, tokens *auth.Store) *Client {
	t.Helper()
	cfg := Config{BaseURL: baseURL, MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	return New(cfg, &http.Client{Timeout: 5 * time.Second}, tokens, zerolog.Nop())
}

func TestDoFailsFastWithoutToken(t *testing.T) {
	t.Parallel()
	c := testClient(t, "http://unreachable.invalid", auth.NewStore(nil))
	err := c.Do(context.Background(), Request{Op: "get profile", Method: http.MethodGet, Path: "/api/v1/me"}, nil)
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if !apierrors.IsAuth(err) {
		t.Fatal("missing token must classify as auth")
	}
}

func TestConcurrent401sTriggerOneRefreshAndReplayAll(t *testing.T) {
	t.Parallel()

	var refreshes, replays int32
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer stale":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"token expired"}`))
		case "Bearer fresh":
			atomic.AddInt32(&replays, 1)
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer hs.Close()

	gate := make(chan struct{})
	tokens := auth.NewStore(func(ctx context.Context, rt string) (types.Token, error) {
		atomic.AddInt32(&refreshes, 1)
		<-gate
		return types.Token{AccessToken: "fresh", RefreshToken: "rt2", ExpiresAt: time.Now().Add(time.Hour)}, nil
	})
	tokens.Set(types.Token{AccessToken: "stale", RefreshToken: "rt1", ExpiresAt: time.Now().Add(time.Hour)})

	c := testClient(t, hs.URL, tokens)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out struct {
				OK bool `json:"ok"`
			}
			errs[i] = c.Do(context.Background(), Request{Op: "get profile", Method: http.MethodGet, Path: "/api/v1/me"}, &out)
		}(i)
	}
	time.Sleep(50 * time.Millisecond) // let every caller hit the 401 and pile onto the refresh
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&refreshes); got != 1 {
		t.Fatalf("refresh calls = %d, want exactly 1", got)
	}
	if got := atomic.LoadInt32(&replays); got != n {
		t.Fatalf("replayed requests = %d, want %d", got, n)
	}
}

func TestSecond401IsFatal(t *testing.T) {
	t.Parallel()

	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer hs.Close()

	var refreshes int32
	tokens := auth.NewStore(func(ctx context.Context, rt string) (types.Token, error) {
		atomic.AddInt32(&refreshes, 1)
		return types.Token{AccessToken: "fresh", RefreshToken: "rt2", ExpiresAt: time.Now().Add(time.Hour)}, nil
	})
	tokens.Set(types.Token{AccessToken: "stale", RefreshToken: "rt1", ExpiresAt: time.Now().Add(time.Hour)})

	c := testClient(t, hs.URL, tokens)
	err := c.Do(context.Background(), Request{Op: "get profile", Method: http.MethodGet, Path: "/api/v1/me"}, nil)
	if !apierrors.IsAuth(err) {
		t.Fatalf("expected fatal auth error, got %v", err)
	}
	if got := atomic.LoadInt32(&refreshes); got != 1 {
		t.Fatalf("refresh calls = %d, want exactly 1 (no refresh loop)", got)
	}
}

// flakyTransport fails the first n round trips at the network level.
type flakyTransport struct {
	failures int32
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return nil, errors.New("connection reset")
	}
	return f.next.RoundTrip(r)
}

func TestNetworkRetryForIdempotentCalls(t *testing.T) {
	t.Parallel()

	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer hs.Close()

	tokens := auth.NewStore(nil)
	tokens.Set(types.Token{AccessToken: "t", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)})

	cfg := Config{BaseURL: hs.URL, MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	hc := &http.Client{Transport: &flakyTransport{failures: 2, next: http.DefaultTransport}}
	c := New(cfg, hc, tokens, zerolog.Nop())

	if err := c.Do(context.Background(), Request{Op: "list evidence", Method: http.MethodGet, Path: "/api/v1/evidence"}, nil); err != nil {
		t.Fatalf("GET should survive two network failures: %v", err)
	}
}

func TestNoNetworkRetryForWrites(t *testing.T) {
	t.Parallel()

	tokens := auth.NewStore(nil)
	tokens.Set(types.Token{AccessToken: "t", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)})

	var attempts int32
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("connection reset")
	})}
	cfg := Config{BaseURL: "http://backend.invalid", MaxAttempts: 3, InitialBackoff: time.Millisecond}
	c := New(cfg, hc, tokens, zerolog.Nop())

	err := c.Do(context.Background(), Request{Op: "create evidence", Method: http.MethodPost, Path: "/api/v1/evidence", Body: map[string]string{"title": "x"}}, nil)
	if !apierrors.IsCategory(err, apierrors.CategoryNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("non-idempotent write attempted %d times, want 1", got)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestErrorNormalizationIncludesServerDetail(t *testing.T) {
	t.Parallel()

	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"question q9 does not exist"}`))
	}))
	defer hs.Close()

	c := testClient(t, hs.URL, auth.NewStore(nil))
	err := c.DoPublic(context.Background(), Request{Op: "submit answer", Method: http.MethodPost, Path: "/api/v1/freemium/answers", Body: map[string]string{}}, nil)

	var cerr *apierrors.Classified
	if !errors.As(err, &cerr) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if cerr.Status != http.StatusUnprocessableEntity || cerr.ServerDetail != "question q9 does not exist" {
		t.Fatalf("unexpected normalization: %+v", cerr)
	}
}

func TestMalformedResponseBody(t *testing.T) {
	t.Parallel()

	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"truncated`))
	}))
	defer hs.Close()

	c := testClient(t, hs.URL, auth.NewStore(nil))
	var out map[string]any
	err := c.DoPublic(context.Background(), Request{Op: "get layout", Method: http.MethodGet, Path: "/api/v1/layouts/default"}, &out)
	if !apierrors.IsCategory(err, apierrors.CategoryMalformed) {
		t.Fatalf("expected malformed-response, got %v", err)
	}
}

func TestPublicPathOmitsAuthorizationHeader(t *testing.T) {
	t.Parallel()

	var sawAuth atomic.Bool
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer hs.Close()

	tokens := auth.NewStore(nil)
	tokens.Set(types.Token{AccessToken: "secret", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)})
	c := testClient(t, hs.URL, tokens)

	if err := c.DoPublic(context.Background(), Request{Op: "health", Method: http.MethodGet, Path: "/api/v1/health"}, nil); err != nil {
		t.Fatalf("public call failed: %v", err)
	}
	if sawAuth.Load() {
		t.Fatal("public path must not attach the stored access token")
	}
}

func TestSlowCallNotification(t *testing.T) {
	t.Parallel()

	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(60 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer hs.Close()

	var slowOps []string
	var mu sync.Mutex
	cfg := Config{
		BaseURL:       hs.URL,
		MaxAttempts:   1,
		SlowThreshold: 10 * time.Millisecond,
		OnSlow: func(op string) {
			mu.Lock()
			slowOps = append(slowOps, op)
			mu.Unlock()
		},
	}
	c := New(cfg, &http.Client{}, auth.NewStore(nil), zerolog.Nop())
	if err := c.DoPublic(context.Background(), Request{Op: "generate report", Method: http.MethodGet, Path: "/api/v1/reports"}, nil); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(slowOps) != 1 || slowOps[0] != "generate report" {
		t.Fatalf("expected one slow notification for the operation, got %v", slowOps)
	}
}
