package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/complyon/complyon-go/internal/auth"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// newTC builds a transport against a test server. withToken seeds the store
// so the authenticated Do path works.
func newTC(baseURL string, hc *http.Client, withToken bool) *transport.Client {
	store := auth.NewStore(nil)
	if withToken {
		store.Set(types.Token{
			AccessToken:  "test-token",
			RefreshToken: "test-refresh",
			ExpiresAt:    time.Now().Add(time.Hour),
		})
	}
	return transport.New(transport.Config{BaseURL: baseURL}, hc, store, zerolog.Nop())
}
