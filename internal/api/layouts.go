package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// LayoutChecksum computes the corruption-hint checksum stored alongside a
// layout blob. xxhash is non-cryptographic: this detects accidental
// corruption, it is not an integrity or security guarantee.
func LayoutChecksum(layout json.RawMessage) string {
	return strconv.FormatUint(xxhash.Sum64(layout), 16)
}

// SaveLayout persists a dashboard layout blob under name. Callers route
// this through the dedup cache so rapid duplicate saves coalesce.
func SaveLayout(ctx context.Context, tc *transport.Client, name string, layout json.RawMessage) error {
	if err := types.ValidateIDPresent(name, "layout name"); err != nil {
		return apierrors.Validation(err)
	}
	return tc.Do(ctx, transport.Request{
		Op:     "save layout",
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/v1/layouts/%s", name),
		Body:   types.SaveLayoutRequest{Layout: layout, Checksum: LayoutChecksum(layout)},
	}, nil)
}

// LoadLayout fetches a persisted layout. A checksum mismatch means the
// stored blob is corrupt; it is surfaced as a malformed response so the
// caller falls back to defaults instead of rendering garbage.
func LoadLayout(ctx context.Context, tc *transport.Client, name string) (json.RawMessage, error) {
	if err := types.ValidateIDPresent(name, "layout name"); err != nil {
		return nil, apierrors.Validation(err)
	}
	var resp types.LayoutResponse
	err := tc.Do(ctx, transport.Request{
		Op:     "load layout",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v1/layouts/%s", name),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Checksum != "" && resp.Checksum != LayoutChecksum(resp.Layout) {
		return nil, apierrors.Malformed("load layout", fmt.Errorf("layout checksum mismatch"))
	}
	return resp.Layout, nil
}
