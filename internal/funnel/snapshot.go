package funnel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/complyon/complyon-go/internal/types"
)

// ErrSnapshotCorrupt is returned by Load when the stored payload fails its
// checksum. Callers discard the snapshot and start clean; they never load
// a corrupt one.
var ErrSnapshotCorrupt = errors.New("funnel snapshot failed checksum")

// Snapshot is the state persisted across restarts: enough to resume an
// interrupted funnel, nothing more.
type Snapshot struct {
	Stage     Stage          `json:"stage"`
	Lead      types.Lead     `json:"lead"`
	SessionID string         `json:"sessionId,omitempty"`
	Answers   []types.Answer `json:"answers,omitempty"`
	Progress  types.Progress `json:"progress"`
	SavedAt   time.Time      `json:"savedAt"`
}

// SnapshotStore persists funnel snapshots. The file store below is the
// default; tests and embedders may supply their own.
type SnapshotStore interface {
	Save(s Snapshot) error
	Load() (*Snapshot, error)
	Clear() error
}

// envelope wraps the payload with a non-cryptographic checksum. xxhash
// hints at accidental corruption; it is not an integrity guarantee.
type envelope struct {
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

func checksum(payload []byte) string {
	return strconv.FormatUint(xxhash.Sum64(payload), 16)
}

// FileStore persists one snapshot as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore builds a store writing to path. Parent directories are
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes the snapshot atomically (temp file + rename).
func (f *FileStore) Save(s Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	raw, err := json.Marshal(envelope{Checksum: checksum(payload), Payload: payload})
	if err != nil {
		return fmt.Errorf("encode snapshot envelope: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Load reads the snapshot. A missing file yields (nil, nil); a payload
// failing its checksum yields ErrSnapshotCorrupt.
func (f *FileStore) Load() (*Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrSnapshotCorrupt
	}
	if env.Checksum != checksum(env.Payload) {
		return nil, ErrSnapshotCorrupt
	}
	var s Snapshot
	if err := json.Unmarshal(env.Payload, &s); err != nil {
		return nil, ErrSnapshotCorrupt
	}
	return &s, nil
}

// Clear removes the snapshot file if present.
func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
