package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshot is the on-disk form of an index. Snapshots warm completion
// suggestions on reconnect while the first live build runs; they are
// best-effort on both the read and write side.
type snapshot struct {
	Dialect string   `msgpack:"dialect"`
	Objects []Object `msgpack:"objects"`
}

// CacheKey derives a stable file key from a redacted connection
// string.
func CacheKey(redactedDSN string) string {
	sum := sha256.Sum256([]byte(redactedDSN))
	return hex.EncodeToString(sum[:8])
}

// SnapshotPath returns the snapshot file path for a cache key.
func SnapshotPath(dir, key string) string {
	return filepath.Join(dir, key+".msgpack")
}

// SaveSnapshot writes the index to path, creating the directory if
// needed.
func SaveSnapshot(path string, ix *Index) error {
	data, err := msgpack.Marshal(snapshot{
		Dialect: ix.Dialect(),
		Objects: ix.Objects(),
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadSnapshot reads a snapshot back into a queryable index.
func LoadSnapshot(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return NewIndex(snap.Dialect, snap.Objects), nil
}
