package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// snapshotVersion guards the gob layout. Bump on incompatible change;
// older snapshots are discarded and a full build runs instead.
const snapshotVersion = 1

// Snapshot is the persisted index bundle: the vector payload, the
// parallel chunk-id list, and enough embedder identity to detect a
// model or dimension switch on load.
type Snapshot struct {
	Version    int
	Vectors    [][]float32
	ChunkIDs   []int64
	LastUpdate time.Time
	Model      string
	Dimensions int
	Metric     string
}

// Valid reports whether the snapshot is internally consistent and
// matches the given embedder identity. An invalid snapshot is not an
// error condition; the caller rebuilds from the record store.
func (s *Snapshot) Valid(model string, dimensions int) bool {
	if s.Version != snapshotVersion {
		return false
	}
	if len(s.Vectors) != len(s.ChunkIDs) {
		return false
	}
	if s.Model != model || s.Dimensions != dimensions {
		return false
	}
	for _, v := range s.Vectors {
		if len(v) != s.Dimensions {
			return false
		}
	}
	return true
}

// SaveSnapshot writes the snapshot atomically: gob to a temp file in
// the same directory, fsync, then rename over the target. A crash
// mid-write leaves the previous snapshot intact.
func SaveSnapshot(path string, snap *Snapshot) error {
	snap.Version = snapshotVersion

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot from disk. A missing file returns
// (nil, nil); a corrupt file returns an error and the caller falls
// back to a full build.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
