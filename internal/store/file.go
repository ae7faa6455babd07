package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// FileStore keeps the latest snapshot as indented JSON on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot file. A missing file is not an error.
func (s *FileStore) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "read snapshot %s", s.path)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, eris.Wrapf(err, "decode snapshot %s", s.path)
	}
	return &snap, nil
}

// Save writes the snapshot to a temp file and renames it over the old one.
func (s *FileStore) Save(_ context.Context, snap *Snapshot) error {
	snap.SavedAt = time.Now()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode snapshot")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrapf(err, "create %s", dir)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return eris.Wrapf(err, "write %s", tmp)
	}
	return eris.Wrap(os.Rename(tmp, s.path), "replace snapshot")
}

func (s *FileStore) Close() error { return nil }
