// Package file persists plugin state as two small JSON documents under a
// data directory, written whole on every mutation. This is the default
// backend for a single-server deployment.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/storage"
)

const (
	executedRewardsFile = "executed_rewards.json"
	cachedBansFile      = "cached_bans.json"
)

// Storage is a file-backed implementation of the storage interface
type Storage struct {
	mu  sync.Mutex
	dir string
}

// New creates the data directory if needed and returns a file storage
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) SaveExecutedRewards(ctx context.Context, ids []model.RewardID) error {
	return save(s, executedRewardsFile, ids)
}

func (s *Storage) LoadExecutedRewards(ctx context.Context) ([]model.RewardID, error) {
	return load[model.RewardID](s, executedRewardsFile)
}

func (s *Storage) SaveCachedBans(ctx context.Context, ids []model.PlayerID) error {
	return save(s, cachedBansFile, ids)
}

func (s *Storage) LoadCachedBans(ctx context.Context) ([]model.PlayerID, error) {
	return load[model.PlayerID](s, cachedBansFile)
}

func save[T ~string](s *Storage, name string, ids []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids == nil {
		ids = []T{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	// Write via a temp file so a crash mid-write cannot corrupt the document
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func load[T ~string](s *Storage, name string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var ids []T
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return ids, nil
}
