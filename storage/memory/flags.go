// Package memory provides in-process implementations of the storage
// interfaces for callers that do not need persistence.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/storage"
)

// FlagStore is a map-backed storage.FlagStore. Values are replaced whole
// under the write lock, so readers never observe a partial update.
type FlagStore struct {
	mu    sync.RWMutex
	flags map[string]core.ExtendedFlags
}

var _ storage.FlagStore = (*FlagStore)(nil)

// NewFlagStore creates an empty FlagStore.
func NewFlagStore() *FlagStore {
	return &FlagStore{flags: make(map[string]core.ExtendedFlags)}
}

func (s *FlagStore) Flags(ctx context.Context, id string) (core.ExtendedFlags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if flags, ok := s.flags[id]; ok {
		return flags, nil
	}
	return core.DefaultFlags(), nil
}

func (s *FlagStore) SetFlags(ctx context.Context, id string, flags core.ExtendedFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[id] = flags
	return nil
}

func (s *FlagStore) AllFlags(ctx context.Context) (map[string]core.ExtendedFlags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.flags), nil
}

func (s *FlagStore) DeleteFlags(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.flags, id)
	}
	return nil
}

func (s *FlagStore) Cleanup(ctx context.Context, validIDs []string) (int, error) {
	valid := make(map[string]struct{}, len(validIDs))
	for _, id := range validIDs {
		valid[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id := range s.flags {
		if _, ok := valid[id]; !ok {
			delete(s.flags, id)
			removed++
		}
	}
	return removed, nil
}
