package retrieval

import (
	"context"
	"fmt"

	"github.com/poiesic/lorekeep/match"
	"github.com/poiesic/lorekeep/storage"
)

// Source supplies the library a retrieval call works on.
type Source interface {
	Library(ctx context.Context) (match.Library, error)
}

// StaticLibrary serves a fixed library.
type StaticLibrary match.Library

func (s StaticLibrary) Library(context.Context) (match.Library, error) {
	return match.Library(s), nil
}

// StoreSource reads a point-in-time library from repositories.
type StoreSource struct {
	entries storage.EntryRepository
	flags   storage.FlagStore
}

// NewStoreSource creates a Source backed by entry and flag storage.
// A nil flag store means every entry has default flags.
func NewStoreSource(entries storage.EntryRepository, flags storage.FlagStore) *StoreSource {
	return &StoreSource{entries: entries, flags: flags}
}

func (s *StoreSource) Library(ctx context.Context) (match.Library, error) {
	entries, err := s.entries.ListEntries(ctx)
	if err != nil {
		return match.Library{}, fmt.Errorf("listing entries: %w", err)
	}
	flags := match.FlagMap{}
	if s.flags != nil {
		all, err := s.flags.AllFlags(ctx)
		if err != nil {
			return match.Library{}, fmt.Errorf("loading flags: %w", err)
		}
		flags = all
	}
	return match.Library{Entries: entries, Flags: flags}, nil
}
