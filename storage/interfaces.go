package storage

import (
	"context"

	"github.com/poiesic/lorekeep/core"
)

// EntryRepository provides operations for managing the knowledge library.
// Implementations must be thread-safe and support concurrent access.
type EntryRepository interface {
	// AddEntries stores new entries.
	// Sets CreatedAt and UpdatedAt if not already set.
	// Returns ErrDuplicateKey if any ID already exists.
	AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// UpdateEntries replaces existing entries.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// DeleteEntries removes entries by their IDs.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, ids ...string) error

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id string) (*core.Entry, error)

	// GetEntries retrieves multiple entries by their IDs.
	// Returns only the entries that exist (no error for missing entries).
	GetEntries(ctx context.Context, ids ...string) ([]*core.Entry, error)

	// ListEntries returns the whole library ordered by ID.
	ListEntries(ctx context.Context) ([]*core.Entry, error)

	// Close releases resources held by the repository.
	Close() error
}

// FlagStore is the side table of extended flags keyed by entry ID.
// A flag value is always replaced as a whole, so concurrent readers see
// either the old or the new value.
type FlagStore interface {
	// Flags returns the flags for id, or core.DefaultFlags when none are stored.
	Flags(ctx context.Context, id string) (core.ExtendedFlags, error)

	// SetFlags stores the flags for id.
	SetFlags(ctx context.Context, id string, flags core.ExtendedFlags) error

	// AllFlags returns a point-in-time copy of every stored flag value.
	AllFlags(ctx context.Context) (map[string]core.ExtendedFlags, error)

	// DeleteFlags removes the flags for the given IDs. Missing IDs are ignored.
	DeleteFlags(ctx context.Context, ids ...string) error

	// Cleanup removes every stored key not in validIDs and returns the
	// number of keys removed.
	Cleanup(ctx context.Context, validIDs []string) (int, error)
}

// SnapshotRepository persists the vector index save state.
type SnapshotRepository interface {
	// SaveSnapshot replaces the stored snapshot.
	SaveSnapshot(ctx context.Context, snapshot *core.VectorSnapshot) error

	// LoadSnapshot returns the stored snapshot.
	// Returns nil, nil if no snapshot exists.
	LoadSnapshot(ctx context.Context) (*core.VectorSnapshot, error)

	// DeleteSnapshot removes the stored snapshot if present.
	DeleteSnapshot(ctx context.Context) error
}
