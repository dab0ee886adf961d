package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/storage"
)

// EntryRepository implements storage.EntryRepository for BadgerDB.
type EntryRepository struct {
	backend *Backend
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(backend *Backend) *EntryRepository {
	return &EntryRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *EntryRepository) Close() error {
	return nil
}

// AddEntries stores new entries in a single transaction.
func (r *EntryRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, entry := range entries {
			if err := core.ValidateEntry(entry); err != nil {
				return err
			}
			key := makeEntryKey(entry.ID)
			existing, err := readValue(tx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				return storage.ErrDuplicateKey
			}

			if entry.CreatedAt.IsZero() {
				entry.CreatedAt = now
			}
			if entry.UpdatedAt.IsZero() {
				entry.UpdatedAt = entry.CreatedAt
			}
			if err := tx.Set(key, storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateEntries replaces existing entries, keeping their creation time.
func (r *EntryRepository) UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, entry := range entries {
			if err := core.ValidateEntry(entry); err != nil {
				return err
			}
			key := makeEntryKey(entry.ID)
			old, err := r.readEntry(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			entry.CreatedAt = old.CreatedAt
			entry.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteEntries removes entries by ID.
func (r *EntryRepository) DeleteEntries(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeEntryKey(id)
			existing, err := readValue(tx, key)
			if err != nil {
				return err
			}
			if existing == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single entry by ID.
func (r *EntryRepository) GetEntry(ctx context.Context, id string) (*core.Entry, error) {
	var entry *core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		entry, err = r.readEntry(tx, makeEntryKey(id))
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEntries retrieves the entries that exist among ids, in request order.
func (r *EntryRepository) GetEntries(ctx context.Context, ids ...string) ([]*core.Entry, error) {
	entries := make([]*core.Entry, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			entry, err := r.readEntry(tx, makeEntryKey(id))
			if err != nil {
				return err
			}
			if entry != nil {
				entries = append(entries, entry)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListEntries returns every entry. Badger iterates keys in byte order, so
// the result is ordered by ID.
func (r *EntryRepository) ListEntries(ctx context.Context) ([]*core.Entry, error) {
	var entries []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, entryPrefix, func(_ string, val []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := storage.UnmarshalEntry(val)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *EntryRepository) readEntry(tx *badger.Txn, key []byte) (*core.Entry, error) {
	val, err := readValue(tx, key)
	if err != nil || val == nil {
		return nil, err
	}
	return storage.UnmarshalEntry(val)
}
