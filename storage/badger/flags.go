package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/storage"
)

// FlagRepository implements storage.FlagStore for BadgerDB.
type FlagRepository struct {
	backend *Backend
}

var _ storage.FlagStore = (*FlagRepository)(nil)

// NewFlagRepository creates a new FlagRepository.
func NewFlagRepository(backend *Backend) *FlagRepository {
	return &FlagRepository{
		backend: backend,
	}
}

// Flags returns the stored flags for id, or the defaults.
func (r *FlagRepository) Flags(ctx context.Context, id string) (core.ExtendedFlags, error) {
	flags := core.DefaultFlags()
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		val, err := readValue(tx, makeFlagKey(id))
		if err != nil || val == nil {
			return err
		}
		flags, err = storage.UnmarshalFlags(val)
		return err
	}, false)
	if err != nil {
		return core.DefaultFlags(), err
	}
	return flags, nil
}

// SetFlags stores flags for id.
func (r *FlagRepository) SetFlags(ctx context.Context, id string, flags core.ExtendedFlags) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFlagKey(id), storage.MarshalFlags(flags)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AllFlags returns every stored flag value keyed by entry ID.
func (r *FlagRepository) AllFlags(ctx context.Context) (map[string]core.ExtendedFlags, error) {
	all := make(map[string]core.ExtendedFlags)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, flagPrefix, func(id string, val []byte) error {
			flags, err := storage.UnmarshalFlags(val)
			if err != nil {
				return err
			}
			all[id] = flags
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return all, nil
}

// DeleteFlags removes flags for ids. Missing IDs are ignored.
func (r *FlagRepository) DeleteFlags(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeFlagKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Cleanup removes flags whose IDs are not in validIDs.
func (r *FlagRepository) Cleanup(ctx context.Context, validIDs []string) (int, error) {
	valid := make(map[string]struct{}, len(validIDs))
	for _, id := range validIDs {
		valid[id] = struct{}{}
	}

	var stale []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, flagPrefix, func(id string, _ []byte) error {
			if _, ok := valid[id]; !ok {
				stale = append(stale, id)
			}
			return nil
		})
	}, false)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := r.DeleteFlags(ctx, stale...); err != nil {
		return 0, err
	}
	r.backend.logger.Debug("removed stale flags", "count", len(stale))
	return len(stale), nil
}
