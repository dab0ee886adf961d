package ingestion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/vector"
)

// vectorProcessor keeps a vector index in step with entry edits.
type vectorProcessor struct {
	index  *vector.Index
	logger *slog.Logger
}

var _ processor = (*vectorProcessor)(nil)

func newVectorProcessor(index *vector.Index, logger *slog.Logger) *vectorProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &vectorProcessor{
		index:  index,
		logger: logger.With("processor", "vectors"),
	}
}

// upsert embeds every enabled entry. Disabled entries are left alone.
func (vp *vectorProcessor) upsert(ctx context.Context, entries ...*core.Entry) error {
	vp.logger.Debug("upserting vectors", "entries", len(entries))
	var errs []error
	for _, entry := range entries {
		if !entry.Enabled {
			continue
		}
		if err := vp.index.Upsert(ctx, entry.ID, entry.Content); err != nil {
			vp.logger.Warn("error upserting vector", "id", entry.ID, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (vp *vectorProcessor) remove(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := vp.index.Remove(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
