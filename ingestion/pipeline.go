package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/storage"
	"github.com/poiesic/lorekeep/vector"
)

// Pipeline applies library edits and keeps flags and vectors in step.
type Pipeline struct {
	entries    storage.EntryRepository
	flags      storage.FlagStore
	index      *vector.Index
	vectorPool *ants.Pool
	vectorProc processor
	pending    sync.WaitGroup
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for vector maintenance.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.vectorPool != nil {
			p.vectorPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.vectorPool = pool
		return nil
	}
}

// WithIndex keeps index in step with library edits.
func WithIndex(index *vector.Index) Option {
	return func(p *Pipeline) error {
		p.index = index
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(entries storage.EntryRepository, flags storage.FlagStore, opts ...Option) (*Pipeline, error) {
	if entries == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if flags == nil {
		return nil, ErrFlagStoreRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		entries:    entries,
		flags:      flags,
		vectorPool: pool,
		logger:     slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.logger = p.logger.With("component", "ingestion")
	if p.index != nil {
		p.vectorProc = newVectorProcessor(p.index, p.logger)
	}
	return p, nil
}

// Item is an entry with optional flags, as produced by the importers.
type Item struct {
	Entry *core.Entry
	Flags *core.ExtendedFlags
}

// Ingest stores new entries and queues their vectors. Entries without an ID
// are given a random UUID. Flags are stored for items that carry them.
func (p *Pipeline) Ingest(ctx context.Context, items ...Item) ([]*core.Entry, error) {
	if len(items) == 0 {
		return nil, nil
	}

	entries := make([]*core.Entry, len(items))
	for i, item := range items {
		if item.Entry == nil {
			return nil, fmt.Errorf("%w: item %d has no entry", core.ErrInvalidEntry, i)
		}
		if item.Entry.ID == "" {
			item.Entry.ID = uuid.NewString()
		}
		entries[i] = item.Entry
	}

	added, err := p.entries.AddEntries(ctx, entries...)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Flags == nil {
			continue
		}
		if err := p.flags.SetFlags(ctx, item.Entry.ID, *item.Flags); err != nil {
			return added, fmt.Errorf("storing flags for %s: %w", item.Entry.ID, err)
		}
	}

	p.submitUpsert(added)
	return added, nil
}

// Update replaces existing entries and queues vector refreshes.
func (p *Pipeline) Update(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	updated, err := p.entries.UpdateEntries(ctx, entries...)
	if err != nil {
		return nil, err
	}
	p.submitUpsert(updated)
	return updated, nil
}

// Delete removes entries together with their flags and vectors.
func (p *Pipeline) Delete(ctx context.Context, ids ...string) error {
	if err := p.entries.DeleteEntries(ctx, ids...); err != nil {
		return err
	}
	if err := p.flags.DeleteFlags(ctx, ids...); err != nil {
		return fmt.Errorf("deleting flags: %w", err)
	}
	p.submit("removing vectors", func(ctx context.Context) error {
		return p.vectorProc.remove(ctx, ids...)
	})
	return nil
}

// Clear removes every entry, drops all flags and empties the index.
func (p *Pipeline) Clear(ctx context.Context) error {
	all, err := p.entries.ListEntries(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, len(all))
	for i, entry := range all {
		ids[i] = entry.ID
	}
	if len(ids) > 0 {
		if err := p.entries.DeleteEntries(ctx, ids...); err != nil {
			return err
		}
	}
	if _, err := p.flags.Cleanup(ctx, nil); err != nil {
		return fmt.Errorf("clearing flags: %w", err)
	}
	if p.index != nil {
		// Queued upserts for cleared entries must not outlive the clear.
		p.Wait()
		if _, err := p.index.Resync(ctx, nil); err != nil {
			return fmt.Errorf("clearing vectors: %w", err)
		}
	}
	p.logger.Info("library cleared", "entries", len(ids))
	return nil
}

// SetFlags stores the extended flags for an existing entry.
func (p *Pipeline) SetFlags(ctx context.Context, id string, flags core.ExtendedFlags) error {
	if _, err := p.entries.GetEntry(ctx, id); err != nil {
		return err
	}
	return p.flags.SetFlags(ctx, id, flags)
}

// Cleanup removes flags whose entry no longer exists and returns how many
// were removed.
func (p *Pipeline) Cleanup(ctx context.Context) (int, error) {
	all, err := p.entries.ListEntries(ctx)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(all))
	for i, entry := range all {
		ids[i] = entry.ID
	}
	return p.flags.Cleanup(ctx, ids)
}

// Sync waits for queued vector work and then resyncs the index against
// the whole library.
func (p *Pipeline) Sync(ctx context.Context) (vector.ResyncStats, error) {
	if p.index == nil {
		return vector.ResyncStats{}, nil
	}
	p.Wait()
	all, err := p.entries.ListEntries(ctx)
	if err != nil {
		return vector.ResyncStats{}, err
	}
	return p.index.Resync(ctx, all)
}

// Wait blocks until every queued vector task has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

func (p *Pipeline) submitUpsert(entries []*core.Entry) {
	if len(entries) == 0 {
		return
	}
	p.submit("upserting vectors", func(ctx context.Context) error {
		return p.vectorProc.upsert(ctx, entries...)
	})
}

// submit queues task on the vector pool. Errors are logged, never returned.
func (p *Pipeline) submit(what string, task func(ctx context.Context) error) {
	if p.vectorProc == nil {
		return
	}
	started := time.Now()
	p.pending.Add(1)
	err := p.vectorPool.Submit(func() {
		defer p.pending.Done()
		if err := task(context.Background()); err != nil {
			p.logger.Error("error "+what, "err", err)
			return
		}
		p.logger.Debug("finished "+what, "elapsed", time.Since(started))
	})
	if err != nil {
		p.pending.Done()
		p.logger.Error("error submitting vector task", "task", what, "err", err)
	}
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.vectorPool != nil {
		p.vectorPool.Release()
	}
}
