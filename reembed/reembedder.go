// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lorekeep/storage"
	"github.com/poiesic/lorekeep/vector"
)

// Reembedder rebuilds a vector index against the stored library and keeps
// its snapshot current.
type Reembedder struct {
	entries        storage.EntryRepository
	snapshots      storage.SnapshotRepository
	index          *vector.Index
	progress       io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithProgress writes progress lines to w (typically os.Stderr).
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(r *Reembedder) {
		if w == nil {
			w = io.Discard
		}
		r.progress = w
	}
}

// WithReportInterval reports progress every n entries. Default is 100.
func WithReportInterval(n int) Option {
	return func(r *Reembedder) {
		r.reportInterval = n
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewReembedder creates a Reembedder.
func NewReembedder(entries storage.EntryRepository, snapshots storage.SnapshotRepository, index *vector.Index, opts ...Option) (*Reembedder, error) {
	if entries == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if snapshots == nil {
		return nil, ErrSnapshotRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	r := &Reembedder{
		entries:        entries,
		snapshots:      snapshots,
		index:          index,
		progress:       io.Discard,
		reportInterval: 100,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "reembed")
	return r, nil
}

// Restore loads the stored snapshot into the index and returns the number
// of records loaded. A missing snapshot loads nothing. A malformed snapshot
// is logged and discarded so the next Run rebuilds from scratch.
func (r *Reembedder) Restore(ctx context.Context) (int, error) {
	snap, err := r.snapshots.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrTruncatedData) || errors.Is(err, storage.ErrSerializationFailed) {
			r.logger.Warn("discarding unreadable vector snapshot", "err", err)
			return 0, nil
		}
		return 0, fmt.Errorf("loading snapshot: %w", err)
	}
	if snap == nil {
		return 0, nil
	}
	if err := r.index.Import(snap); err != nil {
		if errors.Is(err, vector.ErrMalformedSnapshot) {
			r.logger.Warn("discarding malformed vector snapshot", "err", err)
			return 0, nil
		}
		return 0, err
	}
	r.logger.Info("vector snapshot restored", "records", r.index.Len())
	return r.index.Len(), nil
}

// Save writes the current index to the snapshot store.
func (r *Reembedder) Save(ctx context.Context) error {
	if err := r.snapshots.SaveSnapshot(ctx, r.index.Export()); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Run resyncs the index against every stored entry and saves the result.
// An empty index is first restored from the snapshot so unchanged entries
// are not embedded again. Partial results are saved even when some
// embeddings failed.
func (r *Reembedder) Run(ctx context.Context) (vector.ResyncStats, error) {
	if r.index.Len() == 0 {
		if _, err := r.Restore(ctx); err != nil {
			return vector.ResyncStats{}, err
		}
	}

	all, err := r.entries.ListEntries(ctx)
	if err != nil {
		return vector.ResyncStats{}, fmt.Errorf("failed to list entries: %w", err)
	}

	fmt.Fprintf(r.progress, "Starting resync of %d entries\n", len(all))
	tracker := NewProgressTracker(r.progress, len(all), r.reportInterval)
	tracker.Start()

	stats, resyncErr := r.index.ResyncWithProgress(ctx, all, tracker.Callback())
	tracker.Finish()

	if errors.Is(resyncErr, context.Canceled) || errors.Is(resyncErr, context.DeadlineExceeded) {
		return stats, resyncErr
	}
	if err := r.Save(ctx); err != nil {
		return stats, errors.Join(resyncErr, err)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Resync complete: %d embedded, %d unchanged, %d removed, %d failed in %v\n",
		stats.Embedded, stats.Unchanged, stats.Removed, stats.Failed, elapsed.Round(time.Millisecond))
	return stats, resyncErr
}
