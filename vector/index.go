package vector

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lorekeep/ai"
	"github.com/poiesic/lorekeep/core"
)

// Index holds one embedding per entry and answers similarity queries.
//
// Writes for the same ID are serialized; writes for different IDs run
// concurrently. Resync and Import are exclusive over all writes but not
// over queries. No lock is held across an embedding request.
type Index struct {
	embedder ai.Embedder
	config   *Config
	backoff  ai.Backoff
	pool     *ants.Pool
	logger   *slog.Logger

	// gate is read-held by Upsert and Remove and write-held by Resync and Import.
	gate  sync.RWMutex
	locks *keyedMutex

	mu      sync.RWMutex
	records map[string]*core.VectorRecord

	closed atomic.Bool
}

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(ix *Index) error {
		if config == nil {
			return nil
		}
		if err := config.Validate(); err != nil {
			return err
		}
		ix.config = config
		return nil
	}
}

// NewIndex creates an empty Index. Release must be called when done.
func NewIndex(embedder ai.Embedder, opts ...Option) (*Index, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ix := &Index{
		embedder: embedder,
		config:   DefaultConfig(),
		logger:   slog.Default(),
		locks:    newKeyedMutex(),
		records:  make(map[string]*core.VectorRecord),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(ix.config.PoolSize)
	if err != nil {
		return nil, err
	}
	ix.pool = pool
	ix.backoff = ai.Backoff{Attempts: ix.config.MaxRetries, BaseDelay: ix.config.RetryDelay}
	ix.logger = ix.logger.With("component", "vector-index")
	return ix, nil
}

// Release stops the resync worker pool.
func (ix *Index) Release() {
	if ix.closed.CompareAndSwap(false, true) {
		ix.pool.Release()
	}
}

// Len returns the number of stored records.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Record returns a copy of the record stored for id.
func (ix *Index) Record(id string) (core.VectorRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.records[id]
	if !ok {
		return core.VectorRecord{}, false
	}
	return core.VectorRecord{ID: rec.ID, Embedding: slices.Clone(rec.Embedding), ContentHash: rec.ContentHash}, true
}

// IDs returns the stored IDs in ascending order.
func (ix *Index) IDs() []string {
	ix.mu.RLock()
	ids := make([]string, 0, len(ix.records))
	for id := range ix.records {
		ids = append(ids, id)
	}
	ix.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Upsert embeds text and stores it as the record for id, replacing any
// earlier record. A record whose hash already matches text is kept as is.
// If ctx is done before the embedding arrives the result is discarded.
func (ix *Index) Upsert(ctx context.Context, id, text string) error {
	if ix.closed.Load() {
		return ErrIndexClosed
	}
	ix.gate.RLock()
	defer ix.gate.RUnlock()
	unlock := ix.locks.Lock(id)
	defer unlock()

	hash := core.ContentHash(text)
	if rec, ok := ix.Record(id); ok && rec.ContentHash == hash {
		return nil
	}

	embedding, err := ix.embedOne(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ix.store(&core.VectorRecord{ID: id, Embedding: embedding, ContentHash: hash})
	return nil
}

// Remove deletes the record for id. Missing IDs are ignored.
func (ix *Index) Remove(ctx context.Context, id string) error {
	ix.gate.RLock()
	defer ix.gate.RUnlock()
	unlock := ix.locks.Lock(id)
	defer unlock()

	ix.mu.Lock()
	delete(ix.records, id)
	ix.mu.Unlock()
	return nil
}

// ResyncStats summarizes a resync pass.
type ResyncStats struct {
	Total     int // entries considered
	Embedded  int // records created or refreshed
	Unchanged int // records whose hash already matched
	Removed   int // records dropped because their entry is gone
	Failed    int // entries whose embedding failed
	Requests  int // embedding requests issued
}

// Progress is called after each resync batch with the running count of
// entries handled and the total.
type Progress func(done, total int)

// Resync brings the index in line with entries: it embeds entries whose
// record is missing or stale, then drops records without an entry.
// Failed batches leave the records they would have replaced untouched and
// are reported through ErrResyncIncomplete.
func (ix *Index) Resync(ctx context.Context, entries []*core.Entry) (ResyncStats, error) {
	return ix.ResyncWithProgress(ctx, entries, nil)
}

// ResyncWithProgress is Resync with a per-batch progress callback.
func (ix *Index) ResyncWithProgress(ctx context.Context, entries []*core.Entry, progress Progress) (ResyncStats, error) {
	if ix.closed.Load() {
		return ResyncStats{}, ErrIndexClosed
	}
	ix.gate.Lock()
	defer ix.gate.Unlock()

	stats := ResyncStats{Total: len(entries)}
	present := make(map[string]bool, len(entries))
	var stale []*core.Entry

	ix.mu.RLock()
	for _, entry := range entries {
		present[entry.ID] = true
		if strings.TrimSpace(entry.Content) == "" {
			continue
		}
		if rec, ok := ix.records[entry.ID]; ok && rec.ContentHash == core.ContentHash(entry.Content) {
			stats.Unchanged++
			continue
		}
		stale = append(stale, entry)
	}
	ix.mu.RUnlock()

	var (
		wg     sync.WaitGroup
		statMu sync.Mutex
		done   = stats.Unchanged
	)
	for batch := range slices.Chunk(stale, ix.config.BatchSize) {
		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			err := ix.embedBatch(ctx, batch)

			statMu.Lock()
			defer statMu.Unlock()
			stats.Requests++
			if err != nil {
				stats.Failed += len(batch)
				ix.logger.Warn("resync batch failed", "size", len(batch), "first", batch[0].ID, "err", err)
			} else {
				stats.Embedded += len(batch)
			}
			done += len(batch)
			if progress != nil {
				progress(done, stats.Total)
			}
		})
		if err != nil {
			wg.Done()
			statMu.Lock()
			stats.Failed += len(batch)
			statMu.Unlock()
			ix.logger.Error("failed to submit resync batch", "err", err)
		}
	}
	wg.Wait()

	ix.mu.Lock()
	for id := range ix.records {
		if !present[id] {
			delete(ix.records, id)
			stats.Removed++
		}
	}
	ix.mu.Unlock()

	ix.logger.Info("resync finished",
		"total", stats.Total,
		"embedded", stats.Embedded,
		"unchanged", stats.Unchanged,
		"removed", stats.Removed,
		"failed", stats.Failed)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d embeddings failed", ErrResyncIncomplete, stats.Failed, len(stale))
	}
	return stats, nil
}

func (ix *Index) embedBatch(ctx context.Context, batch []*core.Entry) error {
	texts := make([]string, len(batch))
	for i, entry := range batch {
		texts[i] = entry.Content
	}

	var embeddings [][]float32
	err := ix.backoff.Retry(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, ix.config.RequestTimeout)
		defer cancel()
		var err error
		embeddings, err = ix.embedder.EmbedTexts(attemptCtx, texts)
		return err
	})
	if err != nil {
		return err
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: expected %d embeddings, got %d", ai.ErrEmbeddingMismatch, len(batch), len(embeddings))
	}

	for i, entry := range batch {
		ix.store(&core.VectorRecord{
			ID:          entry.ID,
			Embedding:   Normalize(embeddings[i]),
			ContentHash: core.ContentHash(entry.Content),
		})
	}
	return nil
}

func (ix *Index) embedOne(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	err := ix.backoff.Retry(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, ix.config.RequestTimeout)
		defer cancel()
		var err error
		embedding, err = ix.embedder.EmbedText(attemptCtx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return Normalize(embedding), nil
}

func (ix *Index) store(rec *core.VectorRecord) {
	ix.mu.Lock()
	ix.records[rec.ID] = rec
	ix.mu.Unlock()
}

// Query embeds text and returns up to k records with similarity at least
// minSimilarity, most similar first, ties by ID. k <= 0 or blank text
// returns no matches without an embedding request.
func (ix *Index) Query(ctx context.Context, text string, k int, minSimilarity float64) ([]core.VectorMatch, error) {
	if k <= 0 || strings.TrimSpace(text) == "" {
		return []core.VectorMatch{}, nil
	}

	query, err := ix.embedOne(ctx, text)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	matches := make([]core.VectorMatch, 0, len(ix.records))
	for id, rec := range ix.records {
		if sim := Cosine(query, rec.Embedding); sim >= minSimilarity {
			matches = append(matches, core.VectorMatch{ID: id, Similarity: sim})
		}
	}
	ix.mu.RUnlock()

	slices.SortFunc(matches, func(a, b core.VectorMatch) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// QueryResult is delivered by QueryAsync.
type QueryResult struct {
	Matches []core.VectorMatch
	Err     error
}

// QueryAsync runs Query in the background. The channel receives exactly
// one result and is then closed. Cancelling ctx abandons the request.
func (ix *Index) QueryAsync(ctx context.Context, text string, k int, minSimilarity float64) <-chan QueryResult {
	ch := make(chan QueryResult, 1)
	go func() {
		defer close(ch)
		matches, err := ix.Query(ctx, text, k, minSimilarity)
		ch <- QueryResult{Matches: matches, Err: err}
	}()
	return ch
}

// Await blocks until ch delivers or timeout passes.
func Await(ch <-chan QueryResult, timeout time.Duration) ([]core.VectorMatch, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res, ok := <-ch:
		if !ok {
			return nil, ErrQueryTimeout
		}
		return res.Matches, res.Err
	case <-timer.C:
		return nil, ErrQueryTimeout
	}
}
