package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/lorekeep/ai/mock"
	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/storage/badger"
	"github.com/poiesic/lorekeep/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func newTestIndex(t *testing.T, embedder *mock.MockEmbedder) *vector.Index {
	t.Helper()
	ix, err := vector.NewIndex(embedder, vector.WithConfig(&vector.Config{
		BatchSize:      2,
		PoolSize:       2,
		RequestTimeout: time.Second,
		MaxRetries:     1,
	}))
	require.NoError(t, err)
	t.Cleanup(ix.Release)
	return ix
}

func addEntries(t *testing.T, repos *badger.Repositories, pairs ...string) {
	t.Helper()
	entries := make([]*core.Entry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		entries = append(entries, &core.Entry{ID: pairs[i], Content: pairs[i+1], Importance: 0.5, Enabled: true})
	}
	_, err := repos.Entries.AddEntries(context.Background(), entries...)
	require.NoError(t, err)
}

func TestNewReembedder(t *testing.T) {
	repos := setupTestDB(t)
	ix := newTestIndex(t, mock.NewMockEmbedder())

	_, err := NewReembedder(nil, repos.Snapshots, ix)
	assert.Equal(t, ErrEntryRepositoryRequired, err)
	_, err = NewReembedder(repos.Entries, nil, ix)
	assert.Equal(t, ErrSnapshotRepositoryRequired, err)
	_, err = NewReembedder(repos.Entries, repos.Snapshots, nil)
	assert.Equal(t, ErrIndexRequired, err)

	r, err := NewReembedder(repos.Entries, repos.Snapshots, ix, WithProgress(nil), WithLogger(nil), WithReportInterval(5))
	require.NoError(t, err)
	assert.Equal(t, 5, r.reportInterval)
}

func TestReembedder_Run(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	addEntries(t, repos, "forge", "The forge burns bright", "ferry", "The ferry crosses at dawn", "mill", "The mill grinds grain")

	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()
	ix := newTestIndex(t, embedder)
	r, err := NewReembedder(repos.Entries, repos.Snapshots, ix, WithProgress(&buf), WithReportInterval(1))
	require.NoError(t, err)

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Embedded)
	assert.Equal(t, 3, ix.Len())

	output := buf.String()
	assert.Contains(t, output, "Starting resync of 3 entries")
	assert.Contains(t, output, "3/3 entries")
	assert.Contains(t, output, "Resync complete: 3 embedded")

	snap, err := repos.Snapshots.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, []string{"ferry", "forge", "mill"}, snap.IDs)
}

func TestReembedder_RunRestoresSnapshot(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	addEntries(t, repos, "forge", "The forge burns bright", "ferry", "The ferry crosses at dawn")

	first, err := NewReembedder(repos.Entries, repos.Snapshots, newTestIndex(t, mock.NewMockEmbedder()))
	require.NoError(t, err)
	_, err = first.Run(ctx)
	require.NoError(t, err)

	// A fresh process with a new index reuses the saved vectors.
	embedder := mock.NewMockEmbedder()
	ix := newTestIndex(t, embedder)
	second, err := NewReembedder(repos.Entries, repos.Snapshots, ix)
	require.NoError(t, err)

	stats, err := second.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Unchanged)
	assert.Equal(t, 0, stats.Requests)
	assert.Equal(t, 0, embedder.CallCount())
	assert.Equal(t, 2, ix.Len())
}

func TestReembedder_RunDropsDeletedEntries(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	addEntries(t, repos, "forge", "The forge burns bright", "ferry", "The ferry crosses at dawn")

	ix := newTestIndex(t, mock.NewMockEmbedder())
	r, err := NewReembedder(repos.Entries, repos.Snapshots, ix)
	require.NoError(t, err)
	_, err = r.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, repos.Entries.DeleteEntries(ctx, "ferry"))
	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, []string{"forge"}, ix.IDs())
}

func TestReembedder_RunSavesPartialResults(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	addEntries(t, repos, "forge", "The forge burns bright")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider unavailable")
	}
	r, err := NewReembedder(repos.Entries, repos.Snapshots, newTestIndex(t, embedder))
	require.NoError(t, err)

	stats, err := r.Run(ctx)
	assert.ErrorIs(t, err, vector.ErrResyncIncomplete)
	assert.Equal(t, 1, stats.Failed)

	snap, err := repos.Snapshots.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.IDs)
}

func TestReembedder_Restore(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	ix := newTestIndex(t, mock.NewMockEmbedder())
	r, err := NewReembedder(repos.Entries, repos.Snapshots, ix)
	require.NoError(t, err)

	t.Run("no snapshot", func(t *testing.T) {
		n, err := r.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("valid snapshot", func(t *testing.T) {
		require.NoError(t, repos.Snapshots.SaveSnapshot(ctx, &core.VectorSnapshot{
			IDs:        []string{"forge"},
			Embeddings: []string{"0.6,0.8"},
			Hashes:     []string{core.ContentHash("The forge burns bright")},
		}))
		n, err := r.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("malformed snapshot is discarded", func(t *testing.T) {
		require.NoError(t, repos.Snapshots.SaveSnapshot(ctx, &core.VectorSnapshot{
			IDs:        []string{"forge", "ferry"},
			Embeddings: []string{"0.6,0.8"},
			Hashes:     []string{"h"},
		}))
		n, err := r.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		// The previous records survive a rejected import.
		assert.Equal(t, 1, ix.Len())
	})
}
