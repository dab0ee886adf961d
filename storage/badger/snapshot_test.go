package badger

import (
	"context"
	"testing"

	"github.com/poiesic/lorekeep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepository_LoadMissing(t *testing.T) {
	repos := newTestRepos(t)

	snapshot, err := repos.Snapshots.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestSnapshotRepository_SaveLoadDelete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	want := &core.VectorSnapshot{
		IDs:        []string{"a", "b"},
		Embeddings: []string{"1,0", "0,1"},
		Hashes:     []string{"h1", "h2"},
	}
	require.NoError(t, repos.Snapshots.SaveSnapshot(ctx, want))

	got, err := repos.Snapshots.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Saving replaces the previous value.
	replacement := &core.VectorSnapshot{IDs: []string{"c"}, Embeddings: []string{"1"}, Hashes: []string{"h3"}}
	require.NoError(t, repos.Snapshots.SaveSnapshot(ctx, replacement))
	got, err = repos.Snapshots.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, replacement, got)

	require.NoError(t, repos.Snapshots.DeleteSnapshot(ctx))
	got, err = repos.Snapshots.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
