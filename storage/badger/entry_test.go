package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestEntryRepository_AddAndGet(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	entry := &core.Entry{
		ID:         "forge",
		Tag:        "forge,fire",
		Content:    "The forge burns hot",
		Importance: 1.0,
		Enabled:    true,
	}
	added, err := repos.Entries.AddEntries(ctx, entry)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.False(t, added[0].CreatedAt.IsZero())
	assert.Equal(t, added[0].CreatedAt, added[0].UpdatedAt)

	got, err := repos.Entries.GetEntry(ctx, "forge")
	require.NoError(t, err)
	assert.Equal(t, entry.Content, got.Content)
	assert.Equal(t, entry.Tag, got.Tag)
	assert.True(t, got.CreatedAt.Equal(entry.CreatedAt.Truncate(time.Microsecond)))
}

func TestEntryRepository_AddDuplicate(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Entries.AddEntries(ctx, &core.Entry{ID: "a", Content: "one"})
	require.NoError(t, err)

	_, err = repos.Entries.AddEntries(ctx, &core.Entry{ID: "a", Content: "two"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Duplicates inside one batch are rejected and nothing is written.
	_, err = repos.Entries.AddEntries(ctx,
		&core.Entry{ID: "b", Content: "one"},
		&core.Entry{ID: "b", Content: "two"},
	)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	_, err = repos.Entries.GetEntry(ctx, "b")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEntryRepository_AddInvalid(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.Entries.AddEntries(context.Background(), &core.Entry{ID: "", Content: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidEntry)
}

func TestEntryRepository_Update(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := repos.Entries.AddEntries(ctx, &core.Entry{ID: "a", Content: "old", CreatedAt: created})
	require.NoError(t, err)

	_, err = repos.Entries.UpdateEntries(ctx, &core.Entry{ID: "a", Content: "new"})
	require.NoError(t, err)

	got, err := repos.Entries.GetEntry(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.UpdatedAt.After(created))

	_, err = repos.Entries.UpdateEntries(ctx, &core.Entry{ID: "missing", Content: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEntryRepository_Delete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Entries.AddEntries(ctx, &core.Entry{ID: "a", Content: "x"})
	require.NoError(t, err)

	require.NoError(t, repos.Entries.DeleteEntries(ctx, "a"))
	_, err = repos.Entries.GetEntry(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, repos.Entries.DeleteEntries(ctx, "a"), storage.ErrNotFound)
}

func TestEntryRepository_GetEntriesAndList(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Entries.AddEntries(ctx,
		&core.Entry{ID: "c", Content: "third"},
		&core.Entry{ID: "a", Content: "first"},
		&core.Entry{ID: "b", Content: "second"},
	)
	require.NoError(t, err)

	got, err := repos.Entries.GetEntries(ctx, "b", "missing", "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	all, err := repos.Entries.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestEntryRepository_ListCancelled(t *testing.T) {
	repos := newTestRepos(t)
	_, err := repos.Entries.AddEntries(context.Background(), &core.Entry{ID: "a", Content: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repos.Entries.ListEntries(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
