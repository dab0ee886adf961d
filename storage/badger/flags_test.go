package badger

import (
	"context"
	"testing"

	"github.com/poiesic/lorekeep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagRepository_DefaultsWhenMissing(t *testing.T) {
	repos := newTestRepos(t)

	flags, err := repos.Flags.Flags(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultFlags(), flags)
}

func TestFlagRepository_SetAndGet(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	want := core.ExtendedFlags{CanBeExtracted: true, CanBeMatched: true, MatchMode: core.MatchAll}
	require.NoError(t, repos.Flags.SetFlags(ctx, "a", want))

	got, err := repos.Flags.Flags(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	all, err := repos.Flags.AllFlags(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.ExtendedFlags{"a": want}, all)
}

func TestFlagRepository_DeleteIgnoresMissing(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Flags.SetFlags(ctx, "a", core.ExtendedFlags{CanBeExtracted: true}))
	require.NoError(t, repos.Flags.DeleteFlags(ctx, "a", "missing"))

	got, err := repos.Flags.Flags(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultFlags(), got)
}

func TestFlagRepository_Cleanup(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repos.Flags.SetFlags(ctx, id, core.ExtendedFlags{CanBeMatched: true}))
	}

	removed, err := repos.Flags.Cleanup(ctx, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err := repos.Flags.AllFlags(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Contains(t, all, "b")

	removed, err = repos.Flags.Cleanup(ctx, []string{"b"})
	require.NoError(t, err)
	assert.Zero(t, removed)
}
