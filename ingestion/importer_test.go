package ingestion

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/lorekeep/ai/mock"
	"github.com/poiesic/lorekeep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	input := `
# village lore
[fire, forge] The forge burns bright
[]   Untagged but bracketed
Plain line without tags
`
	items, err := ParseText(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 3)

	first := items[0].Entry
	assert.Equal(t, "fire, forge", first.Tag)
	assert.Equal(t, []string{"fire", "forge"}, first.Tags)
	assert.Equal(t, "The forge burns bright", first.Content)
	assert.Equal(t, DefaultImportance, first.Importance)
	assert.True(t, first.Enabled)
	assert.Nil(t, items[0].Flags)

	assert.Empty(t, items[1].Entry.Tags)
	assert.Equal(t, "Untagged but bracketed", items[1].Entry.Content)
	assert.Equal(t, "Plain line without tags", items[2].Entry.Content)
}

func TestParseText_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"unclosed bracket", "[fire the forge", "line 1"},
		{"no content", "ok line\n[fire]   ", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrMalformedLine)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestParseYAML(t *testing.T) {
	input := `
- id: forge
  tag: fire
  content: The forge burns bright
  importance: 1
  flags:
    can_be_extracted: true
    match_mode: all
- tags: [River, ferry]
  content: "  The ferry crosses at dawn  "
  enabled: false
  target_actor: alice
`
	items, err := ParseYAML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)

	forge := items[0]
	assert.Equal(t, "forge", forge.Entry.ID)
	assert.Equal(t, []string{"fire"}, forge.Entry.Tags)
	assert.Equal(t, 1.0, forge.Entry.Importance)
	assert.True(t, forge.Entry.Enabled)
	require.NotNil(t, forge.Flags)
	assert.Equal(t, core.ExtendedFlags{CanBeExtracted: true, MatchMode: core.MatchAll}, *forge.Flags)

	ferry := items[1].Entry
	assert.Empty(t, ferry.ID)
	assert.Equal(t, []string{"River", "ferry"}, ferry.Tags)
	assert.Equal(t, "The ferry crosses at dawn", ferry.Content)
	assert.Equal(t, DefaultImportance, ferry.Importance)
	assert.False(t, ferry.Enabled)
	assert.Equal(t, "alice", ferry.TargetActorID)
	assert.Nil(t, items[1].Flags)
}

func TestParseYAML_EmptyAndMalformed(t *testing.T) {
	items, err := ParseYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = ParseYAML(strings.NewReader("id: not-a-list"))
	assert.ErrorIs(t, err, ErrMalformedDocument)

	_, err = ParseYAML(strings.NewReader("- content: x\n  flags:\n    match_mode: sometimes\n"))
	assert.ErrorIs(t, err, ErrMalformedDocument)
	assert.ErrorIs(t, err, core.ErrInvalidMatchMode)
}

func TestPipeline_ImportText(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	ix := setupTestIndex(t, embedder)
	p, repos := setupTestPipeline(t, WithIndex(ix))
	ctx := context.Background()

	added, err := p.ImportText(ctx, strings.NewReader("[fire] The forge burns bright\n[river] The ferry crosses at dawn\n"))
	require.NoError(t, err)
	require.Len(t, added, 2)

	all, err := repos.Entries.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, ix.Len())

	_, err = p.ImportText(ctx, strings.NewReader("[broken"))
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestPipeline_ImportYAML(t *testing.T) {
	p, repos := setupTestPipeline(t)
	ctx := context.Background()

	added, err := p.ImportYAML(ctx, strings.NewReader("- id: forge\n  tag: fire\n  content: hot\n  flags:\n    can_be_matched: true\n"))
	require.NoError(t, err)
	require.Len(t, added, 1)

	flags, err := repos.Flags.Flags(ctx, "forge")
	require.NoError(t, err)
	assert.True(t, flags.CanBeMatched)
	assert.Equal(t, core.MatchAny, flags.MatchMode)
}
