package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/lorekeep/ai/mock"
	"github.com/poiesic/lorekeep/core"
	"github.com/poiesic/lorekeep/match"
	"github.com/poiesic/lorekeep/scoring"
	"github.com/poiesic/lorekeep/storage/badger"
	"github.com/poiesic/lorekeep/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	queryDir = []float32{1, 0}
	awayDir  = []float32{0, 1}
	// sixty has cosine similarity 0.6 with queryDir.
	sixty = []float32{0.6, 0.8}
)

// directedEmbedder maps known texts to fixed vectors; everything else points
// away from queryDir.
func directedEmbedder(vectors map[string][]float32) *mock.MockEmbedder {
	lookup := func(text string) []float32 {
		if v, ok := vectors[text]; ok {
			return v
		}
		return awayDir
	}
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return lookup(text), nil
	}
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = lookup(text)
		}
		return out, nil
	}
	return m
}

func entry(id string, importance float64, content string, tags ...string) *core.Entry {
	return &core.Entry{ID: id, Tag: id, Content: content, Importance: importance, Enabled: true, Tags: tags}
}

func forgeEntry() *core.Entry {
	return &core.Entry{
		ID:         "a",
		Tag:        "fire",
		Content:    "The forge burns bright",
		Importance: 1.0,
		Enabled:    true,
		Tags:       []string{"fire", "forge"},
	}
}

func library(entries ...*core.Entry) StaticLibrary {
	return StaticLibrary{Entries: entries, Flags: match.FlagMap{}}
}

func newLexicalRetriever(t *testing.T, source Source, opts ...Option) *Retriever {
	t.Helper()
	scorer, err := scoring.NewScorer(nil)
	require.NoError(t, err)
	strategy, err := match.NewLexicalTags(nil, scorer)
	require.NoError(t, err)
	r, err := NewRetriever(source, strategy, scorer, opts...)
	require.NoError(t, err)
	return r
}

func newIndex(t *testing.T, embedder *mock.MockEmbedder, entries ...*core.Entry) *vector.Index {
	t.Helper()
	ix, err := vector.NewIndex(embedder, vector.WithConfig(&vector.Config{
		BatchSize:      8,
		PoolSize:       1,
		RequestTimeout: time.Second,
		MaxRetries:     1,
	}))
	require.NoError(t, err)
	t.Cleanup(ix.Release)
	_, err = ix.Resync(context.Background(), entries)
	require.NoError(t, err)
	return ix
}

func find(t *testing.T, trace []*core.ScoreDetail, id string, source core.Source) *core.ScoreDetail {
	t.Helper()
	for _, d := range trace {
		if d.Entry.ID == id && d.Source == source {
			return d
		}
	}
	t.Fatalf("no %s detail for %s", source, id)
	return nil
}

func TestNewRetriever(t *testing.T) {
	scorer, err := scoring.NewScorer(nil)
	require.NoError(t, err)
	strategy, err := match.NewLexicalTags(nil, scorer)
	require.NoError(t, err)
	src := library()

	t.Run("valid configuration", func(t *testing.T) {
		r, err := NewRetriever(src, strategy, scorer, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.False(t, r.VectorEnabled())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		_, err := NewRetriever(src, strategy, scorer, WithLogger(nil), WithConfig(nil))
		require.NoError(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewRetriever(src, strategy, scorer, WithConfig(&Config{MaxVectorResults: -1}))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := NewRetriever(nil, strategy, scorer)
		assert.Equal(t, ErrSourceRequired, err)
	})

	t.Run("nil strategy", func(t *testing.T) {
		_, err := NewRetriever(src, nil, scorer)
		assert.Equal(t, ErrStrategyRequired, err)
	})

	t.Run("nil scorer", func(t *testing.T) {
		_, err := NewRetriever(src, strategy, nil)
		assert.Equal(t, ErrScorerRequired, err)
	})
}

func TestRetrieve_ForgeScenario(t *testing.T) {
	r := newLexicalRetriever(t, library(forgeEntry(), entry("river", 0, "Cold water runs", "river")))

	res, err := r.Retrieve(context.Background(), Request{Context: "the forge is hot", MaxEntries: 5})
	require.NoError(t, err)

	require.Len(t, res.Fired, 1)
	assert.Equal(t, "a", res.Fired[0].Entry.ID)
	assert.Equal(t, 1.5, res.Fired[0].Score)
	assert.Equal(t, "1. [fire] The forge burns bright\n", res.Text)

	require.Len(t, res.Trace, 2)
	assert.Equal(t, "a", res.Trace[0].Entry.ID)
	assert.True(t, res.Trace[0].Fired)
	assert.False(t, res.Trace[1].Fired)
}

func TestRetrieve_MaxEntriesZero(t *testing.T) {
	r := newLexicalRetriever(t, library(forgeEntry()))

	for _, limit := range []int{0, -4} {
		res, err := r.Retrieve(context.Background(), Request{Context: "the forge is hot", MaxEntries: limit})
		require.NoError(t, err)
		assert.Empty(t, res.Fired)
		assert.Empty(t, res.Text)
	}
}

func TestRetrieve_TiesOrderedByID(t *testing.T) {
	r := newLexicalRetriever(t, library(
		entry("zeta", 1, "Second smith", "smith"),
		entry("alpha", 1, "First smith", "smith"),
		entry("mid", 1, "Third smith", "smith"),
	))

	for range 5 {
		res, err := r.Retrieve(context.Background(), Request{Context: "a smith walks in", MaxEntries: 10})
		require.NoError(t, err)
		require.Len(t, res.Fired, 3)
		assert.Equal(t, "alpha", res.Fired[0].Entry.ID)
		assert.Equal(t, "mid", res.Fired[1].Entry.ID)
		assert.Equal(t, "zeta", res.Fired[2].Entry.ID)
	}
}

type failingSource struct{}

func (failingSource) Library(context.Context) (match.Library, error) {
	return match.Library{}, errors.New("storage offline")
}

func TestRetrieve_EmptyContext(t *testing.T) {
	// An empty request never touches the library.
	r := newLexicalRetriever(t, failingSource{})

	res, err := r.Retrieve(context.Background(), Request{Context: "   ", MaxEntries: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
	assert.Empty(t, res.Text)
	assert.Empty(t, res.Trace)

	_, err = r.Retrieve(context.Background(), Request{Context: "hello", MaxEntries: 5})
	assert.Error(t, err)
}

func TestRetrieve_UsesDescriptorsAndSpeaker(t *testing.T) {
	restricted := entry("secret", 1, "Only Kael knows", "vault")
	restricted.TargetActorID = "kael"
	r := newLexicalRetriever(t, library(
		entry("smith", 0, "Smiths know metal", "blacksmith"),
		entry("child", 0, "Children play", "child"),
		restricted,
	))
	ctx := context.Background()

	res, err := r.Retrieve(ctx, Request{
		Context:    "what is in the vault",
		Speaker:    &Actor{ID: "kael", Descriptors: []string{"Kael", "blacksmith"}},
		Listener:   &Actor{ID: "mira", Descriptors: []string{"Mira", "child"}},
		MaxEntries: 10,
	})
	require.NoError(t, err)
	ids := make([]string, 0, len(res.Fired))
	for _, ks := range res.Fired {
		ids = append(ids, ks.Entry.ID)
	}
	assert.ElementsMatch(t, []string{"smith", "child", "secret"}, ids)

	res, err = r.Retrieve(ctx, Request{
		Context:    "what is in the vault",
		Speaker:    &Actor{ID: "mira", Descriptors: []string{"Mira"}},
		MaxEntries: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
}

func TestRetrieve_VectorCompositePassesThreshold(t *testing.T) {
	songs := entry("songs", 1.0, "ancient songs of the north")
	weak := entry("weak", 0, "cold river stones")
	embedder := directedEmbedder(map[string][]float32{
		"tell me about history":      queryDir,
		"ancient songs of the north": sixty,
		"cold river stones":          sixty,
	})
	ix := newIndex(t, embedder, songs, weak)
	r := newLexicalRetriever(t, library(songs, weak), WithIndex(ix))
	require.True(t, r.VectorEnabled())

	res, err := r.Retrieve(context.Background(), Request{Context: "tell me about history", MaxEntries: 5})
	require.NoError(t, err)

	require.Len(t, res.Fired, 1)
	assert.Equal(t, "songs", res.Fired[0].Entry.ID)
	assert.InDelta(t, 0.80, res.Fired[0].Score, 1e-6)
	assert.Equal(t, "1. [songs] ancient songs of the north\n", res.Text)

	detail := find(t, res.Trace, "songs", core.SourceVector)
	assert.InDelta(t, 0.60, detail.Similarity, 1e-6)
	assert.False(t, detail.Duplicate)
	assert.True(t, detail.Fired)

	// 0.60 + 0 * 0.2 is below the composite threshold.
	for _, d := range res.Trace {
		if d.Entry.ID == "weak" {
			assert.NotEqual(t, core.SourceVector, d.Source)
		}
	}
}

func TestRetrieve_VectorDuplicateIsTracedNotMerged(t *testing.T) {
	a := forgeEntry()
	embedder := directedEmbedder(map[string][]float32{
		"the forge is hot":       queryDir,
		"The forge burns bright": queryDir,
	})
	ix := newIndex(t, embedder, a)
	monitor := &recordingMonitor{}
	r := newLexicalRetriever(t, library(a), WithIndex(ix))

	res, err := r.RetrieveWithMonitor(context.Background(), Request{Context: "the forge is hot", MaxEntries: 5}, monitor)
	require.NoError(t, err)

	require.Len(t, res.Fired, 1)
	assert.Equal(t, 1.5, res.Fired[0].Score)

	dup := find(t, res.Trace, "a", core.SourceVector)
	assert.True(t, dup.Duplicate)
	assert.False(t, dup.Fired)
	assert.Contains(t, dup.FailReason, ReasonLexicalDup)

	assert.Equal(t, 1, monitor.duplicates)
	assert.Equal(t, 0, monitor.hits)
	assert.Equal(t, "the forge is hot", monitor.matchText)
	assert.True(t, monitor.finished)
}

func TestRetrieve_VectorSkipsUnusableEntries(t *testing.T) {
	disabled := entry("disabled", 2, "disabled lore")
	disabled.Enabled = false
	restricted := entry("restricted", 2, "restricted lore")
	restricted.TargetActorID = "someone-else"
	ghost := entry("ghost", 2, "ghost lore")
	good := entry("good", 2, "good lore")
	embedder := directedEmbedder(map[string][]float32{
		"lore please":     queryDir,
		"disabled lore":   queryDir,
		"restricted lore": queryDir,
		"ghost lore":      queryDir,
		"good lore":       queryDir,
	})
	ix := newIndex(t, embedder, disabled, restricted, ghost, good)
	// ghost has a vector but is no longer in the library.
	r := newLexicalRetriever(t, library(disabled, restricted, good), WithIndex(ix))

	res, err := r.Retrieve(context.Background(), Request{Context: "lore please", Speaker: &Actor{ID: "me"}, MaxEntries: 5})
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.Equal(t, "good", res.Fired[0].Entry.ID)
}

func TestRetrieve_VectorLimit(t *testing.T) {
	v1, v2, v3 := entry("v1", 1, "one"), entry("v2", 1, "two"), entry("v3", 1, "three")
	embedder := directedEmbedder(map[string][]float32{
		"numbers": queryDir, "one": sixty, "two": sixty, "three": sixty,
	})
	ix := newIndex(t, embedder, v1, v2, v3)
	cfg := DefaultConfig()
	cfg.MaxVectorResults = 2
	r := newLexicalRetriever(t, library(v1, v2, v3), WithIndex(ix), WithConfig(cfg))

	res, err := r.Retrieve(context.Background(), Request{Context: "numbers", MaxEntries: 10})
	require.NoError(t, err)
	require.Len(t, res.Fired, 2)
	assert.Equal(t, "v1", res.Fired[0].Entry.ID)
	assert.Equal(t, "v2", res.Fired[1].Entry.ID)
	assert.Contains(t, find(t, res.Trace, "v3", core.SourceVector).FailReason, ReasonOverVectorLimit)
}

func TestRetrieve_VectorFailureFallsBackToLexical(t *testing.T) {
	a := forgeEntry()
	embedder := directedEmbedder(nil)
	ix := newIndex(t, embedder, a)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("401 unauthorized")
	}
	r := newLexicalRetriever(t, library(a), WithIndex(ix))

	res, err := r.Retrieve(context.Background(), Request{Context: "the forge is hot", MaxEntries: 5})
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.Equal(t, "a", res.Fired[0].Entry.ID)
}

func TestRetrieve_VectorDisabledByConfig(t *testing.T) {
	embedder := directedEmbedder(nil)
	ix := newIndex(t, embedder, forgeEntry())
	calls := embedder.CallCount()
	cfg := DefaultConfig()
	cfg.VectorEnabled = false
	r := newLexicalRetriever(t, library(forgeEntry()), WithIndex(ix), WithConfig(cfg))

	_, err := r.Retrieve(context.Background(), Request{Context: "the forge is hot", MaxEntries: 5})
	require.NoError(t, err)
	assert.Equal(t, calls, embedder.CallCount())
}

func TestRetrieve_StoreSource(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()
	ctx := context.Background()

	_, err = repos.Entries.AddEntries(ctx,
		entry("b", 1, "Smiths use iron from the mine", "forge"),
		entry("c", 2, "Iron comes from the deep mine", "iron"),
	)
	require.NoError(t, err)
	require.NoError(t, repos.Flags.SetFlags(ctx, "b", core.ExtendedFlags{CanBeExtracted: true}))
	require.NoError(t, repos.Flags.SetFlags(ctx, "c", core.ExtendedFlags{CanBeMatched: true}))

	r := newLexicalRetriever(t, NewStoreSource(repos.Entries, repos.Flags))
	res, err := r.Retrieve(ctx, Request{Context: "the forge glows", MaxEntries: 5})
	require.NoError(t, err)

	// c is reached through b's content and ranks first on importance.
	require.Len(t, res.Fired, 2)
	assert.Equal(t, "c", res.Fired[0].Entry.ID)
	assert.Equal(t, "b", res.Fired[1].Entry.ID)
	assert.Greater(t, res.Fired[1].Score, 1.5)
}

func TestPreviewVector(t *testing.T) {
	a := forgeEntry()
	songs := entry("songs", 1.0, "ancient songs of the north")
	embedder := directedEmbedder(map[string][]float32{
		"the forge is hot":           queryDir,
		"The forge burns bright":     queryDir,
		"ancient songs of the north": sixty,
	})
	ix := newIndex(t, embedder, a, songs)
	r := newLexicalRetriever(t, library(a, songs), WithIndex(ix))

	preview, err := r.PreviewVector(context.Background(), Request{Context: "  the forge\n is hot "}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "the forge is hot", preview.Query)
	assert.Equal(t, 2, preview.Candidates)
	require.Len(t, preview.Final, 2)
	assert.Equal(t, "a", preview.Final[0].Entry.ID)
	assert.True(t, preview.Final[0].Duplicate)
	assert.Equal(t, "songs", preview.Final[1].Entry.ID)

	report := preview.String()
	assert.Contains(t, report, "Candidates: 2 -> passed composite threshold: 2 -> final: 2")
	assert.Contains(t, report, "[already matched by keywords]")
	assert.Contains(t, report, "[songs] ancient songs of the north")
}

func TestPreviewVector_TimeoutAndDisabled(t *testing.T) {
	r := newLexicalRetriever(t, library(forgeEntry()))
	_, err := r.PreviewVector(context.Background(), Request{Context: "x"}, time.Second)
	assert.ErrorIs(t, err, ErrVectorDisabled)

	embedder := directedEmbedder(nil)
	ix := newIndex(t, embedder)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	r = newLexicalRetriever(t, library(forgeEntry()), WithIndex(ix))
	_, err = r.PreviewVector(context.Background(), Request{Context: "the forge"}, 20*time.Millisecond)
	assert.ErrorIs(t, err, vector.ErrQueryTimeout)
}

type recordingMonitor struct {
	matchText  string
	lexical    int
	vector     int
	hits       int
	duplicates int
	finished   bool
}

func (m *recordingMonitor) Start(_ *Request, matchText string) { m.matchText = matchText }
func (m *recordingMonitor) AfterLexicalMatch(o *match.Outcome) { m.lexical = len(o.Candidates) }
func (m *recordingMonitor) AfterVectorQuery(v []core.VectorMatch) {
	m.vector = len(v)
}
func (m *recordingMonitor) VectorHit(_ *core.ScoreDetail)       { m.hits++ }
func (m *recordingMonitor) VectorDuplicate(_ *core.ScoreDetail) { m.duplicates++ }
func (m *recordingMonitor) Finish(_ *Result)                    { m.finished = true }
