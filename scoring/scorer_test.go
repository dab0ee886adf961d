package scoring

import (
	"testing"

	"github.com/poiesic/lorekeep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T, cfg *Config) *Scorer {
	t.Helper()
	s, err := NewScorer(cfg)
	require.NoError(t, err)
	return s
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

func TestTagMatched(t *testing.T) {
	s := newTestScorer(t, nil)

	detail := s.TagMatched(forgeEntry())
	assert.Equal(t, 1.5, detail.TotalScore)
	assert.Equal(t, 1.0, detail.ImportanceScore)
	assert.Equal(t, ReasonTagMatched, detail.FailReason)
	assert.Equal(t, []string{"fire", "forge"}, detail.MatchedTags)
	assert.Equal(t, core.SourceLexical, detail.Source)
}

func TestRelevance(t *testing.T) {
	s := newTestScorer(t, nil)
	keywords := []string{"forge", "hot", "Forge", " "}

	t.Run("any mode", func(t *testing.T) {
		detail := s.Relevance(forgeEntry(), keywords, core.ExtendedFlags{MatchMode: core.MatchAny})
		assert.Equal(t, []string{"forge"}, detail.MatchedTags)
		assert.Equal(t, []string{"forge"}, detail.MatchedKeywords)
		assert.Equal(t, 1, detail.KeywordMatchCount)
		assert.InDelta(t, 0.5, detail.TagScore, 1e-9)
		assert.InDelta(t, 0.5/3, detail.JaccardScore, 1e-9)
		assert.InDelta(t, 1.0+0.5+0.1+0.5/3, detail.TotalScore, 1e-9)
		assert.Equal(t, ReasonKeywordMatched, detail.FailReason)
	})

	t.Run("all mode requires every tag", func(t *testing.T) {
		detail := s.Relevance(forgeEntry(), keywords, core.ExtendedFlags{MatchMode: core.MatchAll})
		assert.Zero(t, detail.TagScore)
		assert.InDelta(t, 1.0+0.1+0.5/3, detail.TotalScore, 1e-9)

		detail = s.Relevance(forgeEntry(), []string{"forge", "fire"}, core.ExtendedFlags{MatchMode: core.MatchAll})
		assert.InDelta(t, 1.0, detail.TagScore, 1e-9)
	})

	t.Run("no match", func(t *testing.T) {
		detail := s.Relevance(forgeEntry(), []string{"river"}, core.DefaultFlags())
		assert.Zero(t, detail.TotalScore)
		assert.Equal(t, ReasonNoMatch, detail.FailReason)
	})

	t.Run("disabled", func(t *testing.T) {
		entry := forgeEntry()
		entry.Enabled = false
		detail := s.Relevance(entry, keywords, core.DefaultFlags())
		assert.Zero(t, detail.TotalScore)
		assert.Equal(t, ReasonDisabled, detail.FailReason)
	})

	t.Run("keyword cap", func(t *testing.T) {
		entry := &core.Entry{ID: "b", Content: "one two three four five six seven", Enabled: true}
		detail := s.Relevance(entry, []string{"one", "two", "three", "four", "five", "six", "seven"}, core.DefaultFlags())
		assert.Equal(t, 7, detail.KeywordMatchCount)
		assert.InDelta(t, 0.5, detail.TotalScore, 1e-9)
	})
}

func TestApplyExtractionBonus_Once(t *testing.T) {
	s := newTestScorer(t, nil)
	detail := s.TagMatched(forgeEntry())
	details := []*core.ScoreDetail{detail, detail}

	applied := s.ApplyExtractionBonus(details, map[string]bool{"a": true})
	assert.Equal(t, 1, applied)
	assert.InDelta(t, 1.7, detail.TotalScore, 1e-9)
	assert.Equal(t, "Tag matched (ExtractedBonus: +0.20)", detail.FailReason)

	cfg := DefaultConfig()
	cfg.ExtractionBonus = 0
	none := newTestScorer(t, cfg)
	assert.Zero(t, none.ApplyExtractionBonus(details, map[string]bool{"a": true}))
}

func TestAccept(t *testing.T) {
	s := newTestScorer(t, nil)
	mk := func(id string, total float64, enabled bool) *core.ScoreDetail {
		return &core.ScoreDetail{Entry: &core.Entry{ID: id}, TotalScore: total, Enabled: enabled}
	}

	t.Run("ties ordered by id", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			details := []*core.ScoreDetail{mk("c", 1, true), mk("a", 1, true), mk("b", 2, true)}
			fired, ranked := s.Accept(details, 10)
			require.Len(t, fired, 3)
			assert.Equal(t, "b", fired[0].Entry.ID)
			assert.Equal(t, "a", fired[1].Entry.ID)
			assert.Equal(t, "c", fired[2].Entry.ID)
			assert.Equal(t, "b", ranked[0].Entry.ID)
		}
	})

	t.Run("threshold and limit", func(t *testing.T) {
		low := mk("low", 0.05, true)
		off := mk("off", 3, false)
		over := mk("over", 0.5, true)
		top := mk("top", 1, true)

		fired, ranked := s.Accept([]*core.ScoreDetail{low, off, over, top}, 1)
		require.Len(t, fired, 1)
		assert.Equal(t, "top", fired[0].Entry.ID)
		assert.Len(t, ranked, 4)
		assert.True(t, top.Fired)
		assert.False(t, over.Fired)
		assert.Equal(t, ReasonOverLimit, over.FailReason)
		assert.Equal(t, ReasonBelowThreshold, low.FailReason)
		assert.Equal(t, ReasonDisabled, off.FailReason)
	})

	t.Run("zero and negative limits", func(t *testing.T) {
		fired, ranked := s.Accept([]*core.ScoreDetail{mk("a", 1, true)}, 0)
		assert.Empty(t, fired)
		assert.Len(t, ranked, 1)

		fired, _ = s.Accept([]*core.ScoreDetail{mk("a", 1, true)}, -3)
		assert.Empty(t, fired)
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Threshold = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	_, err := NewScorer(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
