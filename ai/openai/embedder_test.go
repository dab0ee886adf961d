package openai

import (
	"testing"

	"github.com/poiesic/lorekeep/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_DisabledWithoutKey(t *testing.T) {
	embedder, err := NewEmbedder(ai.DefaultConfig())
	assert.ErrorIs(t, err, ai.ErrEmbeddingDisabled)
	assert.Nil(t, embedder)
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithAPIKey("sk-test"), ai.WithEmbeddingModel(""))
	_, err := NewEmbedder(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EmbeddingModel is required")
}

func TestNewEmbedder_WithKey(t *testing.T) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost("http://localhost:11434"),
		ai.WithAPIKey("none"),
	)
	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.NotNil(t, embedder)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestNewProvider(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, err := NewProvider(ai.DefaultConfig())
		assert.ErrorIs(t, err, ai.ErrEmbeddingDisabled)
	})

	t.Run("enabled", func(t *testing.T) {
		provider, err := NewProvider(ai.NewConfig(ai.WithAPIKey("none")))
		require.NoError(t, err)
		assert.NotNil(t, provider.Embedder())
		assert.NoError(t, provider.Close())
	})
}
