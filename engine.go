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

package lorekeep

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/lorekeep/ai"
	"github.com/poiesic/lorekeep/ai/openai"
	"github.com/poiesic/lorekeep/config"
	"github.com/poiesic/lorekeep/ingestion"
	"github.com/poiesic/lorekeep/keyword"
	"github.com/poiesic/lorekeep/match"
	"github.com/poiesic/lorekeep/profile"
	"github.com/poiesic/lorekeep/reembed"
	"github.com/poiesic/lorekeep/retrieval"
	"github.com/poiesic/lorekeep/scoring"
	"github.com/poiesic/lorekeep/storage"
	"github.com/poiesic/lorekeep/storage/badger"
	"github.com/poiesic/lorekeep/vector"
)

// Engine wires storage, embeddings, matching and retrieval from one
// configuration.
type Engine struct {
	config     *config.Config
	repos      *badger.Repositories
	provider   ai.AIProvider
	index      *vector.Index
	extractor  *keyword.Extractor
	describer  *profile.Describer
	pipeline   *ingestion.Pipeline
	retriever  *retrieval.Retriever
	reembedder *reembed.Reembedder
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithProvider uses provider for embeddings instead of the configured
// OpenAI-compatible service. The engine closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// NewEngine opens the library described by cfg. A nil cfg uses
// config.Default. Semantic matching is enabled when a provider is given or
// the embedding section has an API key; the stored vector snapshot is then
// restored into the index.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	repos, err := badger.NewRepositories(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		return nil, err
	}

	e := &Engine{config: cfg, repos: repos, logger: logger.With("component", "engine")}
	if err := e.init(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(options *engineOptions) error {
	cfg := e.config
	logger := options.logger

	e.provider = options.provider
	if e.provider == nil {
		provider, err := openai.NewProvider(cfg.AI())
		switch {
		case errors.Is(err, ai.ErrEmbeddingDisabled):
			e.logger.Info("embeddings disabled, semantic matching is off")
		case err != nil:
			return err
		default:
			e.provider = provider
		}
	}

	if e.provider != nil {
		index, err := vector.NewIndex(e.provider.Embedder(), vector.WithConfig(cfg.VectorConfig()), vector.WithLogger(logger))
		if err != nil {
			return err
		}
		e.index = index
	}

	extractor, err := keyword.NewExtractor(cfg.KeywordConfig(), keyword.WithLogger(logger))
	if err != nil {
		return err
	}
	e.extractor = extractor

	scorer, err := scoring.NewScorer(cfg.ScoringConfig(), scoring.WithLogger(logger))
	if err != nil {
		return err
	}
	strategy, err := match.NewMatchStrategy(cfg.MatchConfig(), extractor, scorer, match.WithLogger(logger))
	if err != nil {
		return err
	}

	e.describer = profile.NewDescriber(
		profile.WithNegativeKeywords(cfg.Profile.NegativeKeywords...),
		profile.WithLogger(logger),
	)

	pipelineOpts := []ingestion.Option{ingestion.WithLogger(logger)}
	retrieverOpts := []retrieval.Option{retrieval.WithLogger(logger), retrieval.WithConfig(cfg.RetrievalConfig())}
	if e.index != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithIndex(e.index))
		retrieverOpts = append(retrieverOpts, retrieval.WithIndex(e.index))
	}

	e.pipeline, err = ingestion.NewPipeline(e.repos.Entries, e.repos.Flags, pipelineOpts...)
	if err != nil {
		return err
	}
	e.retriever, err = retrieval.NewRetriever(retrieval.NewStoreSource(e.repos.Entries, e.repos.Flags), strategy, scorer, retrieverOpts...)
	if err != nil {
		return err
	}

	if e.index != nil {
		e.reembedder, err = e.NewReembedder()
		if err != nil {
			return err
		}
		if _, err := e.reembedder.Restore(context.Background()); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for queued vector work, saves the vector snapshot and closes
// storage. Errors are logged and the first one returned.
func (e *Engine) Close() error {
	var firstErr error
	record := func(what string, err error) {
		if err == nil {
			return
		}
		e.logger.Error("error closing "+what, "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if e.pipeline != nil {
		e.pipeline.Wait()
		e.pipeline.Release()
	}
	if e.reembedder != nil {
		record("vector snapshot", e.reembedder.Save(context.Background()))
	}
	if e.index != nil {
		e.index.Release()
	}
	if e.provider != nil {
		record("AI provider", e.provider.Close())
	}
	record("storage", e.repos.Close())
	return firstErr
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.config
}

// Entries returns the entry repository.
func (e *Engine) Entries() storage.EntryRepository {
	return e.repos.Entries
}

// Flags returns the extended flag store.
func (e *Engine) Flags() storage.FlagStore {
	return e.repos.Flags
}

// Pipeline returns the ingestion pipeline.
func (e *Engine) Pipeline() *ingestion.Pipeline {
	return e.pipeline
}

// Retriever returns the retriever.
func (e *Engine) Retriever() *retrieval.Retriever {
	return e.retriever
}

// Extractor returns the keyword extractor.
func (e *Engine) Extractor() *keyword.Extractor {
	return e.extractor
}

// Index returns the vector index, nil when embeddings are disabled.
func (e *Engine) Index() *vector.Index {
	return e.index
}

// Retrieve ranks entries for req.
func (e *Engine) Retrieve(ctx context.Context, req retrieval.Request) (*retrieval.Result, error) {
	return e.retriever.Retrieve(ctx, req)
}

// Actor describes p for use in a retrieval request.
func (e *Engine) Actor(id string, p *profile.Profile) *retrieval.Actor {
	return &retrieval.Actor{ID: id, Descriptors: e.describer.Descriptors(p)}
}

// NewReembedder creates a Reembedder over the engine's index and storage.
// Returns ai.ErrEmbeddingDisabled when the engine has no index.
func (e *Engine) NewReembedder(opts ...reembed.Option) (*reembed.Reembedder, error) {
	if e.index == nil {
		return nil, ai.ErrEmbeddingDisabled
	}
	opts = append([]reembed.Option{reembed.WithLogger(e.logger)}, opts...)
	return reembed.NewReembedder(e.repos.Entries, e.repos.Snapshots, e.index, opts...)
}

// Resync brings the vector index in line with the library and saves the
// snapshot.
func (e *Engine) Resync(ctx context.Context) (vector.ResyncStats, error) {
	if e.reembedder == nil {
		return vector.ResyncStats{}, ai.ErrEmbeddingDisabled
	}
	e.pipeline.Wait()
	return e.reembedder.Run(ctx)
}

// NewScheduler creates a Scheduler that resyncs on the configured schedule.
func (e *Engine) NewScheduler() (*reembed.Scheduler, error) {
	if e.reembedder == nil {
		return nil, ai.ErrEmbeddingDisabled
	}
	return reembed.NewScheduler(e.config.Schedule.Resync, func(ctx context.Context) error {
		_, err := e.Resync(ctx)
		return err
	}, e.logger)
}
