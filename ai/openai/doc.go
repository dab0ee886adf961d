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


// Package openai provides the embedding service implementation for
// OpenAI-compatible APIs.
//
// Requests go through langchaingo's OpenAI client with the configured API key
// as bearer token, so any compatible endpoint (SiliconFlow, OpenAI, Ollama,
// vLLM) can be used.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithEmbeddingHost("https://api.siliconflow.cn/v1/embeddings"), // trimmed to /v1
//	    ai.WithEmbeddingModel("BAAI/bge-m3"),
//	    ai.WithAPIKey(os.Getenv("LORE_EMBEDDING_API_KEY")),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if errors.Is(err, ai.ErrEmbeddingDisabled) {
//	    // run lexical-only
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "sample text")
package openai
