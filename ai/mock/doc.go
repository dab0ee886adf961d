// Package mock provides test double implementations of AI service interfaces.
//
// The mocks let tests run without a live embedding service and keep
// similarity results deterministic.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	vec, err := embedder.EmbedText(ctx, "the forge burns bright")
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{1, 0, 0}, nil
//	}
//
//	// Call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: returns a unit vector derived from the FNV hash of the text
//   - MockProvider: wraps a MockEmbedder
package mock
