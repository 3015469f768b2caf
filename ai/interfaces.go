package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker scores query/passage pairs for relevance.
// Implementations must be thread-safe for concurrent use.
type Reranker interface {
	// Rerank scores each passage against the query and returns relevance
	// scores in [0, 1], one per passage, in the same order as the input.
	// Returns an error if scoring fails.
	Rerank(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Generator produces natural-language text from a prompt pair.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate produces a completion for the given system and user prompts.
	// Returns an error if generation fails.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder, Reranker, and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Reranker returns the passage scoring service.
	// The returned Reranker is safe for concurrent use.
	Reranker() Reranker

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
