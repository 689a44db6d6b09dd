package embedder

import (
	"context"

	"github.com/PelvinDreams/generellem/components"
)

// ProviderName identifies a remote embedding service.
type ProviderName = string

const (
	ProviderOpenAI      ProviderName = "OpenAI"
	ProviderCohere      ProviderName = "Cohere"
	ProviderVoyageAI    ProviderName = "VoyageAI"
	ProviderHuggingFace ProviderName = "HuggingFace"
)

// EmbeddingRequest is the wire-agnostic request for one remote embedding
// call: a model/deployment identifier plus the ordered input texts. The
// pipeline always sends a single input per call.
type EmbeddingRequest struct {
	Model string
	Input []string
}

// EmbeddingResponse carries the embedding results in input order.
type EmbeddingResponse struct {
	Data []Embedding
}

// Provider is the remote-client capability of the pipeline: one adapter per
// embedding API. Implementations map their transport failures onto the
// package's failure set (AuthError for credential problems, ProviderError for
// everything transient) so the resilience policy can classify them, and
// accumulate reported token usage into usage when it is non-nil.
type Provider interface {
	Name() ProviderName
	CreateEmbeddings(ctx context.Context, req *EmbeddingRequest, usage *components.Usage) (*EmbeddingResponse, error)
}
