package openai

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/PelvinDreams/generellem/components"
	"github.com/PelvinDreams/generellem/components/embedder"
)

// Provider adapts the OpenAI embeddings API (and every OpenAI-compatible
// server) to the pipeline's Provider contract.
type Provider struct {
	*openai.Client
}

var _ embedder.Provider = (*Provider)(nil)

func New(client *openai.Client) *Provider {
	return &Provider{Client: client}
}

func (p *Provider) SetClient(clt *openai.Client) {
	p.Client = clt
}

func (p *Provider) Name() embedder.ProviderName {
	return embedder.ProviderOpenAI
}

func (p *Provider) CreateEmbeddings(ctx context.Context, req *embedder.EmbeddingRequest, usage *components.Usage) (*embedder.EmbeddingResponse, error) {
	oreq := openai.EmbeddingRequest{
		Input: req.Input,
		Model: openai.EmbeddingModel(req.Model),
	}
	resp, err := p.Client.CreateEmbeddings(ctx, oreq)
	if err != nil {
		return nil, classify(err)
	}
	if usage != nil {
		usage.InputTokens += int64(resp.Usage.PromptTokens)
	}
	data := make([]embedder.Embedding, 0, len(resp.Data))
	for _, v := range resp.Data {
		vec := make(embedder.Embedding, 0, len(v.Embedding))
		for _, f := range v.Embedding {
			vec = append(vec, float64(f))
		}
		data = append(data, vec)
	}
	return &embedder.EmbeddingResponse{Data: data}, nil
}

// classify maps transport errors onto the pipeline failure set: credential
// rejections become AuthError, everything else stays a transient
// ProviderError.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &embedder.AuthError{Status: apiErr.HTTPStatusCode, Err: err}
		}
		return &embedder.ProviderError{Status: apiErr.HTTPStatusCode, Err: err}
	}
	return &embedder.ProviderError{Err: err}
}
