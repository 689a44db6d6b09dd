package voyageai

import (
	"context"

	"github.com/PelvinDreams/generellem/components"
	"github.com/PelvinDreams/generellem/components/embedder"
)

// Provider adapts the VoyageAI embeddings API to the pipeline's Provider
// contract.
type Provider struct {
	*Client

	inputType InputType
	encoding  EncodingFormat
}

var _ embedder.Provider = (*Provider)(nil)

// ProviderOption tweaks the request defaults of a Provider.
type ProviderOption func(*Provider)

// WithInputType tags requests as query or document input.
func WithInputType(t InputType) ProviderOption {
	return func(p *Provider) {
		p.inputType = t
	}
}

// WithEncodingFormat selects the embedding wire encoding.
func WithEncodingFormat(f EncodingFormat) ProviderOption {
	return func(p *Provider) {
		p.encoding = f
	}
}

func New(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{
		Client: client,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) SetClient(clt *Client) {
	p.Client = clt
}

func (p *Provider) Name() embedder.ProviderName {
	return embedder.ProviderVoyageAI
}

func (p *Provider) CreateEmbeddings(ctx context.Context, req *embedder.EmbeddingRequest, usage *components.Usage) (*embedder.EmbeddingResponse, error) {
	wreq := wireRequest{
		Input:          req.Input,
		Model:          req.Model,
		InputType:      p.inputType,
		EncodingFormat: p.encoding,
	}
	data, u, err := p.createEmbeddings(ctx, &wreq)
	if err != nil {
		return nil, err
	}
	if usage != nil {
		usage.InputTokens += int64(u.TotalTokens)
	}
	return &embedder.EmbeddingResponse{Data: data}, nil
}
