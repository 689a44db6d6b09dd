package huggingface

import (
	"context"

	"github.com/PelvinDreams/generellem/components"
	"github.com/PelvinDreams/generellem/components/embedder"
)

// DefaultModel is used when a request carries no model identifier.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Provider adapts the HuggingFace feature-extraction pipeline to the
// pipeline's Provider contract.
type Provider struct {
	*Client
}

var _ embedder.Provider = (*Provider)(nil)

func New(client *Client) *Provider {
	return &Provider{Client: client}
}

func (p *Provider) SetClient(clt *Client) {
	p.Client = clt
}

func (p *Provider) Name() embedder.ProviderName {
	return embedder.ProviderHuggingFace
}

func (p *Provider) CreateEmbeddings(ctx context.Context, req *embedder.EmbeddingRequest, usage *components.Usage) (*embedder.EmbeddingResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	waitForModel := true
	wreq := wireRequest{
		Inputs: req.Input,
		Options: requestOptions{
			WaitForModel: &waitForModel,
		},
		Model: model,
	}
	resp, err := p.createEmbeddings(ctx, &wreq)
	if err != nil {
		return nil, err
	}
	data := make([]embedder.Embedding, 0, len(resp))
	for _, v := range resp {
		data = append(data, embedder.Embedding(v))
	}
	return &embedder.EmbeddingResponse{Data: data}, nil
}
