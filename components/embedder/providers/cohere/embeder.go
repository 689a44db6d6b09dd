package cohere

import (
	"context"
	"errors"
	"net/http"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereClient "github.com/cohere-ai/cohere-go/v2/client"
	coherecore "github.com/cohere-ai/cohere-go/v2/core"

	"github.com/PelvinDreams/generellem/components"
	"github.com/PelvinDreams/generellem/components/embedder"
)

// Provider adapts the Cohere embed API to the pipeline's Provider contract.
type Provider struct {
	*cohereClient.Client
}

var _ embedder.Provider = (*Provider)(nil)

func New(client *cohereClient.Client) *Provider {
	return &Provider{Client: client}
}

func (p *Provider) SetClient(clt *cohereClient.Client) {
	p.Client = clt
}

func (p *Provider) Name() embedder.ProviderName {
	return embedder.ProviderCohere
}

func (p *Provider) CreateEmbeddings(ctx context.Context, req *embedder.EmbeddingRequest, usage *components.Usage) (*embedder.EmbeddingResponse, error) {
	model := req.Model
	creq := cohere.EmbedRequest{
		Texts: req.Input,
		Model: &model,
	}
	resp, err := p.Client.Embed(ctx, &creq)
	if err != nil {
		return nil, classify(err)
	}
	respV := resp.GetEmbeddingsFloats()
	if usage != nil && respV.Meta != nil && respV.Meta.Tokens != nil {
		if v := respV.Meta.Tokens.InputTokens; v != nil {
			usage.InputTokens += int64(*v)
		}
		if v := respV.Meta.Tokens.OutputTokens; v != nil {
			usage.OutputTokens += int64(*v)
		}
	}
	data := make([]embedder.Embedding, 0, len(respV.Embeddings))
	for _, v := range respV.Embeddings {
		data = append(data, embedder.Embedding(v))
	}
	return &embedder.EmbeddingResponse{Data: data}, nil
}

func classify(err error) error {
	var apiErr *coherecore.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &embedder.AuthError{Status: apiErr.StatusCode, Err: err}
		}
		return &embedder.ProviderError{Status: apiErr.StatusCode, Err: err}
	}
	return &embedder.ProviderError{Err: err}
}
