package voyageai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/PelvinDreams/generellem/components/embedder"
)

const (
	// BaseURL is VoyageAI HTTP API base URL.
	BaseURL = "https://api.voyageai.com"
	// EmbedAPIVersion is the latest stable embedding API version.
	EmbedAPIVersion = "v1"
)

// Client is Voyage HTTP API client.
type Client struct {
	opts Options
}

// Options are client options
type Options struct {
	APIKey     string
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

// Option is functional option.
type Option func(*Options)

// NewClient creates a new HTTP API client and returns it.
// By default it reads the Voyage API key from VOYAGE_API_KEY
// env var and uses the default Go http.Client for making API requests.
// You can override the default options via the client methods.
func NewClient(opts ...Option) *Client {
	options := Options{
		APIKey:     os.Getenv("VOYAGE_API_KEY"),
		BaseURL:    BaseURL,
		Version:    EmbedAPIVersion,
		HTTPClient: http.DefaultClient,
	}
	for _, apply := range opts {
		apply(&options)
	}
	return &Client{
		opts: options,
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *Options) {
		o.APIKey = apiKey
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *Options) {
		o.BaseURL = baseURL
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(o *Options) {
		o.Version = version
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = httpClient
	}
}

// InputType is an embedding input type.
type InputType string

const (
	NoneInput  InputType = "None"
	QueryInput InputType = "query"
	DocInput   InputType = "document"
)

// String implements stringer.
func (i InputType) String() string {
	return string(i)
}

// EncodingFormat for embedding API requests.
type EncodingFormat string

const (
	EncodingNone EncodingFormat = "None"
	// EncodingBase64 makes Voyage API return embeddings
	// encoded as base64 string
	EncodingBase64 EncodingFormat = "base64"
)

// String implements stringer.
func (f EncodingFormat) String() string {
	return string(f)
}

// wireRequest is the JSON body sent to the embeddings endpoint.
type wireRequest struct {
	Input          []string       `json:"input"`
	Model          string         `json:"model"`
	InputType      InputType      `json:"input_type,omitempty"`
	EncodingFormat EncodingFormat `json:"encoding_format,omitempty"`
	Truncation     bool           `json:"truncation,omitempty"`
}

// wireData is a generic struct used for deserializing vector embeddings.
type wireData[T any] struct {
	Object    string `json:"object"`
	Index     int    `json:"index"`
	Embedding T      `json:"embedding"`
}

// wireResponse is a generic struct used for deserializing API response.
type wireResponse[T any] struct {
	Object string        `json:"object"`
	Data   []wireData[T] `json:"data"`
	Model  string        `json:"model"`
	Usage  Usage         `json:"usage"`
}

type Usage struct {
	TotalTokens int `json:"total_tokens"`
}

// createEmbeddings posts the request and decodes the vectors, honoring the
// configured encoding format.
func (c *Client) createEmbeddings(ctx context.Context, wreq *wireRequest) ([]embedder.Embedding, Usage, error) {
	u, err := url.Parse(c.opts.BaseURL + "/" + c.opts.Version + "/embeddings")
	if err != nil {
		return nil, Usage{}, err
	}

	body := new(bytes.Buffer)
	enc := json.NewEncoder(body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(wreq); err != nil {
		return nil, Usage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, Usage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.opts.APIKey))
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, Usage{}, &embedder.ProviderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, Usage{}, statusError(resp.StatusCode, string(msg))
	}

	switch wreq.EncodingFormat {
	case EncodingBase64:
		return decodeResponse[embedder.Base64](resp.Body, func(v embedder.Base64) (embedder.Embedding, error) {
			return v.Decode()
		})
	case EncodingNone, "":
		return decodeResponse[[]float64](resp.Body, func(v []float64) (embedder.Embedding, error) {
			return embedder.Embedding(v), nil
		})
	}
	return nil, Usage{}, errors.New("unsupported encoding format")
}

// decodeResponse decodes the raw API response and converts every data entry
// into an embedding vector, preserving result order.
func decodeResponse[T any](r io.Reader, conv func(T) (embedder.Embedding, error)) ([]embedder.Embedding, Usage, error) {
	data := new(wireResponse[T])
	if err := json.NewDecoder(r).Decode(data); err != nil {
		return nil, Usage{}, err
	}
	ret := make([]embedder.Embedding, 0, len(data.Data))
	for _, d := range data.Data {
		vec, err := conv(d.Embedding)
		if err != nil {
			return nil, Usage{}, err
		}
		ret = append(ret, vec)
	}
	return ret, data.Usage, nil
}

// statusError maps a non-2xx status onto the pipeline failure set.
func statusError(status int, msg string) error {
	err := fmt.Errorf("voyageai: status %d: %s", status, msg)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &embedder.AuthError{Status: status, Err: err}
	}
	return &embedder.ProviderError{Status: status, Err: err}
}
