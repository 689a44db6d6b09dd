package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/PelvinDreams/generellem/components/embedder"
)

// BaseURL is the HuggingFace inference API feature-extraction pipeline.
const BaseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"

type requestOptions struct {
	WaitForModel *bool `json:"wait_for_model,omitempty"`
}

// wireRequest is the JSON body sent to the feature-extraction endpoint; the
// model rides in the URL path, not the body.
type wireRequest struct {
	Inputs  []string       `json:"inputs,omitempty"`
	Options requestOptions `json:"options,omitempty"`
	Model   string         `json:"-"`
}

// Client is a HuggingFace inference HTTP API client.
type Client struct {
	opts Options
}

// Options are client options
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Option is functional option.
type Option func(*Options)

// NewClient creates a new HTTP API client and returns it.
// By default it reads the HuggingFace API key from HUGGING_FACE_API_KEY
// env var and uses the default Go http.Client for making API requests.
// You can override the default options via the client methods.
func NewClient(opts ...Option) *Client {
	options := Options{
		APIKey:     os.Getenv("HUGGING_FACE_API_KEY"),
		BaseURL:    BaseURL,
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

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = httpClient
	}
}

func (c *Client) createEmbeddings(ctx context.Context, wreq *wireRequest) ([][]float64, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(wreq); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+wreq.Model, buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.opts.APIKey))

	resp, err := c.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &embedder.ProviderError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &embedder.ProviderError{Err: err}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &embedder.AuthError{Status: resp.StatusCode, Err: fmt.Errorf("huggingface: %s", bytes.TrimSpace(respBody))}
	}
	apiErr := new(APIError)
	if err := json.Unmarshal(respBody, apiErr); err == nil && apiErr.IsError() {
		return nil, &embedder.ProviderError{Status: resp.StatusCode, Err: apiErr}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &embedder.ProviderError{Status: resp.StatusCode, Err: fmt.Errorf("huggingface: %s", bytes.TrimSpace(respBody))}
	}

	var ret [][]float64
	if err := json.Unmarshal(respBody, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

type APIError struct {
	Errors StringList `json:"error,omitempty"`
}

func (e *APIError) IsError() bool {
	return len(e.Errors) > 0
}

func (e *APIError) Error() string {
	return strings.Join(e.Errors, "\n")
}

// StringList tolerates the API returning either a single string or a list.
type StringList []string

// UnmarshalJSON handles both single string and list of strings
func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	return fmt.Errorf("invalid format for StringList")
}
