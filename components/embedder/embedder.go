// Package embedder turns full document text into embedding-populated text
// chunks. A Chunker splits the text on sentence boundaries under a token
// bound, and a Service drives one resilient remote call per chunk through an
// injected Provider, attaching the returned vector in place.
package embedder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/xid"
	"go.uber.org/atomic"

	"github.com/PelvinDreams/generellem/components"
	"github.com/PelvinDreams/generellem/components/settings"
)

// Service is the embedding pipeline. It is constructed with its two
// collaborators passed explicitly, a configuration lookup and a remote
// provider, so both can be substituted with test doubles.
type Service struct {
	settings settings.Source
	provider Provider

	Options

	usageIn  atomic.Int64
	usageOut atomic.Int64
}

// New creates a pipeline Service reading configuration from src and calling
// the remote service behind provider.
func New(src settings.Source, provider Provider, opts ...Option) *Service {
	s := &Service{
		settings: src,
		provider: provider,
	}
	for _, opt := range opts {
		opt(&s.Options)
	}
	if s.chunker == nil {
		s.chunker = NewTextChunker()
	}
	if s.policy == nil {
		s.policy = NewResiliencePolicy()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.policy.Logger = s.logger
	return s
}

// Usage returns the token usage accumulated across all calls of this Service.
func (s *Service) Usage() components.Usage {
	return components.Usage{
		InputTokens:  s.usageIn.Load(),
		OutputTokens: s.usageOut.Load(),
	}
}

// Embed splits fullText into chunks and attaches an embedding vector to every
// chunk that has content. Chunks with blank content are skipped silently and
// keep a nil embedding. The returned sequence has exactly the length and
// order the chunker produced.
//
// Each remote call runs through the service's resilience policy. Once a
// chunk's call fails past (or bypasses) retry, the failure is logged and
// returned, and the remaining chunks of this call are abandoned; earlier
// chunks are not re-attempted across calls. docType only annotates logs here,
// extraction happened upstream.
func (s *Service) Embed(ctx context.Context, fullText string, docType DocType, documentReference string) ([]*TextChunk, error) {
	logger := s.logger.With(
		"call_id", xid.New().String(),
		"document", documentReference,
		"doc_type", string(docType),
	)

	chunks := s.chunker.BreakIntoChunks(fullText, documentReference)
	logger.Debug("document chunked", "chunks", len(chunks))

	if s.concurrency > 1 && len(chunks) > 1 {
		if err := s.embedPooled(ctx, logger, chunks); err != nil {
			return nil, err
		}
		return chunks, nil
	}

	for i, chunk := range chunks {
		if err := s.embedChunk(ctx, chunk); err != nil {
			logger.Error("embedding aborted", "chunk", i, "chunk_id", chunk.ID, "error", err)
			return nil, err
		}
	}
	return chunks, nil
}

// embedChunk runs the single-chunk flow: skip on blank content, fail fast on
// missing model configuration, then one resilience-wrapped remote call whose
// first result vector is assigned to the chunk.
func (s *Service) embedChunk(ctx context.Context, chunk *TextChunk) error {
	if chunk.Content == "" {
		return nil
	}

	// Read at call time, not cached: a fixed identifier appearing in the
	// configuration source takes effect on the next chunk.
	model := s.settings.Value(settings.KeyEmbeddingModel)
	if strings.TrimSpace(model) == "" {
		return &ConfigError{Setting: settings.KeyEmbeddingModel}
	}

	req := &EmbeddingRequest{
		Model: model,
		Input: []string{chunk.Content},
	}

	var embedding Embedding
	err := s.policy.Execute(ctx, func(ctx context.Context) error {
		var usage components.Usage
		resp, err := s.provider.CreateEmbeddings(ctx, req, &usage)
		if err != nil {
			return err
		}
		s.usageIn.Add(usage.InputTokens)
		s.usageOut.Add(usage.OutputTokens)
		if resp == nil || len(resp.Data) == 0 {
			return &ProviderError{Err: errors.New("empty embedding response")}
		}
		embedding = resp.Data[0]
		return nil
	})
	if err != nil {
		return err
	}

	chunk.Embedding = embedding
	return nil
}

// embedPooled runs the per-chunk flow on a bounded worker pool. Chunks are
// mutated in place so completion order never disturbs sequence order; the
// first hard failure cancels the shared context and wins the returned error.
func (s *Service) embedPooled(ctx context.Context, logger *slog.Logger, chunks []*TextChunk) error {
	pool, err := ants.NewPool(s.concurrency)
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(i int, chunk *TextChunk, err error) {
		once.Do(func() {
			firstErr = err
			logger.Error("embedding aborted", "chunk", i, "chunk_id", chunk.ID, "error", err)
			cancel()
		})
	}

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		i, chunk := i, chunk
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := s.embedChunk(ctx, chunk); err != nil {
				fail(i, chunk, err)
			}
		}); err != nil {
			wg.Done()
			fail(i, chunk, err)
			break
		}
	}
	wg.Wait()
	return firstErr
}
