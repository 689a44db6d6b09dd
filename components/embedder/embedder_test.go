package embedder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/atomic"

	"github.com/PelvinDreams/generellem/components"
	"github.com/PelvinDreams/generellem/components/settings"
)

// fakeProvider is a hand-written Provider double; fn decides the outcome of
// every call, calls counts them.
type fakeProvider struct {
	fn    func(req *EmbeddingRequest) (*EmbeddingResponse, error)
	calls atomic.Int64
}

var _ Provider = (*fakeProvider)(nil)

func (f *fakeProvider) Name() ProviderName { return "Fake" }

func (f *fakeProvider) CreateEmbeddings(ctx context.Context, req *EmbeddingRequest, usage *components.Usage) (*EmbeddingResponse, error) {
	f.calls.Inc()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if usage != nil {
		usage.InputTokens += int64(len(req.Input))
	}
	return f.fn(req)
}

// fakeChunker returns a fixed chunk sequence regardless of input.
type fakeChunker struct {
	chunks []*TextChunk
}

func (f *fakeChunker) BreakIntoChunks(fullText, documentReference string) []*TextChunk {
	return f.chunks
}

func constantVector(vec Embedding) func(req *EmbeddingRequest) (*EmbeddingResponse, error) {
	return func(req *EmbeddingRequest) (*EmbeddingResponse, error) {
		return &EmbeddingResponse{Data: []Embedding{vec}}, nil
	}
}

func testSettings() settings.Source {
	return settings.Static{settings.KeyEmbeddingModel: "text-embedding-3-small"}
}

func fastPolicy(budget int) *ResiliencePolicy {
	p := NewResiliencePolicy()
	p.AttemptTimeout = 100 * time.Millisecond
	p.RetryBudget = budget
	p.BaseDelay = time.Millisecond
	return p
}

func TestServiceEmbedEndToEnd(t *testing.T) {
	text := "The first paragraph talks about storage.\n\nThe second paragraph covers indexing.\n\nThe third paragraph explains retrieval."
	provider := &fakeProvider{fn: constantVector(Embedding{0.1, 0.2})}
	svc := New(testSettings(), provider,
		WithChunker(NewTextChunker(WithMaxChunkTokens(6))),
		WithResiliencePolicy(fastPolicy(3)),
	)

	chunks, err := svc.Embed(context.Background(), text, DocTypeText, "doc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("invalid chunk count, want 3, got %d", len(chunks))
	}
	wantContents := []string{
		"The first paragraph talks about storage.",
		"The second paragraph covers indexing.",
		"The third paragraph explains retrieval.",
	}
	for i, chunk := range chunks {
		if chunk.Content != wantContents[i] {
			t.Errorf("chunk:%d out of order, want %q, got %q", i, wantContents[i], chunk.Content)
		}
		if chunk.DocumentReference != "doc1" {
			t.Errorf("chunk:%d invalid document reference %q", i, chunk.DocumentReference)
		}
		if len(chunk.Embedding) != 2 || chunk.Embedding[0] != 0.1 || chunk.Embedding[1] != 0.2 {
			t.Errorf("chunk:%d invalid embedding %v", i, chunk.Embedding)
		}
	}
	if got := provider.calls.Load(); got != 3 {
		t.Errorf("want one remote call per chunk, got %d", got)
	}
	if usage := svc.Usage(); usage.InputTokens != 3 {
		t.Errorf("invalid accumulated usage: %+v", usage)
	}
}

func TestServiceSkipsBlankChunks(t *testing.T) {
	chunks := []*TextChunk{
		newTextChunk("has content", 2, 0, 1, "doc1"),
		newTextChunk("", 0, 1, 1, "doc1"),
		newTextChunk("more content", 2, 1, 2, "doc1"),
	}
	provider := &fakeProvider{fn: constantVector(Embedding{1})}
	svc := New(testSettings(), provider,
		WithChunker(&fakeChunker{chunks: chunks}),
		WithResiliencePolicy(fastPolicy(0)),
	)

	got, err := svc.Embed(context.Background(), "ignored", DocTypeText, "doc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("sequence length changed, want 3, got %d", len(got))
	}
	if provider.calls.Load() != 2 {
		t.Errorf("blank chunk must not reach the provider, got %d calls", provider.calls.Load())
	}
	if got[1].Embedding != nil {
		t.Errorf("blank chunk embedding must stay unset, got %v", got[1].Embedding)
	}
	if got[0].Embedding == nil || got[2].Embedding == nil {
		t.Error("content-bearing chunks must be embedded")
	}
}

func TestServiceConfigFailFast(t *testing.T) {
	provider := &fakeProvider{fn: constantVector(Embedding{1})}
	svc := New(settings.Static{}, provider,
		WithChunker(NewTextChunker()),
		WithResiliencePolicy(fastPolicy(3)),
	)

	_, err := svc.Embed(context.Background(), "Some content to embed.", DocTypeText, "doc1")

	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cerr.Setting != settings.KeyEmbeddingModel {
		t.Errorf("invalid setting name in error: %q", cerr.Setting)
	}
	if provider.calls.Load() != 0 {
		t.Errorf("no remote call may be issued on missing configuration, got %d", provider.calls.Load())
	}
}

func TestServiceModelReadPerCall(t *testing.T) {
	src := settings.Static{}
	provider := &fakeProvider{fn: func(req *EmbeddingRequest) (*EmbeddingResponse, error) {
		if req.Model != "late-model" {
			return nil, fmt.Errorf("unexpected model %q", req.Model)
		}
		if len(req.Input) != 1 {
			return nil, fmt.Errorf("want single input, got %d", len(req.Input))
		}
		return &EmbeddingResponse{Data: []Embedding{{1}}}, nil
	}}
	svc := New(src, provider, WithResiliencePolicy(fastPolicy(0)))

	if _, err := svc.Embed(context.Background(), "Something.", DocTypeText, "doc1"); err == nil {
		t.Fatal("expected configuration failure before the setting appears")
	}

	// The identifier is read per call, not cached at construction.
	src[settings.KeyEmbeddingModel] = "late-model"
	if _, err := svc.Embed(context.Background(), "Something.", DocTypeText, "doc1"); err != nil {
		t.Fatalf("unexpected error after configuration appeared: %v", err)
	}
}

func TestServiceAbortsOnAuthFailure(t *testing.T) {
	provider := &fakeProvider{fn: func(req *EmbeddingRequest) (*EmbeddingResponse, error) {
		return nil, &AuthError{Status: 401, Err: errors.New("invalid key")}
	}}
	svc := New(testSettings(), provider,
		WithChunker(NewTextChunker(WithMaxChunkTokens(4))),
		WithResiliencePolicy(fastPolicy(1)),
	)

	chunks, err := svc.Embed(context.Background(), "Sentence one here. Sentence two here. Sentence three here.", DocTypeText, "doc1")

	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthError to surface, got %v", err)
	}
	if chunks != nil {
		t.Error("no chunk sequence on aborted call")
	}
	// Retried once for the first chunk, then the document is abandoned.
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("want 2 attempts for the first chunk only, got %d", got)
	}
}

func TestServiceIngestionRequiredPropagatesImmediately(t *testing.T) {
	provider := &fakeProvider{fn: func(req *EmbeddingRequest) (*EmbeddingResponse, error) {
		return nil, fmt.Errorf("document set changed: %w", ErrIngestionRequired)
	}}
	svc := New(testSettings(), provider,
		WithChunker(NewTextChunker()),
		WithResiliencePolicy(fastPolicy(5)),
	)

	_, err := svc.Embed(context.Background(), "Only one sentence.", DocTypeText, "doc1")

	if !errors.Is(err, ErrIngestionRequired) {
		t.Fatalf("expected ingestion-required signal, got %v", err)
	}
	if got := provider.calls.Load(); got != 1 {
		t.Errorf("ingestion-required must bypass retry, got %d attempts", got)
	}
}

func TestServiceEmptyProviderResponseRetriedAndSurfaced(t *testing.T) {
	provider := &fakeProvider{fn: func(req *EmbeddingRequest) (*EmbeddingResponse, error) {
		return &EmbeddingResponse{}, nil
	}}
	svc := New(testSettings(), provider,
		WithChunker(NewTextChunker()),
		WithResiliencePolicy(fastPolicy(1)),
	)

	_, err := svc.Embed(context.Background(), "Only one sentence.", DocTypeText, "doc1")

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider error on empty response, got %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("empty responses follow the retry budget, got %d attempts", got)
	}
}

func TestServicePooledEmbedPreservesOrder(t *testing.T) {
	var sb []byte
	for i := 0; i < 12; i++ {
		sb = append(sb, []byte(fmt.Sprintf("Sentence number %d stands alone here. ", i))...)
	}
	provider := &fakeProvider{fn: func(req *EmbeddingRequest) (*EmbeddingResponse, error) {
		// Vector length encodes the input length, so order mixups show up.
		return &EmbeddingResponse{Data: []Embedding{make(Embedding, len(req.Input[0]))}}, nil
	}}
	svc := New(testSettings(), provider,
		WithChunker(NewTextChunker(WithMaxChunkTokens(6))),
		WithResiliencePolicy(fastPolicy(0)),
		WithConcurrency(4),
	)

	chunks, err := svc.Embed(context.Background(), string(sb), DocTypeText, "doc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 12 {
		t.Fatalf("invalid chunk count, want 12, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		want := fmt.Sprintf("Sentence number %d stands alone here.", i)
		if chunk.Content != want {
			t.Errorf("chunk:%d out of order, want %q, got %q", i, want, chunk.Content)
		}
		if len(chunk.Embedding) != len(chunk.Content) {
			t.Errorf("chunk:%d embedding does not match its content", i)
		}
	}
}

func TestServicePooledEmbedCancelsSiblingsOnFailure(t *testing.T) {
	provider := &fakeProvider{fn: func(req *EmbeddingRequest) (*EmbeddingResponse, error) {
		if req.Input[0] == "Sentence number 3 stands alone here." {
			return nil, &AuthError{Status: 403, Err: errors.New("denied")}
		}
		return &EmbeddingResponse{Data: []Embedding{{1}}}, nil
	}}
	var text string
	for i := 0; i < 8; i++ {
		text += fmt.Sprintf("Sentence number %d stands alone here. ", i)
	}
	svc := New(testSettings(), provider,
		WithChunker(NewTextChunker(WithMaxChunkTokens(6))),
		WithResiliencePolicy(fastPolicy(0)),
		WithConcurrency(2),
	)

	chunks, err := svc.Embed(context.Background(), text, DocTypeText, "doc1")

	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected the chunk failure to surface, got %v", err)
	}
	if chunks != nil {
		t.Error("no chunk sequence on aborted call")
	}
}
