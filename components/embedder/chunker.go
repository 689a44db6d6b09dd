package embedder

import (
	"strings"

	"github.com/clipperhouse/uax29/sentences"
)

// DefaultMaxChunkTokens is the default upper bound for a single chunk, in
// tokens of the configured TokenCounter. 512 is conservative against the
// 8191 token input ceiling of the OpenAI text-embedding models and keeps
// chunks at a retrieval-friendly size.
const DefaultMaxChunkTokens = 512

// Chunker defines the interface for text chunking implementations.
// Different implementations can provide various strategies for splitting text
// while maintaining context and semantic meaning.
type Chunker interface {
	// BreakIntoChunks splits fullText into an ordered sequence of chunks,
	// copying documentReference into each one. It must be deterministic:
	// identical input always yields an identical chunk sequence.
	BreakIntoChunks(fullText, documentReference string) []*TextChunk
}

// TextChunker splits text on Unicode sentence boundaries and packs whole
// sentences into chunks of at most MaxChunkTokens tokens. A single sentence
// that exceeds the bound on its own is hard-split on rune boundaries so the
// bound holds for every produced chunk (with zero overlap).
//
// Chunking is a pure function of its input: no I/O, no failure modes, and an
// empty input yields an empty, non-nil sequence.
type TextChunker struct {
	// MaxChunkTokens is the chunk size bound in tokens
	MaxChunkTokens int
	// Overlap is the number of tokens repeated from the end of a chunk at
	// the start of the next one. The default of 0 keeps concatenated chunk
	// contents a faithful reconstruction of the input; a positive overlap
	// trades duplication for retrieval context, like the upstream splitters.
	Overlap int
	// TokenCounter is used to count tokens in text segments
	TokenCounter TokenCounter
}

var _ Chunker = (*TextChunker)(nil)

// NewTextChunker creates a TextChunker with the given options. Defaults:
// MaxChunkTokens 512, Overlap 0, whitespace-word token counting.
func NewTextChunker(options ...TextChunkerOption) *TextChunker {
	tc := &TextChunker{
		MaxChunkTokens: DefaultMaxChunkTokens,
		TokenCounter:   &DefaultTokenCounter{},
	}
	for _, option := range options {
		option(tc)
	}
	return tc
}

// TextChunkerOption is a function type for configuring TextChunker instances.
// This follows the functional options pattern for clean and flexible configuration.
type TextChunkerOption func(*TextChunker)

func WithMaxChunkTokens(size int) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.MaxChunkTokens = size
	}
}

func WithOverlap(overlap int) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.Overlap = overlap
	}
}

func WithTokenCounter(counter TokenCounter) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.TokenCounter = counter
	}
}

// BreakIntoChunks implements Chunker. The algorithm:
// 1. Segments the text into sentences (UAX #29 boundaries)
// 2. Hard-splits any sentence that alone exceeds the chunk bound
// 3. Packs sentences into chunks until the bound would be exceeded
// 4. Starts the next chunk with overlap sentences when overlap is configured
func (tc *TextChunker) BreakIntoChunks(fullText, documentReference string) []*TextChunk {
	sents := tc.sentences(fullText)

	chunks := make([]*TextChunk, 0, len(sents))
	var (
		cur       []string
		curStart  int
		curTokens int
	)
	flush := func(end int) {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, newTextChunk(strings.Join(cur, " "), curTokens, curStart, end, documentReference))
	}
	for i, sent := range sents {
		sentTokens := tc.TokenCounter.Count(sent)
		if curTokens+sentTokens > tc.MaxChunkTokens && curTokens > 0 {
			flush(i)
			overlapStart := i
			if tc.Overlap > 0 {
				overlapStart = max(curStart, i-tc.estimateOverlapSentences(sents, i, tc.Overlap))
			}
			cur = append([]string(nil), sents[overlapStart:i]...)
			curStart = overlapStart
			curTokens = 0
			for _, s := range cur {
				curTokens += tc.TokenCounter.Count(s)
			}
		}
		if len(cur) == 0 {
			curStart = i
		}
		cur = append(cur, sent)
		curTokens += sentTokens
	}
	flush(len(sents))

	return chunks
}

// sentences segments the text and normalizes every segment: surrounding
// whitespace trimmed, blank segments dropped, oversize sentences hard-split.
func (tc *TextChunker) sentences(text string) []string {
	segs := sentences.SegmentAll([]byte(text))
	ret := make([]string, 0, len(segs))
	for _, seg := range segs {
		s := strings.TrimSpace(string(seg))
		if s == "" {
			continue
		}
		if tc.TokenCounter.Count(s) > tc.MaxChunkTokens {
			ret = append(ret, tc.hardSplit(s)...)
			continue
		}
		ret = append(ret, s)
	}
	return ret
}

// hardSplit halves an oversize sentence on rune boundaries until every piece
// fits the chunk bound.
func (tc *TextChunker) hardSplit(s string) []string {
	if tc.TokenCounter.Count(s) <= tc.MaxChunkTokens {
		return []string{s}
	}
	runes := []rune(s)
	if len(runes) < 2 {
		return []string{s}
	}
	mid := len(runes) / 2
	var ret []string
	for _, half := range []string{string(runes[:mid]), string(runes[mid:])} {
		half = strings.TrimSpace(half)
		if half == "" {
			continue
		}
		ret = append(ret, tc.hardSplit(half)...)
	}
	return ret
}

// estimateOverlapSentences calculates how many sentences from the end of the
// previous chunk should be included in the next chunk to achieve the desired
// token overlap.
func (tc *TextChunker) estimateOverlapSentences(sents []string, endSentence, desiredOverlap int) int {
	overlapTokens := 0
	overlapSentences := 0
	for i := endSentence - 1; i >= 0 && overlapTokens < desiredOverlap; i-- {
		overlapTokens += tc.TokenCounter.Count(sents[i])
		overlapSentences++
	}
	return overlapSentences
}
