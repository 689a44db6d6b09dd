package embedder

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// DocType identifies the kind of document a text was extracted from. It is
// opaque context for the pipeline: extraction happens upstream and the
// embedding flow only carries the value through for logging.
type DocType string

const (
	DocTypeUnknown  DocType = ""
	DocTypeText     DocType = "text"
	DocTypeMarkdown DocType = "markdown"
	DocTypeHTML     DocType = "html"
	DocTypePDF      DocType = "pdf"
)

// TextChunk represents one contiguous, bounded-length slice of a document's
// text. Chunks are created by a Chunker and mutated at most once afterwards,
// when the pipeline attaches the embedding vector.
//
// An absent content is represented by the empty string; such chunks are
// skipped during embedding and their Embedding stays nil.
type TextChunk struct {
	// ID is a deterministic UUID derived from the document reference, the
	// sentence span and the content, so re-ingesting the same document
	// yields the same IDs.
	ID string `json:"id"`
	// Content contains the actual text of the chunk
	Content string `json:"content"`
	// TokenSize represents the number of tokens in this chunk
	TokenSize int `json:"token_size"`
	// StartSentence is the index of the first sentence in this chunk
	StartSentence int `json:"start_sentence"`
	// EndSentence is the index of the last sentence in this chunk (exclusive)
	EndSentence int `json:"end_sentence"`
	// DocumentReference identifies the source document (path, URL, ...).
	// It is shared by every chunk of one document.
	DocumentReference string `json:"document_reference"`
	// Embedding is the chunk's semantic vector. It is nil until the
	// pipeline assigns it and is written exactly once.
	Embedding Embedding `json:"embedding,omitempty"`
}

func newTextChunk(content string, tokenSize, startSentence, endSentence int, documentReference string) *TextChunk {
	c := &TextChunk{
		Content:           content,
		TokenSize:         tokenSize,
		StartSentence:     startSentence,
		EndSentence:       endSentence,
		DocumentReference: documentReference,
	}
	c.ID = c.uuid()
	return c
}

func (c *TextChunk) uuid() string {
	sb := new(bytes.Buffer)
	sb.WriteString(c.DocumentReference)
	fmt.Fprintf(sb, "#%d-%d", c.StartSentence, c.EndSentence)
	sb.WriteByte('\n')
	sb.WriteString(c.Content)
	return uuid.NewSHA1(uuid.NameSpaceOID, sb.Bytes()).String()
}

// Embedding is an information dense representation of the semantic meaning of
// a piece of text: a vector of floating point numbers such that the distance
// between two embeddings in the vector space is correlated with semantic
// similarity between the two inputs.
type Embedding []float64

// DotProduct calculates the dot product of the embedding vector with another
// embedding vector. Both vectors must have the same length; otherwise an
// error is returned.
func (e Embedding) DotProduct(other Embedding) (float64, error) {
	if len(e) != len(other) {
		return 0, errors.New("vector length mismatch")
	}
	var dotProduct float64
	for i := range e {
		dotProduct += e[i] * other[i]
	}
	return dotProduct, nil
}

// CosineSimilarity calculates the cosine of the angle between the two
// vectors. Returns an error on length mismatch or zero-magnitude input.
func (e Embedding) CosineSimilarity(other Embedding) (float64, error) {
	dot, err := e.DotProduct(other)
	if err != nil {
		return 0, err
	}
	var ma, mb float64
	for i := range e {
		ma += e[i] * e[i]
		mb += other[i] * other[i]
	}
	if ma == 0 || mb == 0 {
		return 0, errors.New("zero magnitude vector")
	}
	return dot / (math.Sqrt(ma) * math.Sqrt(mb)), nil
}

// Base64 is base64 encoded embedding string.
type Base64 string

// Decode decodes base64 encoded string into a slice of floats.
func (s Base64) Decode() (Embedding, error) {
	decoded, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, err
	}

	if len(decoded)%8 != 0 {
		return nil, fmt.Errorf("invalid base64 encoded string length")
	}

	floats := make(Embedding, len(decoded)/8)
	for i := range floats {
		bits := binary.LittleEndian.Uint64(decoded[i*8 : (i+1)*8])
		floats[i] = math.Float64frombits(bits)
	}
	return floats, nil
}
