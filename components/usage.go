package components

// Usage tracks token consumption reported by remote embedding providers.
// Providers accumulate into the same instance across calls, so totals for a
// whole document can be read after a pipeline run.
type Usage struct {
	InputTokens  int64 `json:"input_tokens,omitempty"`
	OutputTokens int64 `json:"output_tokens,omitempty"`
}

// Add accumulates another usage sample into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
