package embedder

import "log/slog"

// Options holds the configuration for a pipeline Service.
type Options struct {
	chunker     Chunker
	policy      *ResiliencePolicy
	concurrency int
	logger      *slog.Logger
}

// Option is a function type for configuring the Service.
// It follows the functional options pattern for clean and flexible configuration.
type Option func(*Options)

// WithChunker replaces the default sentence chunker.
func WithChunker(chunker Chunker) Option {
	return func(o *Options) {
		o.chunker = chunker
	}
}

// WithResiliencePolicy replaces the default retry+timeout policy wrapped
// around every remote call.
func WithResiliencePolicy(policy *ResiliencePolicy) Option {
	return func(o *Options) {
		o.policy = policy
	}
}

// WithConcurrency embeds up to n chunks of one document in parallel on a
// worker pool. The returned sequence keeps the original chunk order and a
// hard failure in any chunk cancels its in-flight and not-yet-started
// siblings. Values below 2 keep the default strictly sequential loop.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.concurrency = n
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

func (o Options) Chunker() Chunker {
	return o.chunker
}

func (o Options) Policy() *ResiliencePolicy {
	return o.policy
}
