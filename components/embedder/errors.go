package embedder

import (
	"errors"
	"fmt"
)

// ErrIngestionRequired signals that the remote provider no longer recognizes
// the caller's ingested state and the whole document must be re-ingested.
// It is a domain condition rather than a fault: it is never retried and
// propagates to the caller on first occurrence.
var ErrIngestionRequired = errors.New("embedder: ingestion required")

// ConfigError reports a missing or blank configuration setting. It fails the
// affected chunk before any network call is issued and is never retried.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("embedder: configuration setting %q is missing or blank", e.Setting)
}

// ProviderError wraps a transient failure from the remote provider: network
// errors, timeouts, rate limits and server-side faults. It is retried up to
// the policy budget before being surfaced.
type ProviderError struct {
	// Status is the HTTP status of the failed call, 0 when the request
	// never produced a response.
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("embedder: provider request failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("embedder: provider request failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AuthError reports a credential or permission failure from the remote
// provider. Retrying is unlikely to help, but the reference behavior retries
// it like any transient failure until the budget is exhausted; it is then
// always surfaced, never swallowed.
type AuthError struct {
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("embedder: provider authorization failed (status %d): %v", e.Status, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// retryable reports whether a failed attempt may be tried again. The closed
// failure set has exactly one non-retryable member, the ingestion-required
// signal; everything else, timeouts and auth failures included, stays inside
// the retry budget.
func retryable(err error) bool {
	return !errors.Is(err, ErrIngestionRequired)
}
