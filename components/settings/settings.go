// Package settings provides the configuration lookup capability the
// embedding pipeline is constructed with. A Source resolves well-known keys
// to string values at call time; implementations back the lookup by a static
// map, process environment, or a validated YAML file.
package settings

import (
	"os"
	"strings"
)

// Well-known setting keys.
const (
	// KeyEmbeddingModel names the embedding model/deployment identifier
	// the pipeline sends with every remote call.
	KeyEmbeddingModel = "embedding:model"
	// KeyEmbeddingProvider names the remote service adapter to use.
	KeyEmbeddingProvider = "embedding:provider"
)

// Source resolves a configuration key to its current value. A missing key
// resolves to the empty string; consumers decide whether that is an error.
// Values are read at call time, so a Source may reflect live changes.
type Source interface {
	Value(key string) string
}

// Static is an in-memory Source, mainly for tests and embedded defaults.
type Static map[string]string

var _ Source = (Static)(nil)

func (s Static) Value(key string) string {
	return s[key]
}

// Env resolves keys from the process environment. A key like
// "embedding:model" becomes "<PREFIX>_EMBEDDING_MODEL".
type Env struct {
	// Prefix is prepended to every mangled key, e.g. "GENERELLEM".
	Prefix string
}

var _ Source = (*Env)(nil)

func (e *Env) Value(key string) string {
	name := strings.ToUpper(strings.Map(func(r rune) rune {
		switch r {
		case ':', '.', '-':
			return '_'
		}
		return r
	}, key))
	if e.Prefix != "" {
		name = e.Prefix + "_" + name
	}
	return os.Getenv(name)
}

// Chain tries each source in order and returns the first non-blank value.
type Chain []Source

var _ Source = (Chain)(nil)

func (c Chain) Value(key string) string {
	for _, src := range c {
		if v := src.Value(key); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
