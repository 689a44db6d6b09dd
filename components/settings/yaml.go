package settings

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// File is the YAML configuration schema.
//
//	embedding:
//	  provider: OpenAI
//	  model: text-embedding-3-small
type File struct {
	Embedding struct {
		// Provider selects the remote service adapter.
		Provider string `yaml:"provider" validate:"omitempty,oneof=OpenAI Cohere VoyageAI HuggingFace"`
		// Model is the embedding model/deployment identifier.
		Model string `yaml:"model" validate:"required"`
	} `yaml:"embedding"`
}

var _ Source = (*File)(nil)

// LoadFile reads, parses and validates a YAML configuration file.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	f := new(File)
	if err := yaml.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("settings: validate %s: %w", path, err)
	}
	return f, nil
}

// Value implements Source over the parsed file.
func (f *File) Value(key string) string {
	switch key {
	case KeyEmbeddingModel:
		return f.Embedding.Model
	case KeyEmbeddingProvider:
		return f.Embedding.Provider
	}
	return ""
}
