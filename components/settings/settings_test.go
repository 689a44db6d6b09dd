package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStaticValue(t *testing.T) {
	src := Static{KeyEmbeddingModel: "text-embedding-3-small"}
	if got := src.Value(KeyEmbeddingModel); got != "text-embedding-3-small" {
		t.Errorf("invalid value %q", got)
	}
	if got := src.Value("missing:key"); got != "" {
		t.Errorf("missing key must resolve to empty string, got %q", got)
	}
}

func TestEnvValue(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		envVar string
	}{
		{name: "with prefix", prefix: "GENERELLEM", key: "embedding:model", envVar: "GENERELLEM_EMBEDDING_MODEL"},
		{name: "without prefix", key: "embedding:model", envVar: "EMBEDDING_MODEL"},
		{name: "dotted key", prefix: "APP", key: "embedding.model", envVar: "APP_EMBEDDING_MODEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, "some-model")
			src := &Env{Prefix: tt.prefix}
			if got := src.Value(tt.key); got != "some-model" {
				t.Errorf("invalid value %q for %s", got, tt.envVar)
			}
		})
	}
}

func TestChainValue(t *testing.T) {
	chain := Chain{
		Static{},
		Static{KeyEmbeddingModel: "  "},
		Static{KeyEmbeddingModel: "from-last"},
	}
	if got := chain.Value(KeyEmbeddingModel); got != "from-last" {
		t.Errorf("chain must skip blank values, got %q", got)
	}
	if got := chain.Value("missing:key"); got != "" {
		t.Errorf("missing key must resolve to empty string, got %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantModel string
		wantErr   bool
	}{
		{
			name:      "valid",
			yaml:      "embedding:\n  provider: OpenAI\n  model: text-embedding-3-small\n",
			wantModel: "text-embedding-3-small",
		},
		{
			name:    "missing model",
			yaml:    "embedding:\n  provider: OpenAI\n",
			wantErr: true,
		},
		{
			name:    "unknown provider",
			yaml:    "embedding:\n  provider: Nope\n  model: m\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "embedding: [",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			f, err := LoadFile(path)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := f.Value(KeyEmbeddingModel); got != tt.wantModel {
				t.Errorf("invalid model %q", got)
			}
		})
	}
}
