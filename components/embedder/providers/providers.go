package providers

import (
	"github.com/PelvinDreams/generellem/components/embedder/providers/cohere"
	"github.com/PelvinDreams/generellem/components/embedder/providers/huggingface"
	"github.com/PelvinDreams/generellem/components/embedder/providers/openai"
	"github.com/PelvinDreams/generellem/components/embedder/providers/voyageai"
)

var (
	FromOpenAI      = openai.New
	FromCohere      = cohere.New
	FromVoyageAI    = voyageai.New
	FromHuggingFace = huggingface.New
)
