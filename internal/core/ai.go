package core

import (
	"context"

	"github.com/markdave123-py/inventra/internal/models"
)

type EmbeddingProvider interface {
	// EmbedTexts returns one vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatOptions tunes a single chat completion. Zero values leave the provider default.
type ChatOptions struct {
	Temperature *float32
	MaxTokens   int
}

type ChatProvider interface {
	// Chat sends the whole history and returns the assistant's next message.
	Chat(ctx context.Context, history []models.Message, opts ChatOptions) (models.Message, error)
}

type Translator interface {
	// Translate returns translation candidates for text in the target locale, best first.
	Translate(ctx context.Context, text, locale string) ([]string, error)
}

// Enricher runs the derived-field passes (embedding, translation) for one table.
type Enricher interface {
	Run(ctx context.Context, table string) (models.EnrichmentReport, error)
}
