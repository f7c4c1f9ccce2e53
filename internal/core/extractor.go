package core

import (
	"context"

	"github.com/markdave123-py/inventra/internal/models"
)

// DocumentRecognizer turns raw document bytes into text blocks and recognized tables.
// Implementations block until recognition has fully completed.
type DocumentRecognizer interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (*models.RecognizedDocument, error)
}
