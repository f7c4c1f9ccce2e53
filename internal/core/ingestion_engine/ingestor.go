package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/inventra/internal/models"
)

type Ingestor interface {
	Ingest(ctx context.Context, fileName string, data []byte) (*models.IngestReport, error)
	IngestAll(ctx context.Context, uploads []Upload) ([]*models.IngestReport, error)
}

var _ Ingestor = (*Pipeline)(nil)
