package core

import (
	"context"
	"errors"
	"io"

	"github.com/markdave123-py/inventra/internal/models"
)

// DbClient defines all persistence operations the services need.
// Every table argument must already be a validated table identity.
type DbClient interface {
	ListTables(ctx context.Context) ([]string, error)
	CountTables(ctx context.Context) (int, error)
	TableExists(ctx context.Context, table string) (bool, error)

	// ReplaceTable drops and recreates table and inserts rows, all in one transaction.
	ReplaceTable(ctx context.Context, table, sourceBlob string, rows []models.RecordRow) (*models.InsertResult, error)
	EnsureTable(ctx context.Context, table, sourceBlob string) error
	// InsertRecords skips rows whose id or name already exists.
	InsertRecords(ctx context.Context, table string, rows []models.RecordRow) (*models.InsertResult, error)

	PendingEmbeddings(ctx context.Context, table string) ([]models.PendingText, error)
	SetEmbedding(ctx context.Context, table, inventoryID string, vec []float32) (bool, error)
	PendingTranslations(ctx context.Context, table string, onlyMissing bool) ([]models.PendingText, error)
	SetTranslation(ctx context.Context, table, inventoryID, text string, onlyMissing bool) (bool, error)

	SearchNames(ctx context.Context, table string, queryVec []float32, limit int) ([]string, error)

	Close() error
}

// ErrObjectNotFound is wrapped by ObjectClient reads of a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with GCS, MinIO, etc. easily.
type ObjectClient interface {
	// EnsureContainer creates the container when it does not exist yet.
	EnsureContainer(ctx context.Context, container string) error
	// UploadFile writes data under key, replacing any previous object.
	UploadFile(ctx context.Context, container, key string, data []byte, contentType string) (url string, err error)
	GetObjectReader(ctx context.Context, container, key string) (io.ReadCloser, error)
}
