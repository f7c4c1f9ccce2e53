package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/core/identity"
	"github.com/markdave123-py/inventra/internal/core/ingestion_engine"
)

// SearchLimit is how many names a similarity query returns.
const SearchLimit = 10

type InventoryService struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	storage  core.ObjectClient
	bucket   string
}

func NewInventoryService(db core.DbClient, embedder core.EmbeddingProvider, storage core.ObjectClient, bucket string) *InventoryService {
	return &InventoryService{db: db, embedder: embedder, storage: storage, bucket: bucket}
}

func (s *InventoryService) ListTables(ctx context.Context) ([]string, error) {
	return s.db.ListTables(ctx)
}

func (s *InventoryService) HasTables(ctx context.Context) (bool, error) {
	n, err := s.db.CountTables(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AskQuestion embeds question and returns the names of the nearest records in table, closest first.
func (s *InventoryService) AskQuestion(ctx context.Context, table, question string) ([]string, error) {
	const op = "ask question"

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.Errorf(apperr.KindInputRejected, op, "question is empty")
	}
	if err := identity.Validate(table); err != nil {
		return nil, err
	}
	ok, err := s.db.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Errorf(apperr.KindInputRejected, op, "table %q does not exist", table)
	}

	vecs, err := s.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, apperr.External(apperr.KindEnrichmentTransient, op, err)
	}
	if len(vecs) != 1 {
		return nil, apperr.External(apperr.KindEnrichmentTransient, op, fmt.Errorf("embedder returned %d vectors for 1 text", len(vecs)))
	}

	return s.db.SearchNames(ctx, table, vecs[0], SearchLimit)
}

// OpenDocument streams an archived upload back by its file name.
func (s *InventoryService) OpenDocument(ctx context.Context, fileName string) (io.ReadCloser, error) {
	const op = "open document"

	key := ingestion_engine.BlobName(fileName)
	if !strings.EqualFold(path.Ext(key), ".pdf") {
		return nil, apperr.Errorf(apperr.KindInputRejected, op, "%q is not a .pdf file", fileName)
	}
	rc, err := s.storage.GetObjectReader(ctx, s.bucket, key)
	if errors.Is(err, core.ErrObjectNotFound) {
		return nil, apperr.New(apperr.KindNotFound, op, err)
	}
	if err != nil {
		return nil, apperr.External(apperr.KindStorage, op, err)
	}
	return rc, nil
}
