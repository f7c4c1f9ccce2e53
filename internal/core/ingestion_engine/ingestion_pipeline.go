package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/core/identity"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

const pdfContentType = "application/pdf"

// PDF readers accept the header anywhere in the first KiB.
const pdfHeaderWindow = 1024

// NewPipeline wires the ingestion pipeline. A nil enricher skips the enrichment step.
func NewPipeline(db core.DbClient, obj core.ObjectClient, recognizer core.DocumentRecognizer, enricher core.Enricher, cfg *IngestConfig, log *logger.Logger) *Pipeline {
	return &Pipeline{
		db: db, obj: obj, recognizer: recognizer, enricher: enricher, cfg: cfg,
		log: log.With("service", "IngestionPipeline"),
	}
}

// IngestAll validates every upload before ingesting any of them, then ingests them in order.
// It stops at the first failing document and returns the reports of the ones before it.
func (p *Pipeline) IngestAll(ctx context.Context, uploads []Upload) ([]*models.IngestReport, error) {
	if len(uploads) == 0 {
		return nil, apperr.Errorf(apperr.KindInputRejected, "ingest", "no file uploaded")
	}
	for _, u := range uploads {
		if err := ValidateUpload(u.FileName, u.Data, p.cfg.MaxUploadBytes); err != nil {
			return nil, err
		}
	}

	reports := make([]*models.IngestReport, 0, len(uploads))
	for _, u := range uploads {
		rep, err := p.Ingest(ctx, u.FileName, u.Data)
		if err != nil {
			return reports, fmt.Errorf("%s: %w", u.FileName, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// Ingest runs one document through recognition, identity resolution, reconstruction, mapping,
// archive, table replacement and enrichment. Recognition, identity and geometry failures abort
// before the object store or the database is touched, so a bad re-upload never replaces the
// archived document of the table that survives it. Enrichment failures are logged and reported, not returned: the rows are
// already committed and a later pass picks them up.
func (p *Pipeline) Ingest(ctx context.Context, fileName string, data []byte) (*models.IngestReport, error) {
	runID := uuid.NewString()
	log := p.log.With("run_id", runID, "file", fileName)

	rep, err := p.ingest(ctx, runID, fileName, data, log)
	if err != nil {
		log.Error("ingest failed", "kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err)
		return nil, err
	}
	log.Info("document ingested",
		"table", rep.Table, "tables", rep.Tables, "inserted", rep.Inserted, "skipped", len(rep.Skipped),
		"embedded", rep.Enrichment.Embedding.Done, "translated", rep.Enrichment.Translation.Done)
	return rep, nil
}

func (p *Pipeline) ingest(ctx context.Context, runID, fileName string, data []byte, log *logger.Logger) (*models.IngestReport, error) {
	if err := ValidateUpload(fileName, data, p.cfg.MaxUploadBytes); err != nil {
		return nil, err
	}

	doc, err := p.recognize(ctx, data)
	if err != nil {
		return nil, err
	}

	table, err := identity.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	var (
		rows    []models.RecordRow
		skipped []models.RowFailure
	)
	for i, t := range doc.Tables {
		grid, err := Reconstruct(t)
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		r, f := MapRows(i, grid)
		rows = append(rows, r...)
		skipped = append(skipped, f...)
	}
	for _, f := range skipped {
		log.Warn("row skipped", "table", table, "table_index", f.TableIndex, "row_index", f.RowIndex,
			"kind", f.Kind, "external", false, "reason", f.Reason)
	}

	blobURL, err := p.archive(ctx, fileName, data)
	if err != nil {
		return nil, err
	}
	log.Debug("document archived", "blob", blobURL)

	res, err := p.db.ReplaceTable(ctx, table, blobURL, rows)
	if err != nil {
		return nil, err
	}
	skipped = append(skipped, res.Rejected...)

	rep := &models.IngestReport{
		RunID:      runID,
		FileName:   fileName,
		BlobURL:    blobURL,
		Table:      table,
		Tables:     len(doc.Tables),
		Inserted:   res.Inserted,
		Skipped:    skipped,
		Enrichment: models.EnrichmentReport{Table: table},
	}

	if p.enricher != nil {
		enr, err := p.enricher.Run(ctx, table)
		if err != nil {
			log.Warn("enrichment incomplete", "table", table,
				"kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err)
		}
		rep.Enrichment = enr
		rep.Enrichment.Table = table
	}
	return rep, nil
}

func (p *Pipeline) archive(ctx context.Context, fileName string, data []byte) (string, error) {
	const op = "archive document"

	if err := p.obj.EnsureContainer(ctx, p.cfg.Container); err != nil {
		return "", apperr.External(apperr.KindStorage, op, err)
	}
	url, err := p.obj.UploadFile(ctx, p.cfg.Container, BlobName(fileName), data, pdfContentType)
	if err != nil {
		return "", apperr.External(apperr.KindStorage, op, err)
	}
	return url, nil
}

// recognize blocks until the recognizer has produced its complete result.
func (p *Pipeline) recognize(ctx context.Context, data []byte) (*models.RecognizedDocument, error) {
	const op = "recognize document"

	if p.cfg.RecognitionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RecognitionTimeout)
		defer cancel()
	}

	start := time.Now()
	doc, err := p.recognizer.Recognize(ctx, data, pdfContentType)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.External(apperr.KindRecognition, op, err)
	}
	if doc == nil {
		return nil, apperr.Errorf(apperr.KindRecognition, op, "recognizer returned no result")
	}
	p.log.Debug("document recognized", "blocks", len(doc.TextBlocks), "tables", len(doc.Tables), "took", time.Since(start))
	return doc, nil
}

// ValidateUpload rejects anything that is not a non-empty PDF within the size cap.
func ValidateUpload(fileName string, data []byte, maxBytes int64) error {
	const op = "validate upload"

	switch {
	case strings.TrimSpace(fileName) == "":
		return apperr.Errorf(apperr.KindInputRejected, op, "no file selected")
	case !strings.EqualFold(filepath.Ext(fileName), ".pdf"):
		return apperr.Errorf(apperr.KindInputRejected, op, "%q is not a .pdf file", fileName)
	case len(data) == 0:
		return apperr.Errorf(apperr.KindInputRejected, op, "%q is empty", fileName)
	case maxBytes > 0 && int64(len(data)) > maxBytes:
		return apperr.Errorf(apperr.KindInputRejected, op, "%q is %d bytes, limit is %d", fileName, len(data), maxBytes)
	}

	head := data
	if len(head) > pdfHeaderWindow {
		head = head[:pdfHeaderWindow]
	}
	if !bytes.Contains(head, []byte("%PDF-")) {
		return apperr.Errorf(apperr.KindInputRejected, op, "%q does not look like a PDF", fileName)
	}
	return nil
}

// BlobName is the archive key for an uploaded file. Re-uploading the same name overwrites.
func BlobName(fileName string) string {
	return path.Base(strings.ReplaceAll(fileName, `\`, "/"))
}
