package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/core/ingestion_engine"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
	"github.com/markdave123-py/inventra/internal/services"
)

// MaxFilesPerUpload caps one multi-file upload.
const MaxFilesPerUpload = 10

// SyntheticLoader fills inventory tables with generated demo data.
type SyntheticLoader interface {
	LoadAll(ctx context.Context) ([]*models.SyntheticReport, error)
}

type InventoryHandler struct {
	ingestor       ingestion_engine.Ingestor
	loader         SyntheticLoader
	inventory      *services.InventoryService
	maxUploadBytes int64
	log            *logger.Logger
}

func NewInventoryHandler(ing ingestion_engine.Ingestor, loader SyntheticLoader, inv *services.InventoryService, maxUploadBytes int64, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		ingestor: ing, loader: loader, inventory: inv, maxUploadBytes: maxUploadBytes,
		log: log.With("handler", "InventoryHandler"),
	}
}

// Form renders the upload form with the registered tables.
func (h *InventoryHandler) Form(w http.ResponseWriter, r *http.Request) {
	tables, err := h.inventory.ListTables(r.Context())
	if err != nil {
		renderFailure(w, h.log, err, nil)
		return
	}
	render(w, h.log, http.StatusOK, "upload.html", formPage{Tables: tables})
}

// Upload ingests every pdf_file part of a multipart form. All files are validated before the
// first one is ingested.
func (h *InventoryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.readUploads(w, r)
	if err != nil {
		renderFailure(w, h.log, err, nil)
		return
	}

	reports, err := h.ingestor.IngestAll(r.Context(), uploads)
	if err != nil {
		renderFailure(w, h.log, err, reports)
		return
	}
	render(w, h.log, http.StatusOK, "success.html", resultPage{Documents: reports})
}

func (h *InventoryHandler) readUploads(w http.ResponseWriter, r *http.Request) ([]ingestion_engine.Upload, error) {
	const op = "read upload"

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*MaxFilesPerUpload+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperr.Errorf(apperr.KindInputRejected, op, "upload larger than %d bytes", tooBig.Limit)
		}
		return nil, apperr.New(apperr.KindInputRejected, op, fmt.Errorf("not a multipart upload: %w", err))
	}

	files := r.MultipartForm.File["pdf_file"]
	if len(files) > MaxFilesPerUpload {
		return nil, apperr.Errorf(apperr.KindInputRejected, op, "%d files uploaded, limit is %d", len(files), MaxFilesPerUpload)
	}

	uploads := make([]ingestion_engine.Upload, 0, len(files))
	for _, fh := range files {
		if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
			return nil, apperr.Errorf(apperr.KindInputRejected, op, "%q is %d bytes, limit is %d", fh.Filename, fh.Size, h.maxUploadBytes)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperr.New(apperr.KindInputRejected, op, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperr.New(apperr.KindInputRejected, op, err)
		}
		uploads = append(uploads, ingestion_engine.Upload{FileName: fh.Filename, Data: data})
	}
	return uploads, nil
}

// LoadSynthetic populates every registered table (or the default one) with demo data.
func (h *InventoryHandler) LoadSynthetic(w http.ResponseWriter, r *http.Request) {
	reports, err := h.loader.LoadAll(r.Context())
	if err != nil {
		renderFailure(w, h.log, err, nil)
		return
	}
	render(w, h.log, http.StatusOK, "success.html", resultPage{Synthetic: reports})
}

func (h *InventoryHandler) CheckTables(w http.ResponseWriter, r *http.Request) {
	ok, err := h.inventory.HasTables(r.Context())
	if err != nil {
		h.log.Warn("check tables failed", "kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err)
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"has_tables": ok})
}

// GetDocument streams an archived upload.
func (h *InventoryHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := h.inventory.OpenDocument(r.Context(), name)
	if err != nil {
		h.log.Warn("document download failed", "file", name, "kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err)
		RespondError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", ingestion_engine.BlobName(name)))
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("document stream interrupted", "file", name, "error", err)
	}
}
