package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type formPage struct {
	Tables []string
}

type resultPage struct {
	Documents []*models.IngestReport
	Synthetic []*models.SyntheticReport
}

type failurePage struct {
	Message   string
	Documents []*models.IngestReport
}

type answerPage struct {
	Table    string
	Question string
	Answers  []string
}

// StatusFor maps an error kind to the HTTP status a client sees.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInputRejected:
		return http.StatusBadRequest
	case apperr.KindIdentityInvalid, apperr.KindRowShape:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindRecognition:
		return http.StatusBadGateway
	case apperr.KindStorage, apperr.KindEnrichmentTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal failures behind a generic text; client errors are shown as is.
func publicMessage(err error) string {
	switch StatusFor(err) {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusNotFound:
		return err.Error()
	case http.StatusBadGateway:
		return "The document could not be recognized. Please try again later."
	case http.StatusServiceUnavailable:
		return "A backing service is unavailable. Please try again later."
	default:
		return "Internal error."
	}
}

// render executes a page into a buffer first so a template error never leaves half a page behind.
func render(w http.ResponseWriter, log *logger.Logger, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error("template render failed", "page", name, "kind", apperr.KindInternal, "external", false, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderFailure(w http.ResponseWriter, log *logger.Logger, err error, done []*models.IngestReport) {
	status := StatusFor(err)
	kv := []any{"status", status, "kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err}
	if apperr.Is(err, apperr.KindInternal) {
		// unclassified errors are bugs, not bad input or a service outage
		log.Error("request failed", kv...)
	} else {
		log.Warn("request failed", kv...)
	}
	render(w, log, status, "failure.html", failurePage{Message: publicMessage(err), Documents: done})
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func RespondError(w http.ResponseWriter, err error) {
	RespondJSON(w, StatusFor(err), ErrorEnvelope{Error: APIError{
		Message: publicMessage(err),
		Code:    string(apperr.KindOf(err)),
	}})
}
