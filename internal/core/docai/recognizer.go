// Package docai recognizes inventory forms with Google Document AI.
package docai

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/markdave123-py/inventra/internal/config"
	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

// Only the parts the pipeline reads; keeps responses small for multi-page forms.
var fieldMask = []string{"text", "pages.paragraphs", "pages.tables"}

type Recognizer struct {
	client    *documentai.DocumentProcessorClient
	processor string
	timeout   time.Duration
	log       *logger.Logger
}

var _ core.DocumentRecognizer = (*Recognizer)(nil)

func NewRecognizer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Recognizer, error) {
	name := processorName(cfg.DocAIProjectID, cfg.DocAILocation, cfg.DocAIProcessorID, cfg.DocAIProcessorVer)
	if name == "" {
		return nil, fmt.Errorf("DOCUMENTAI_PROJECT_ID, DOCUMENTAI_LOCATION and DOCUMENTAI_PROCESSOR_ID are required")
	}

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.DocAILocation)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, config.GoogleClientOptions()...)
	c, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	log.Info("Document AI initialized", "endpoint", endpoint, "processor", name)
	return &Recognizer{
		client:    c,
		processor: name,
		timeout:   cfg.RecognitionTimeout,
		log:       log.With("service", "docai.Recognizer"),
	}, nil
}

func (r *Recognizer) Close() error {
	return r.client.Close()
}

// Recognize sends the raw document and waits for the processor's complete response.
func (r *Recognizer) Recognize(ctx context.Context, data []byte, mimeType string) (*models.RecognizedDocument, error) {
	const op = "documentai process"

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	req := &documentaipb.ProcessRequest{
		Name: r.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
		FieldMask: &fieldmaskpb.FieldMask{Paths: fieldMask},
	}

	start := time.Now()
	resp, err := r.client.ProcessDocument(ctx, req)
	if err != nil {
		r.log.Warn("recognition failed",
			"kind", apperr.KindRecognition, "external", true, "transient", apperr.IsTransient(err), "error", err)
		return nil, apperr.External(apperr.KindRecognition, op, err)
	}
	if resp == nil || resp.Document == nil {
		return nil, apperr.External(apperr.KindRecognition, op, fmt.Errorf("empty response"))
	}

	doc := convertDocument(resp.Document)
	r.log.Debug("document recognized", "pages", len(resp.Document.Pages),
		"blocks", len(doc.TextBlocks), "tables", len(doc.Tables), "took", time.Since(start))
	return doc, nil
}

// convertDocument flattens pages into text blocks (paragraphs in reading order) and tables.
func convertDocument(doc *documentaipb.Document) *models.RecognizedDocument {
	out := &models.RecognizedDocument{}
	for _, p := range doc.GetPages() {
		for _, para := range p.GetParagraphs() {
			t := strings.TrimSpace(textFromAnchor(doc.GetText(), para.GetLayout().GetTextAnchor()))
			if t != "" {
				out.TextBlocks = append(out.TextBlocks, t)
			}
		}
		for _, t := range p.GetTables() {
			out.Tables = append(out.Tables, convertTable(doc.GetText(), t))
		}
	}

	// Some processors fill doc.Text but no paragraphs.
	if len(out.TextBlocks) == 0 {
		for _, line := range strings.Split(doc.GetText(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out.TextBlocks = append(out.TextBlocks, line)
			}
		}
	}
	return out
}

// convertTable numbers header rows then body rows from zero. A cell's column is the first column
// in its row not already covered by a row-spanning cell from above, so spans never shift
// later cells onto the wrong field.
func convertTable(full string, t *documentaipb.Document_Page_Table) models.RecognizedTable {
	rows := append(append([]*documentaipb.Document_Page_Table_TableRow{}, t.GetHeaderRows()...), t.GetBodyRows()...)

	out := models.RecognizedTable{RowCount: len(rows)}
	occupied := map[[2]int]bool{}

	for r, row := range rows {
		col := 0
		for _, cell := range row.GetCells() {
			for occupied[[2]int{r, col}] {
				col++
			}
			rs, cs := max(int(cell.GetRowSpan()), 1), max(int(cell.GetColSpan()), 1)
			for dr := 0; dr < rs; dr++ {
				for dc := 0; dc < cs; dc++ {
					occupied[[2]int{r + dr, col + dc}] = true
				}
			}

			out.Cells = append(out.Cells, models.Cell{
				RowIndex:    r,
				ColumnIndex: col,
				Content:     strings.TrimSpace(textFromAnchor(full, cell.GetLayout().GetTextAnchor())),
			})
			if col+cs > out.ColumnCount {
				out.ColumnCount = col + cs
			}
			if r+rs > out.RowCount {
				out.RowCount = r + rs
			}
			col += cs
		}
	}
	return out
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := int(seg.GetStartIndex()), int(seg.GetEndIndex())
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func processorName(project, location, processorID, version string) string {
	project = strings.TrimSpace(project)
	location = strings.TrimSpace(location)
	processorID = strings.TrimSpace(processorID)
	version = strings.TrimSpace(version)

	if project == "" || location == "" || processorID == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
	if version != "" {
		return base + "/processorVersions/" + version
	}
	return base
}
