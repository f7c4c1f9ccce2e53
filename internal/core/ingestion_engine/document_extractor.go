package ingestion_engine

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/models"
)

var _ core.DocumentRecognizer = (*DocconvRecognizer)(nil)

func NewDocconvRecognizer(useReadability bool) *DocconvRecognizer {
	return &DocconvRecognizer{useReadability: useReadability}
}

// Recognize extracts plain text with docconv and recovers structure heuristically: blank-line
// separated paragraphs become text blocks, and runs of consecutive lines that split into two or
// more fields become one table each. Meant for local runs without a recognition service.
func (e *DocconvRecognizer) Recognize(ctx context.Context, data []byte, mimeType string) (*models.RecognizedDocument, error) {
	const op = "docconv recognize"

	res, err := docconv.Convert(bytes.NewReader(data), mimeType, e.useReadability)
	if err != nil {
		return nil, apperr.External(apperr.KindRecognition, op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parsePlainText(res.Body), nil
}

var (
	multiSpace   = regexp.MustCompile(`\s{2,}`)
	ruleLine     = regexp.MustCompile(`^[\s|:+\-=]+$`)
	paragraphGap = regexp.MustCompile(`\n\s*\n`)
)

func parsePlainText(text string) *models.RecognizedDocument {
	doc := &models.RecognizedDocument{}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	for _, p := range paragraphGap.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			doc.TextBlocks = append(doc.TextBlocks, p)
		}
	}

	var current [][]string
	flush := func() {
		if len(current) > 0 {
			doc.Tables = append(doc.Tables, toTable(current))
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if ruleLine.MatchString(line) && strings.TrimSpace(line) != "" {
			continue
		}
		fields := splitFields(line)
		if len(fields) < 2 {
			flush()
			continue
		}
		current = append(current, fields)
	}
	flush()

	return doc
}

// splitFields splits a line on tabs, pipes or runs of 2+ spaces, whichever the line uses first.
func splitFields(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var parts []string
	switch {
	case strings.Contains(line, "\t"):
		parts = strings.Split(line, "\t")
	case strings.Contains(line, "|"):
		parts = strings.Split(strings.Trim(line, "|"), "|")
	default:
		parts = multiSpace.Split(line, -1)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func toTable(lines [][]string) models.RecognizedTable {
	t := models.RecognizedTable{RowCount: len(lines)}
	for r, fields := range lines {
		if len(fields) > t.ColumnCount {
			t.ColumnCount = len(fields)
		}
		for c, f := range fields {
			t.Cells = append(t.Cells, models.Cell{RowIndex: r, ColumnIndex: c, Content: f})
		}
	}
	return t
}
