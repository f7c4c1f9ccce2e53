package ingestion_engine

import (
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/models"
)

// Reconstruct lays a recognized table's unordered cells onto a dense RowCount x ColumnCount grid.
// Positions no cell covers hold "". When two cells share a position the later one wins.
// A cell outside the declared bounds means the recognizer's output is inconsistent, and the whole
// table is rejected.
func Reconstruct(t models.RecognizedTable) ([][]string, error) {
	const op = "reconstruct table"

	if t.RowCount < 0 || t.ColumnCount < 0 {
		return nil, apperr.Errorf(apperr.KindRecognition, op,
			"negative dimensions %dx%d", t.RowCount, t.ColumnCount)
	}

	grid := make([][]string, t.RowCount)
	for r := range grid {
		grid[r] = make([]string, t.ColumnCount)
	}

	for _, c := range t.Cells {
		if c.RowIndex < 0 || c.RowIndex >= t.RowCount || c.ColumnIndex < 0 || c.ColumnIndex >= t.ColumnCount {
			return nil, apperr.Errorf(apperr.KindRecognition, op,
				"cell (%d,%d) outside declared %dx%d grid", c.RowIndex, c.ColumnIndex, t.RowCount, t.ColumnCount)
		}
		grid[c.RowIndex][c.ColumnIndex] = c.Content
	}
	return grid, nil
}
