package ingestion_engine

import (
	"testing"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/models"
)

func TestReconstructPlacesUnorderedCells(t *testing.T) {
	tbl := models.RecognizedTable{
		RowCount:    2,
		ColumnCount: 3,
		Cells: []models.Cell{
			{RowIndex: 1, ColumnIndex: 2, Content: "f"},
			{RowIndex: 0, ColumnIndex: 0, Content: "a"},
			{RowIndex: 1, ColumnIndex: 0, Content: "d"},
			{RowIndex: 0, ColumnIndex: 2, Content: "c"},
		},
	}

	grid, err := Reconstruct(tbl)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(grid) != 2 || len(grid[0]) != 3 || len(grid[1]) != 3 {
		t.Fatalf("dimensions: got=%dx%d", len(grid), len(grid[0]))
	}
	want := [][]string{{"a", "", "c"}, {"d", "", "f"}}
	for r := range want {
		for c := range want[r] {
			if grid[r][c] != want[r][c] {
				t.Fatalf("cell (%d,%d): want=%q got=%q", r, c, want[r][c], grid[r][c])
			}
		}
	}
}

func TestReconstructLastWriteWins(t *testing.T) {
	grid, err := Reconstruct(models.RecognizedTable{
		RowCount:    1,
		ColumnCount: 1,
		Cells: []models.Cell{
			{Content: "first"},
			{Content: "second"},
		},
	})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if grid[0][0] != "second" {
		t.Fatalf("duplicate: want=%q got=%q", "second", grid[0][0])
	}
}

func TestReconstructRejectsOutOfBounds(t *testing.T) {
	cases := map[string]models.Cell{
		"row past end":    {RowIndex: 2, ColumnIndex: 0},
		"column past end": {RowIndex: 0, ColumnIndex: 3},
		"negative row":    {RowIndex: -1, ColumnIndex: 0},
		"negative column": {RowIndex: 0, ColumnIndex: -1},
	}
	for name, cell := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Reconstruct(models.RecognizedTable{RowCount: 2, ColumnCount: 3, Cells: []models.Cell{cell}})
			if !apperr.Is(err, apperr.KindRecognition) {
				t.Fatalf("want recognition failure, got=%v", err)
			}
		})
	}
}

func TestReconstructEmptyAndNegativeDimensions(t *testing.T) {
	grid, err := Reconstruct(models.RecognizedTable{})
	if err != nil || len(grid) != 0 {
		t.Fatalf("empty table: grid=%v err=%v", grid, err)
	}
	if _, err := Reconstruct(models.RecognizedTable{RowCount: -1, ColumnCount: 2}); err == nil {
		t.Fatalf("negative row count: expected error")
	}
}
