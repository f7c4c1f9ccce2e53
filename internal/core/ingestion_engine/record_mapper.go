package ingestion_engine

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/models"
)

// MapRows converts a reconstructed grid into insert-ready rows. Row 0 is the header and is never
// mapped. Columns are positional: inventory_id, name, description, unit_price, quantity_in_stock,
// inventory_value, reorder_level, reorder_time_in_days, quantity_in_reorder.
//
// A row that cannot be mapped is reported in the failures and the rest continue.
func MapRows(tableIndex int, grid [][]string) ([]models.RecordRow, []models.RowFailure) {
	var (
		rows     []models.RecordRow
		failures []models.RowFailure
	)

	for r := 1; r < len(grid); r++ {
		fields := grid[r]
		fail := func(reason string) {
			failures = append(failures, models.RowFailure{
				TableIndex: tableIndex,
				RowIndex:   r,
				Kind:       string(apperr.KindRowShape),
				Reason:     reason,
			})
		}

		if isBlank(fields) {
			fail("row is blank")
			continue
		}
		if len(fields) < models.RecordFieldCount {
			fail(fmt.Sprintf("row has %d columns, need %d", len(fields), models.RecordFieldCount))
			continue
		}
		if extra := fields[models.RecordFieldCount:]; !isBlank(extra) {
			fail(fmt.Sprintf("row has %d non-blank columns beyond the %d mapped ones",
				countNonBlank(extra), models.RecordFieldCount))
			continue
		}

		v := make([]string, models.RecordFieldCount)
		for i := range v {
			v[i] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, models.RecordRow{
			InventoryID:       v[0],
			Name:              v[1],
			Description:       v[2],
			UnitPrice:         v[3],
			QuantityInStock:   v[4],
			InventoryValue:    v[5],
			ReorderLevel:      v[6],
			ReorderTimeInDays: v[7],
			QuantityInReorder: v[8],
			TableIndex:        tableIndex,
			RowIndex:          r,
		})
	}
	return rows, failures
}

func isBlank(fields []string) bool {
	return countNonBlank(fields) == 0
}

func countNonBlank(fields []string) int {
	n := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	return n
}
