package models

// RecordFieldCount is the number of positional fields a data row must supply.
const RecordFieldCount = 9

// RecordRow is an insert-ready row. Numeric columns stay as recognized text; the store casts
// them and rejects what does not parse.
type RecordRow struct {
	InventoryID       string
	Name              string
	Description       string
	UnitPrice         string
	QuantityInStock   string
	InventoryValue    string
	ReorderLevel      string
	ReorderTimeInDays string
	QuantityInReorder string

	// Source position, for failure reports. TableIndex is zero-based; RowIndex is the grid row,
	// so it is zero only for rows that did not come from a document.
	TableIndex int
	RowIndex   int
}

// Values returns the nine fields in column order.
func (r RecordRow) Values() [RecordFieldCount]string {
	return [RecordFieldCount]string{
		r.InventoryID, r.Name, r.Description, r.UnitPrice, r.QuantityInStock,
		r.InventoryValue, r.ReorderLevel, r.ReorderTimeInDays, r.QuantityInReorder,
	}
}

// Cell is one recognized table cell. Indices are zero-based.
type Cell struct {
	RowIndex    int    `json:"row_index"`
	ColumnIndex int    `json:"column_index"`
	Content     string `json:"content"`
}

// RecognizedTable is the recognizer's output for one tabular region. Cells arrive unordered.
type RecognizedTable struct {
	RowCount    int    `json:"row_count"`
	ColumnCount int    `json:"column_count"`
	Cells       []Cell `json:"cells"`
}

// RecognizedDocument is everything the pipeline consumes from the recognition service.
type RecognizedDocument struct {
	TextBlocks []string          `json:"text_blocks"`
	Tables     []RecognizedTable `json:"tables"`
}

// RowFailure describes a data row that was not inserted.
type RowFailure struct {
	TableIndex int    `json:"table_index"`
	RowIndex   int    `json:"row_index"`
	Kind       string `json:"kind"`
	Reason     string `json:"reason"`
}

// InsertResult summarizes one batch insert.
type InsertResult struct {
	Inserted  int          `json:"inserted"`
	Conflicts int          `json:"conflicts"`
	Rejected  []RowFailure `json:"rejected,omitempty"`
}

// PendingText is a row id plus the text an enrichment pass feeds to a model.
type PendingText struct {
	InventoryID string
	Text        string
}

// PassResult reports one enrichment pass over one table.
type PassResult struct {
	Pending int `json:"pending"`
	Done    int `json:"done"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"` // written concurrently by another run
}

// EnrichmentReport combines both passes.
type EnrichmentReport struct {
	Table       string     `json:"table"`
	Embedding   PassResult `json:"embedding"`
	Translation PassResult `json:"translation"`
}

// IngestReport is returned for every ingested document.
type IngestReport struct {
	RunID      string           `json:"run_id"`
	FileName   string           `json:"file_name"`
	BlobURL    string           `json:"blob_url"`
	Table      string           `json:"table"`
	Tables     int              `json:"tables"`
	Inserted   int              `json:"inserted"`
	Skipped    []RowFailure     `json:"skipped,omitempty"`
	Enrichment EnrichmentReport `json:"enrichment"`
}

// Message is one role-tagged chat turn.
type Message struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SyntheticReport is returned for every table populated with generated demo data.
type SyntheticReport struct {
	RunID      string           `json:"run_id"`
	Table      string           `json:"table"`
	Generated  int              `json:"generated"`
	Inserted   int              `json:"inserted"`
	Conflicts  int              `json:"conflicts"`
	Enrichment EnrichmentReport `json:"enrichment"`
}
