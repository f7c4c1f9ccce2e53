package ingestion_engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

var samplePDF = []byte("%PDF-1.7\n%fake body\n")

type fakeObjects struct {
	ensured []string
	blobs   map[string][]byte
	err     error
}

func (f *fakeObjects) EnsureContainer(_ context.Context, container string) error {
	f.ensured = append(f.ensured, container)
	return f.err
}

func (f *fakeObjects) UploadFile(_ context.Context, container, key string, data []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.blobs == nil {
		f.blobs = map[string][]byte{}
	}
	f.blobs[container+"/"+key] = data
	return "mem://" + container + "/" + key, nil
}

func (f *fakeObjects) GetObjectReader(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type fakeRecognizer struct {
	doc   *models.RecognizedDocument
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(context.Context, []byte, string) (*models.RecognizedDocument, error) {
	f.calls++
	return f.doc, f.err
}

// fakeStore records ReplaceTable calls; everything else is unused by the pipeline.
type fakeStore struct {
	replaced map[string][]models.RecordRow
	sources  map[string]string
	reject   map[string]models.RowFailure // by inventory id
}

func newFakeStore() *fakeStore {
	return &fakeStore{replaced: map[string][]models.RecordRow{}, sources: map[string]string{}}
}

func (f *fakeStore) ListTables(context.Context) ([]string, error) { return nil, nil }
func (f *fakeStore) CountTables(context.Context) (int, error)     { return len(f.replaced), nil }
func (f *fakeStore) TableExists(_ context.Context, table string) (bool, error) {
	_, ok := f.replaced[table]
	return ok, nil
}

func (f *fakeStore) ReplaceTable(_ context.Context, table, source string, rows []models.RecordRow) (*models.InsertResult, error) {
	res := &models.InsertResult{}
	var kept []models.RecordRow
	for _, r := range rows {
		if rf, ok := f.reject[r.InventoryID]; ok {
			rf.TableIndex, rf.RowIndex = r.TableIndex, r.RowIndex
			res.Rejected = append(res.Rejected, rf)
			continue
		}
		kept = append(kept, r)
		res.Inserted++
	}
	f.replaced[table] = kept
	f.sources[table] = source
	return res, nil
}

func (f *fakeStore) EnsureTable(context.Context, string, string) error { return nil }
func (f *fakeStore) InsertRecords(context.Context, string, []models.RecordRow) (*models.InsertResult, error) {
	return &models.InsertResult{}, nil
}
func (f *fakeStore) PendingEmbeddings(context.Context, string) ([]models.PendingText, error) {
	return nil, nil
}
func (f *fakeStore) SetEmbedding(context.Context, string, string, []float32) (bool, error) {
	return false, nil
}
func (f *fakeStore) PendingTranslations(context.Context, string, bool) ([]models.PendingText, error) {
	return nil, nil
}
func (f *fakeStore) SetTranslation(context.Context, string, string, string, bool) (bool, error) {
	return false, nil
}
func (f *fakeStore) SearchNames(context.Context, string, []float32, int) ([]string, error) {
	return nil, nil
}
func (f *fakeStore) Close() error { return nil }

type fakeEnricher struct {
	tables []string
	err    error
}

func (f *fakeEnricher) Run(_ context.Context, table string) (models.EnrichmentReport, error) {
	f.tables = append(f.tables, table)
	return models.EnrichmentReport{
		Table:       table,
		Embedding:   models.PassResult{Pending: 1, Done: 1},
		Translation: models.PassResult{Pending: 1, Done: 1},
	}, f.err
}

func bellevueDocument() *models.RecognizedDocument {
	cells := []models.Cell{}
	for c, v := range header {
		cells = append(cells, models.Cell{RowIndex: 0, ColumnIndex: c, Content: v})
	}
	data := []string{"IN0001", "Apple", "Crisp red apple", "$1.20", "40", "$48.00", "10", "3", "25"}
	// reversed so the reconstructor has to place them
	for c := len(data) - 1; c >= 0; c-- {
		cells = append(cells, models.Cell{RowIndex: 1, ColumnIndex: c, Content: data[c]})
	}
	return &models.RecognizedDocument{
		TextBlocks: []string{"Bellevue Warehouse", "Stock sheet"},
		Tables:     []models.RecognizedTable{{RowCount: 2, ColumnCount: 9, Cells: cells}},
	}
}

func newTestPipeline(store *fakeStore, obj *fakeObjects, rec *fakeRecognizer, enr core.Enricher) *Pipeline {
	cfg := &IngestConfig{Container: "inventory-forms", MaxUploadBytes: 1 << 20}
	return NewPipeline(store, obj, rec, enr, cfg, logger.Nop())
}

func TestIngestBellevueWarehouse(t *testing.T) {
	store, obj := newFakeStore(), &fakeObjects{}
	rec := &fakeRecognizer{doc: bellevueDocument()}
	enr := &fakeEnricher{}

	rep, err := newTestPipeline(store, obj, rec, enr).Ingest(context.Background(), "stock.pdf", samplePDF)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if rep.Table != "Bellevue_Warehouse" {
		t.Fatalf("table: want=%q got=%q", "Bellevue_Warehouse", rep.Table)
	}
	if rep.Inserted != 1 || rep.Tables != 1 || len(rep.Skipped) != 0 {
		t.Fatalf("report: got=%+v", rep)
	}
	if rep.RunID == "" {
		t.Fatalf("run id missing")
	}
	rows := store.replaced["Bellevue_Warehouse"]
	if len(rows) != 1 || rows[0].Name != "Apple" || rows[0].QuantityInReorder != "25" {
		t.Fatalf("stored rows: got=%+v", rows)
	}
	if store.sources["Bellevue_Warehouse"] != "mem://inventory-forms/stock.pdf" {
		t.Fatalf("source blob: got=%q", store.sources["Bellevue_Warehouse"])
	}
	if len(obj.ensured) != 1 || obj.ensured[0] != "inventory-forms" {
		t.Fatalf("container not ensured: %v", obj.ensured)
	}
	if len(enr.tables) != 1 || rep.Enrichment.Embedding.Done != 1 {
		t.Fatalf("enrichment: calls=%v report=%+v", enr.tables, rep.Enrichment)
	}
}

func TestIngestReportsSkippedRows(t *testing.T) {
	doc := bellevueDocument()
	tbl := &doc.Tables[0]
	// row 2 has no cells at all and stays blank
	tbl.RowCount = 4
	for c, v := range []string{"IN0003", "Plum", "Dark plum", "$3", "x", "$6", "1", "1", "0"} {
		tbl.Cells = append(tbl.Cells, models.Cell{RowIndex: 3, ColumnIndex: c, Content: v})
	}
	store := newFakeStore()
	store.reject = map[string]models.RowFailure{
		"IN0003": {Kind: string(apperr.KindRowShape), Reason: "invalid input syntax for type integer"},
	}

	rep, err := newTestPipeline(store, &fakeObjects{}, &fakeRecognizer{doc: doc}, nil).
		Ingest(context.Background(), "stock.pdf", samplePDF)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rep.Inserted != 1 {
		t.Fatalf("inserted: want=1 got=%d", rep.Inserted)
	}
	if len(rep.Skipped) != 2 {
		t.Fatalf("skipped: want=2 got=%+v", rep.Skipped)
	}
	if rep.Skipped[0].RowIndex != 2 || rep.Skipped[1].RowIndex != 3 {
		t.Fatalf("skipped rows: got=%+v", rep.Skipped)
	}
}

func TestIngestAbortsBeforeStorage(t *testing.T) {
	// a bad re-upload must leave both the table and its archived document alone
	cases := map[string]struct {
		doc  *models.RecognizedDocument
		kind apperr.Kind
	}{
		"no text block": {
			doc:  &models.RecognizedDocument{},
			kind: apperr.KindIdentityInvalid,
		},
		"unsafe identity": {
			doc:  &models.RecognizedDocument{TextBlocks: []string{`Robert"); DROP TABLE x;--`}},
			kind: apperr.KindIdentityInvalid,
		},
		"cell out of bounds": {
			doc: &models.RecognizedDocument{
				TextBlocks: []string{"Store"},
				Tables: []models.RecognizedTable{{
					RowCount: 1, ColumnCount: 1,
					Cells: []models.Cell{{RowIndex: 5, ColumnIndex: 0}},
				}},
			},
			kind: apperr.KindRecognition,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			obj := &fakeObjects{blobs: map[string][]byte{"inventory-forms/a.pdf": []byte("%PDF-previous")}}
			_, err := newTestPipeline(store, obj, &fakeRecognizer{doc: tc.doc}, nil).
				Ingest(context.Background(), "a.pdf", samplePDF)
			if !apperr.Is(err, tc.kind) {
				t.Fatalf("kind: want=%s got=%v", tc.kind, err)
			}
			if len(store.replaced) != 0 {
				t.Fatalf("store touched: %v", store.replaced)
			}
			if got := string(obj.blobs["inventory-forms/a.pdf"]); got != "%PDF-previous" {
				t.Fatalf("archived document overwritten: got=%q", got)
			}
		})
	}
}

func TestIngestRecognitionFailureIsExternal(t *testing.T) {
	obj := &fakeObjects{}
	_, err := newTestPipeline(newFakeStore(), obj, &fakeRecognizer{err: errors.New("503")}, nil).
		Ingest(context.Background(), "a.pdf", samplePDF)
	if !apperr.Is(err, apperr.KindRecognition) || !apperr.IsExternal(err) {
		t.Fatalf("want external recognition failure, got=%v", err)
	}
	if len(obj.blobs) != 0 || len(obj.ensured) != 0 {
		t.Fatalf("object store touched: blobs=%d ensured=%v", len(obj.blobs), obj.ensured)
	}
}

func TestIngestEnrichmentFailureKeepsRows(t *testing.T) {
	store := newFakeStore()
	enr := &fakeEnricher{err: context.DeadlineExceeded}
	rep, err := newTestPipeline(store, &fakeObjects{}, &fakeRecognizer{doc: bellevueDocument()}, enr).
		Ingest(context.Background(), "a.pdf", samplePDF)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rep.Inserted != 1 || len(store.replaced["Bellevue_Warehouse"]) != 1 {
		t.Fatalf("rows lost: %+v", rep)
	}
}

func TestIngestAllValidatesEveryFileFirst(t *testing.T) {
	rec := &fakeRecognizer{doc: bellevueDocument()}
	obj := &fakeObjects{}
	p := newTestPipeline(newFakeStore(), obj, rec, nil)

	_, err := p.IngestAll(context.Background(), []Upload{
		{FileName: "good.pdf", Data: samplePDF},
		{FileName: "notes.txt", Data: []byte("hello")},
	})
	if !apperr.Is(err, apperr.KindInputRejected) {
		t.Fatalf("want input rejected, got=%v", err)
	}
	if rec.calls != 0 || len(obj.blobs) != 0 {
		t.Fatalf("work started before validation: recognizer=%d blobs=%d", rec.calls, len(obj.blobs))
	}

	reports, err := p.IngestAll(context.Background(), []Upload{
		{FileName: "a.pdf", Data: samplePDF},
		{FileName: "b.pdf", Data: samplePDF},
	})
	if err != nil || len(reports) != 2 {
		t.Fatalf("ingest all: reports=%d err=%v", len(reports), err)
	}
}

func TestValidateUpload(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		data    []byte
		max     int64
		wantErr string
	}{
		{"ok", "Sheet.PDF", samplePDF, 0, ""},
		{"no name", "", samplePDF, 0, "no file selected"},
		{"wrong extension", "sheet.docx", samplePDF, 0, "not a .pdf"},
		{"empty", "a.pdf", nil, 0, "is empty"},
		{"too large", "a.pdf", samplePDF, 4, "limit is 4"},
		{"not a pdf", "a.pdf", []byte("PK\x03\x04zip"), 0, "does not look like a PDF"},
		{"junk before header", "a.pdf", append([]byte("\x00\x00"), samplePDF...), 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUpload(tc.file, tc.data, tc.max)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got=%v", tc.wantErr, err)
			}
			if !apperr.Is(err, apperr.KindInputRejected) {
				t.Fatalf("kind: got=%s", apperr.KindOf(err))
			}
		})
	}
}

func TestBlobName(t *testing.T) {
	for in, want := range map[string]string{
		"stock.pdf":                 "stock.pdf",
		"../../etc/stock.pdf":       "stock.pdf",
		`C:\Users\me\Desktop\a.pdf`: "a.pdf",
	} {
		if got := BlobName(in); got != want {
			t.Fatalf("BlobName(%q): want=%q got=%q", in, want, got)
		}
	}
}
