package db

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/models"
)

func TestCreateTableSQLQuotesAndSizesVector(t *testing.T) {
	q := createTableSQL("Bellevue_Warehouse", 1536, false)

	if !strings.Contains(q, `CREATE TABLE "Bellevue_Warehouse"`) {
		t.Fatalf("quoted identifier missing: %s", q)
	}
	if !strings.Contains(q, "VECTOR(1536)") {
		t.Fatalf("vector column missing: %s", q)
	}
	if !strings.Contains(q, "spanish_description  TEXT") {
		t.Fatalf("spanish_description column missing: %s", q)
	}
	if strings.Contains(q, "IF NOT EXISTS") {
		t.Fatalf("replace path must not use IF NOT EXISTS")
	}
	if !strings.Contains(createTableSQL("t", 8, true), "IF NOT EXISTS") {
		t.Fatalf("ensure path must use IF NOT EXISTS")
	}
}

func TestInsertSQLBindsEveryValue(t *testing.T) {
	q := insertSQL("Store", false)
	for i := 1; i <= models.RecordFieldCount; i++ {
		if !strings.Contains(q, "$"+string(rune('0'+i))) {
			t.Fatalf("placeholder $%d missing: %s", i, q)
		}
	}
	if strings.Contains(q, "ON CONFLICT") {
		t.Fatalf("ingest insert must surface conflicts")
	}
	if !strings.Contains(insertSQL("Store", true), "ON CONFLICT DO NOTHING") {
		t.Fatalf("synthetic insert must skip conflicts")
	}
}

func TestTranslationSQLNullFilter(t *testing.T) {
	if !strings.Contains(setTranslationSQL("T", true), "spanish_description IS NULL") {
		t.Fatalf("onlyMissing update must be conditional")
	}
	if strings.Contains(setTranslationSQL("T", false), "IS NULL") {
		t.Fatalf("unconditional update must not filter")
	}
	if strings.Contains(pendingTranslationsSQL("T", false), "WHERE") {
		t.Fatalf("unfiltered pending query must select every row")
	}
}

func TestSearchNamesSQLUsesCosineDistance(t *testing.T) {
	q := searchNamesSQL("Bellevue_Warehouse")
	if !strings.Contains(q, "ORDER BY embedding <=> $1") || !strings.Contains(q, "LIMIT $2") {
		t.Fatalf("search query: %s", q)
	}
}

func TestRowRejection(t *testing.T) {
	row := models.RecordRow{TableIndex: 1, RowIndex: 4}

	f, ok := rowRejection(row, &pgconn.PgError{Code: "23505", Message: "duplicate key"})
	if !ok || f.Kind != string(apperr.KindStorageConflict) {
		t.Fatalf("unique violation: ok=%t kind=%q", ok, f.Kind)
	}
	if f.TableIndex != 1 || f.RowIndex != 4 {
		t.Fatalf("position: got=%d/%d", f.TableIndex, f.RowIndex)
	}

	f, ok = rowRejection(row, &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type integer"})
	if !ok || f.Kind != string(apperr.KindRowShape) {
		t.Fatalf("bad integer: ok=%t kind=%q", ok, f.Kind)
	}

	if _, ok := rowRejection(row, &pgconn.PgError{Code: "57P01"}); ok {
		t.Fatalf("admin shutdown must abort the batch")
	}
	if _, ok := rowRejection(row, errors.New("conn reset")); ok {
		t.Fatalf("non-pg errors must abort the batch")
	}
}

func TestWithSSL(t *testing.T) {
	got, err := withSSL("postgres://u@h/db", "")
	if err != nil || got != "postgres://u@h/db" {
		t.Fatalf("no cert: got=%q err=%v", got, err)
	}
	if _, err := withSSL("postgres://u@h/db", "/does/not/exist.pem"); err == nil {
		t.Fatalf("missing cert: expected error")
	}
}
