package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
)

type fakeDB struct {
	core.DbClient // unused methods panic

	tables    []string
	lastLimit int
	lastVec   []float32
}

func (f *fakeDB) ListTables(context.Context) ([]string, error) { return f.tables, nil }
func (f *fakeDB) CountTables(context.Context) (int, error)     { return len(f.tables), nil }
func (f *fakeDB) TableExists(_ context.Context, t string) (bool, error) {
	for _, have := range f.tables {
		if have == t {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDB) SearchNames(_ context.Context, _ string, vec []float32, limit int) ([]string, error) {
	f.lastVec, f.lastLimit = vec, limit
	return []string{"Apple", "Pear"}, nil
}

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.texts = append(f.texts, texts...)
	if f.err != nil {
		return nil, f.err
	}
	return [][]float32{{0.1, 0.2}}, nil
}

type fakeObjects struct {
	core.ObjectClient

	blobs map[string][]byte
}

func (f *fakeObjects) GetObjectReader(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	b, ok := f.blobs[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, core.ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func newService(emb *fakeEmbedder) (*InventoryService, *fakeDB) {
	db := &fakeDB{tables: []string{"Bellevue_Warehouse"}}
	obj := &fakeObjects{blobs: map[string][]byte{"forms/form.pdf": []byte("%PDF-1.7")}}
	return NewInventoryService(db, emb, obj, "forms"), db
}

func TestAskQuestion(t *testing.T) {
	emb := &fakeEmbedder{}
	svc, db := newService(emb)

	names, err := svc.AskQuestion(context.Background(), "Bellevue_Warehouse", "  something sweet ")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(names) != 2 || db.lastLimit != SearchLimit || len(db.lastVec) != 2 {
		t.Fatalf("search: names=%v limit=%d vec=%v", names, db.lastLimit, db.lastVec)
	}
	if emb.texts[0] != "something sweet" {
		t.Fatalf("embedded text: got=%q", emb.texts[0])
	}
}

func TestAskQuestionRejects(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		question string
		embErr   error
		kind     apperr.Kind
	}{
		{"empty question", "Bellevue_Warehouse", "   ", nil, apperr.KindInputRejected},
		{"invalid table", "x; drop", "apples", nil, apperr.KindIdentityInvalid},
		{"unknown table", "Nowhere", "apples", nil, apperr.KindInputRejected},
		{"embedder down", "Bellevue_Warehouse", "apples", errors.New("503"), apperr.KindEnrichmentTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(&fakeEmbedder{err: tt.embErr})
			_, err := svc.AskQuestion(context.Background(), tt.table, tt.question)
			if !apperr.Is(err, tt.kind) {
				t.Fatalf("kind: want=%s got=%v", tt.kind, err)
			}
		})
	}
}

func TestHasTables(t *testing.T) {
	svc, db := newService(&fakeEmbedder{})
	if ok, _ := svc.HasTables(context.Background()); !ok {
		t.Fatalf("want tables")
	}
	db.tables = nil
	if ok, _ := svc.HasTables(context.Background()); ok {
		t.Fatalf("want no tables")
	}
}

func TestOpenDocument(t *testing.T) {
	svc, _ := newService(&fakeEmbedder{})

	rc, err := svc.OpenDocument(context.Background(), "../../form.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "%PDF-1.7" {
		t.Fatalf("content: got=%q", b)
	}

	if _, err := svc.OpenDocument(context.Background(), "missing.pdf"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing: want not_found got=%v", err)
	}
	if _, err := svc.OpenDocument(context.Background(), "notes.txt"); !apperr.Is(err, apperr.KindInputRejected) {
		t.Fatalf("non-pdf: want input_rejected got=%v", err)
	}
}
