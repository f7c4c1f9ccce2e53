package synthetic

import (
	"context"
	"errors"
	"testing"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

type memStore struct {
	tables map[string][]models.RecordRow
	order  []string
}

func newMemStore(tables ...string) *memStore {
	s := &memStore{tables: map[string][]models.RecordRow{}}
	for _, t := range tables {
		s.tables[t] = nil
		s.order = append(s.order, t)
	}
	return s
}

func (s *memStore) ListTables(context.Context) ([]string, error) { return s.order, nil }
func (s *memStore) CountTables(context.Context) (int, error)     { return len(s.order), nil }
func (s *memStore) TableExists(_ context.Context, t string) (bool, error) {
	_, ok := s.tables[t]
	return ok, nil
}
func (s *memStore) ReplaceTable(context.Context, string, string, []models.RecordRow) (*models.InsertResult, error) {
	return nil, errors.New("unused")
}

func (s *memStore) EnsureTable(_ context.Context, t, _ string) error {
	if _, ok := s.tables[t]; !ok {
		s.tables[t] = nil
		s.order = append(s.order, t)
	}
	return nil
}

func (s *memStore) InsertRecords(_ context.Context, t string, rows []models.RecordRow) (*models.InsertResult, error) {
	res := &models.InsertResult{}
	for _, r := range rows {
		dup := false
		for _, have := range s.tables[t] {
			if have.InventoryID == r.InventoryID || have.Name == r.Name {
				dup = true
				break
			}
		}
		if dup {
			res.Conflicts++
			continue
		}
		s.tables[t] = append(s.tables[t], r)
		res.Inserted++
	}
	return res, nil
}

func (s *memStore) PendingEmbeddings(context.Context, string) ([]models.PendingText, error) {
	return nil, nil
}
func (s *memStore) SetEmbedding(context.Context, string, string, []float32) (bool, error) {
	return false, nil
}
func (s *memStore) PendingTranslations(context.Context, string, bool) ([]models.PendingText, error) {
	return nil, nil
}
func (s *memStore) SetTranslation(context.Context, string, string, string, bool) (bool, error) {
	return false, nil
}
func (s *memStore) SearchNames(context.Context, string, []float32, int) ([]string, error) {
	return nil, nil
}
func (s *memStore) Close() error { return nil }

type staticSource []models.RecordRow

func (s staticSource) Generate(context.Context) ([]models.RecordRow, error) { return s, nil }

type countingEnricher struct{ tables []string }

func (e *countingEnricher) Run(_ context.Context, table string) (models.EnrichmentReport, error) {
	e.tables = append(e.tables, table)
	return models.EnrichmentReport{Embedding: models.PassResult{Done: 2}}, errors.New("translation service down")
}

func twoRows() staticSource {
	return staticSource{
		{InventoryID: "IN0001", Name: "Apple", Description: "Crisp."},
		{InventoryID: "IN0002", Name: "Pear", Description: "Soft."},
	}
}

func TestPopulateSkipsConflicts(t *testing.T) {
	db := newMemStore("Store")
	db.tables["Store"] = []models.RecordRow{{InventoryID: "IN0002", Name: "Plum"}}
	enr := &countingEnricher{}

	rep, err := NewLoader(db, twoRows(), enr, "Demo_Inventory", logger.Nop()).Populate(context.Background(), "Store")
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if rep.Generated != 2 || rep.Inserted != 1 || rep.Conflicts != 1 {
		t.Fatalf("report: got=%+v", rep)
	}
	if rep.RunID == "" || rep.Enrichment.Table != "Store" || rep.Enrichment.Embedding.Done != 2 {
		t.Fatalf("report: got=%+v", rep)
	}
	if len(enr.tables) != 1 {
		t.Fatalf("enrichment runs: want=1 got=%d", len(enr.tables))
	}
}

func TestPopulateRejectsInvalidTable(t *testing.T) {
	_, err := NewLoader(newMemStore(), twoRows(), nil, "Demo_Inventory", logger.Nop()).Populate(context.Background(), "drop table;")
	if !apperr.Is(err, apperr.KindIdentityInvalid) {
		t.Fatalf("want identity_invalid, got=%v", err)
	}
}

func TestLoadAllUsesDefaultTableWhenEmpty(t *testing.T) {
	db := newMemStore()
	reps, err := NewLoader(db, twoRows(), nil, "Demo_Inventory", logger.Nop()).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(reps) != 1 || reps[0].Table != "Demo_Inventory" || len(db.tables["Demo_Inventory"]) != 2 {
		t.Fatalf("reports: got=%+v tables=%v", reps, db.tables)
	}
}

func TestLoadAllPopulatesEveryTable(t *testing.T) {
	db := newMemStore("North", "South")
	reps, err := NewLoader(db, twoRows(), nil, "Demo_Inventory", logger.Nop()).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(reps) != 2 || len(db.tables["North"]) != 2 || len(db.tables["South"]) != 2 {
		t.Fatalf("reports: got=%d tables=%v", len(reps), db.tables)
	}
	if _, ok := db.tables["Demo_Inventory"]; ok {
		t.Fatalf("default table created although tables exist")
	}
}
