package synthetic

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/core/identity"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

// RecordSource produces rows to load into a table.
type RecordSource interface {
	Generate(ctx context.Context) ([]models.RecordRow, error)
}

const syntheticSource = "synthetic"

// Loader writes generated rows into inventory tables and enriches them.
type Loader struct {
	db           core.DbClient
	source       RecordSource
	enricher     core.Enricher
	defaultTable string
	log          *logger.Logger
}

// NewLoader wires a loader. A nil enricher skips enrichment; defaultTable is used by LoadAll when
// no table is registered yet.
func NewLoader(db core.DbClient, source RecordSource, enricher core.Enricher, defaultTable string, log *logger.Logger) *Loader {
	return &Loader{
		db: db, source: source, enricher: enricher, defaultTable: defaultTable,
		log: log.With("service", "SyntheticLoader"),
	}
}

// Populate generates a fresh dataset for table and inserts it. Rows whose id or name already exist
// are counted as conflicts and skipped.
func (l *Loader) Populate(ctx context.Context, table string) (*models.SyntheticReport, error) {
	if err := identity.Validate(table); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log := l.log.With("run_id", runID, "table", table)

	if err := l.db.EnsureTable(ctx, table, syntheticSource); err != nil {
		log.Error("synthetic load failed", "kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err)
		return nil, err
	}

	rows, err := l.source.Generate(ctx)
	if err != nil {
		log.Error("synthetic generation failed", "kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err)
		return nil, fmt.Errorf("populate %s: %w", table, err)
	}

	res, err := l.db.InsertRecords(ctx, table, rows)
	if err != nil {
		log.Error("synthetic insert failed", "kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err)
		return nil, err
	}
	for _, f := range res.Rejected {
		log.Warn("synthetic row rejected", "row_index", f.RowIndex, "kind", f.Kind, "external", false, "reason", f.Reason)
	}

	rep := &models.SyntheticReport{
		RunID:      runID,
		Table:      table,
		Generated:  len(rows),
		Inserted:   res.Inserted,
		Conflicts:  res.Conflicts,
		Enrichment: models.EnrichmentReport{Table: table},
	}

	if l.enricher != nil {
		enr, err := l.enricher.Run(ctx, table)
		if err != nil {
			log.Warn("enrichment incomplete", "kind", apperr.KindOf(err), "external", apperr.IsExternal(err), "error", err)
		}
		rep.Enrichment = enr
		rep.Enrichment.Table = table
	}

	log.Info("synthetic data loaded", "generated", rep.Generated, "inserted", rep.Inserted, "conflicts", rep.Conflicts)
	return rep, nil
}

// LoadAll populates every registered table, or the default table when none exists yet.
// It stops at the first failure and returns the reports collected so far.
func (l *Loader) LoadAll(ctx context.Context) ([]*models.SyntheticReport, error) {
	tables, err := l.db.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		tables = []string{l.defaultTable}
	}

	reports := make([]*models.SyntheticReport, 0, len(tables))
	for _, t := range tables {
		rep, err := l.Populate(ctx, t)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
