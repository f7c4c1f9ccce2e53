package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/core/identity"
	"github.com/markdave123-py/inventra/internal/models"
)

const (
	pgUniqueViolation = "23505"
	pgClassData       = "22" // data exception: bad integer text, out of range, ...
	pgClassIntegrity  = "23" // integrity constraint violation
)

// ReplaceTable drops any existing relation of that name, recreates it and inserts rows, in one
// transaction. Rows the store rejects are rolled back individually and reported; any other
// failure rolls everything back so the previous table (if any) survives untouched.
func (c *DatabaseClient) ReplaceTable(ctx context.Context, table, sourceBlob string, rows []models.RecordRow) (*models.InsertResult, error) {
	if err := identity.Validate(table); err != nil {
		return nil, err
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, storageErr("begin replace", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, lockIdentitySQL, table); err != nil {
		return nil, storageErr("lock table identity", err)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return nil, storageErr("drop table", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table, c.embedDim, false)); err != nil {
		return nil, storageErr("create table", err)
	}
	if _, err := tx.ExecContext(ctx, upsertRegistrySQL, table, sourceBlob); err != nil {
		return nil, storageErr("register table", err)
	}

	res, err := c.insertRows(ctx, tx, table, rows, false)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit replace", err)
	}
	committed = true

	c.log.Info("table replaced", "table", table, "inserted", res.Inserted, "rejected", len(res.Rejected))
	return res, nil
}

// EnsureTable creates the table when missing and registers it. Existing rows are kept.
func (c *DatabaseClient) EnsureTable(ctx context.Context, table, sourceBlob string) error {
	if err := identity.Validate(table); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return storageErr("begin ensure", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, lockIdentitySQL, table); err != nil {
		return storageErr("lock table identity", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table, c.embedDim, true)); err != nil {
		return storageErr("create table", err)
	}
	if _, err := tx.ExecContext(ctx, upsertRegistrySQL, table, sourceBlob); err != nil {
		return storageErr("register table", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit ensure", err)
	}
	return nil
}

// InsertRecords inserts rows with ON CONFLICT DO NOTHING; duplicates are counted, not failed.
func (c *DatabaseClient) InsertRecords(ctx context.Context, table string, rows []models.RecordRow) (*models.InsertResult, error) {
	if err := identity.Validate(table); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &models.InsertResult{}, nil
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, storageErr("begin insert", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := c.insertRows(ctx, tx, table, rows, true)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit insert", err)
	}
	return res, nil
}

// insertRows runs each insert under its own savepoint, so a row the store rejects does not
// abort the surrounding transaction.
func (c *DatabaseClient) insertRows(ctx context.Context, tx *sql.Tx, table string, rows []models.RecordRow, skipConflicts bool) (*models.InsertResult, error) {
	res := &models.InsertResult{}
	if len(rows) == 0 {
		return res, nil
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, skipConflicts))
	if err != nil {
		return nil, storageErr("prepare insert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT row_insert"); err != nil {
			return nil, storageErr("savepoint", err)
		}

		v := row.Values()
		out, err := stmt.ExecContext(ctx, v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8])
		if err != nil {
			failure, ok := rowRejection(row, err)
			if !ok {
				return nil, storageErr("insert row", err)
			}
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT row_insert"); rbErr != nil {
				return nil, storageErr("rollback savepoint", rbErr)
			}
			c.log.Warn("row rejected by store",
				"table", table, "table_index", row.TableIndex, "row_index", row.RowIndex,
				"kind", failure.Kind, "external", false, "error", err)
			res.Rejected = append(res.Rejected, failure)
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT row_insert"); err != nil {
			return nil, storageErr("release savepoint", err)
		}

		if n, _ := out.RowsAffected(); n == 0 {
			res.Conflicts++
			continue
		}
		res.Inserted++
	}
	return res, nil
}

// rowRejection reports whether err is a per-row data or constraint problem, as opposed to a
// connection or server failure that must abort the batch.
func rowRejection(row models.RecordRow, err error) (models.RowFailure, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return models.RowFailure{}, false
	}
	failure := models.RowFailure{
		TableIndex: row.TableIndex,
		RowIndex:   row.RowIndex,
		Reason:     fmt.Sprintf("%s (%s)", pgErr.Message, pgErr.Code),
	}
	switch {
	case pgErr.Code == pgUniqueViolation:
		failure.Kind = string(apperr.KindStorageConflict)
	case pgErr.Code[:2] == pgClassData, pgErr.Code[:2] == pgClassIntegrity:
		failure.Kind = string(apperr.KindRowShape)
	default:
		return models.RowFailure{}, false
	}
	return failure, true
}
