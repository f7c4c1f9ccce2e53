package db

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/inventra/internal/core/identity"
	"github.com/markdave123-py/inventra/internal/models"
)

func (c *DatabaseClient) PendingEmbeddings(ctx context.Context, table string) ([]models.PendingText, error) {
	if err := identity.Validate(table); err != nil {
		return nil, err
	}
	return c.pending(ctx, "pending embeddings", pendingEmbeddingsSQL(table))
}

func (c *DatabaseClient) PendingTranslations(ctx context.Context, table string, onlyMissing bool) ([]models.PendingText, error) {
	if err := identity.Validate(table); err != nil {
		return nil, err
	}
	return c.pending(ctx, "pending translations", pendingTranslationsSQL(table, onlyMissing))
}

func (c *DatabaseClient) pending(ctx context.Context, op, q string) ([]models.PendingText, error) {
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var out []models.PendingText
	for rows.Next() {
		var p models.PendingText
		if err := rows.Scan(&p.InventoryID, &p.Text); err != nil {
			return nil, storageErr(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return out, nil
}

// SetEmbedding writes vec only while the row's embedding is still NULL. It returns false when
// another run got there first.
func (c *DatabaseClient) SetEmbedding(ctx context.Context, table, inventoryID string, vec []float32) (bool, error) {
	if err := identity.Validate(table); err != nil {
		return false, err
	}
	res, err := c.db.ExecContext(ctx, setEmbeddingSQL(table), pgvector.NewVector(vec), inventoryID)
	if err != nil {
		return false, storageErr("set embedding", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (c *DatabaseClient) SetTranslation(ctx context.Context, table, inventoryID, text string, onlyMissing bool) (bool, error) {
	if err := identity.Validate(table); err != nil {
		return false, err
	}
	res, err := c.db.ExecContext(ctx, setTranslationSQL(table, onlyMissing), text, inventoryID)
	if err != nil {
		return false, storageErr("set translation", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SearchNames returns up to limit names ordered by ascending cosine distance to queryVec.
func (c *DatabaseClient) SearchNames(ctx context.Context, table string, queryVec []float32, limit int) ([]string, error) {
	if err := identity.Validate(table); err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, searchNamesSQL(table), pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, storageErr("search names", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("search names", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("search names", err)
	}
	return out, nil
}
