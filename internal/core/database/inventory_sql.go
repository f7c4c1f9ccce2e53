package db

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// quoteIdent quotes a validated table identity. Callers validate with identity.Validate first;
// quoting additionally keeps the relation's case exactly as derived.
func quoteIdent(table string) string {
	return pgx.Identifier{table}.Sanitize()
}

func createTableSQL(table string, dim int, ifNotExists bool) string {
	clause := ""
	if ifNotExists {
		clause = "IF NOT EXISTS "
	}
	return fmt.Sprintf(`
		CREATE TABLE %s%s (
			inventory_id         TEXT NOT NULL,
			name                 TEXT UNIQUE,
			description          TEXT,
			unit_price           TEXT,
			quantity_in_stock    INTEGER,
			inventory_value      TEXT,
			reorder_level        INTEGER,
			reorder_time_in_days INTEGER,
			quantity_in_reorder  INTEGER,
			created_at           TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			embedding            VECTOR(%d),
			spanish_description  TEXT,
			PRIMARY KEY (inventory_id)
		)`, clause, quoteIdent(table), dim)
}

// insertSQL binds integer columns as text and lets the server cast them, so non-numeric
// recognized text is rejected by the store. Blank integer cells become NULL.
func insertSQL(table string, skipConflicts bool) string {
	q := fmt.Sprintf(`
		INSERT INTO %s
			(inventory_id, name, description, unit_price, quantity_in_stock, inventory_value,
			 reorder_level, reorder_time_in_days, quantity_in_reorder)
		VALUES
			($1, $2, $3, $4, NULLIF(btrim($5::text), '')::integer, $6,
			 NULLIF(btrim($7::text), '')::integer, NULLIF(btrim($8::text), '')::integer, NULLIF(btrim($9::text), '')::integer)`,
		quoteIdent(table))
	if skipConflicts {
		q += `
		ON CONFLICT DO NOTHING`
	}
	return q
}

const upsertRegistrySQL = `
	INSERT INTO inventory_tables (table_name, source_blob)
	VALUES ($1, $2)
	ON CONFLICT (table_name) DO UPDATE
	SET source_blob = COALESCE(NULLIF(EXCLUDED.source_blob, ''), inventory_tables.source_blob),
	    updated_at  = now()
`

// lockIdentitySQL serializes create-or-replace of one identity across connections and processes.
const lockIdentitySQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

func pendingEmbeddingsSQL(table string) string {
	return fmt.Sprintf(`
		SELECT inventory_id, COALESCE(description, '')
		FROM %s
		WHERE embedding IS NULL
		ORDER BY inventory_id`, quoteIdent(table))
}

func setEmbeddingSQL(table string) string {
	return fmt.Sprintf(`
		UPDATE %s
		SET embedding = $1
		WHERE inventory_id = $2 AND embedding IS NULL`, quoteIdent(table))
}

func pendingTranslationsSQL(table string, onlyMissing bool) string {
	where := ""
	if onlyMissing {
		where = "WHERE spanish_description IS NULL"
	}
	return fmt.Sprintf(`
		SELECT inventory_id, COALESCE(description, '')
		FROM %s
		%s
		ORDER BY inventory_id`, quoteIdent(table), where)
}

func setTranslationSQL(table string, onlyMissing bool) string {
	q := fmt.Sprintf(`
		UPDATE %s
		SET spanish_description = $1
		WHERE inventory_id = $2`, quoteIdent(table))
	if onlyMissing {
		q += ` AND spanish_description IS NULL`
	}
	return q
}

func searchNamesSQL(table string) string {
	return fmt.Sprintf(`
		SELECT name
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`, quoteIdent(table))
}
