package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/inventra/internal/config"
	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/logger"
)

type DatabaseClient struct {
	db       *sql.DB
	embedDim int
	log      *logger.Logger
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if cfg.EmbedDim <= 0 {
		return nil, fmt.Errorf("EMBED_DIM must be positive, got %d", cfg.EmbedDim)
	}

	dsn, err := withSSL(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// Ensure bootstrap once
	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db, embedDim: cfg.EmbedDim, log: log.With("service", "DatabaseClient")}, nil
}

// withSSL appends verify-ca parameters when a root certificate is configured.
func withSSL(databaseURL, certPath string) (string, error) {
	if certPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(certPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", certPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", certPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Table registry

func (c *DatabaseClient) ListTables(ctx context.Context) ([]string, error) {
	const q = `SELECT table_name FROM inventory_tables ORDER BY table_name`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storageErr("list tables", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("list tables", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list tables", err)
	}
	return out, nil
}

func (c *DatabaseClient) CountTables(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory_tables`).Scan(&n); err != nil {
		return 0, storageErr("count tables", err)
	}
	return n, nil
}

func (c *DatabaseClient) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT EXISTS (SELECT 1 FROM inventory_tables WHERE table_name = $1)
		       AND to_regclass($2) IS NOT NULL
	`
	var ok bool
	if err := c.db.QueryRowContext(ctx, q, table, quoteIdent(table)).Scan(&ok); err != nil {
		return false, storageErr("table exists", err)
	}
	return ok, nil
}

func storageErr(op string, err error) error {
	return apperr.External(apperr.KindStorage, op, err)
}
