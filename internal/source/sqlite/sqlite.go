// Package sqlite registers the SQLite query loader (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/arifinrio95/auto-dashboard/internal/source"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func init() {
	source.Register(source.KindSQLite, Load)
}

// Load opens cfg.DSN, runs cfg.Query and returns the result.
func Load(ctx context.Context, cfg source.Config) (*table.Table, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	return QueryDB(ctx, db, cfg)
}

// QueryDB runs cfg.Query on an open database.
func QueryDB(ctx context.Context, db *sql.DB, cfg source.Config) (*table.Table, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return source.QueryDB(ctx, db, cfg.Query, cfg.MaxRows)
}
