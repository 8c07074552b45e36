// Package mssql registers the SQL Server query loader.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/arifinrio95/auto-dashboard/internal/source"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func init() {
	source.Register(source.KindMSSQL, Load)
}

// Load connects with the "sqlserver" driver, runs cfg.Query and returns the
// result. Connectivity is checked with PingContext first.
func Load(ctx context.Context, cfg source.Config) (*table.Table, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}
	return source.QueryDB(ctx, db, cfg.Query, cfg.MaxRows)
}
