/*
Package postgres registers the PostgreSQL query loader.

It uses a pgx connection pool directly rather than database/sql so values
arrive as pgx's native Go types; source.CellString renders them (pgtype
numerics through their driver.Valuer).
*/
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arifinrio95/auto-dashboard/internal/source"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func init() {
	source.Register(source.KindPostgres, Load)
}

// Load runs cfg.Query against cfg.DSN.
func Load(ctx context.Context, cfg source.Config) (*table.Table, error) {
	if strings.TrimSpace(cfg.Query) == "" {
		return nil, fmt.Errorf("missing query")
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, cfg.Query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return collect(rows, cfg.MaxRows)
}

func collect(rows pgx.Rows, maxRows int) (*table.Table, error) {
	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	var out [][]any
	for rows.Next() {
		if maxRows > 0 && len(out) >= maxRows {
			return nil, &table.InvalidTableError{Reason: fmt.Sprintf("more than %d rows", maxRows)}
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out)+1, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return source.FromRecords(names, out)
}
