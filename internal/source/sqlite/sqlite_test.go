package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arifinrio95/auto-dashboard/internal/source"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE sales (region TEXT, units INTEGER, price REAL, day TEXT)`,
		`INSERT INTO sales VALUES ('EU', 3, 9.5, '2024-01-01'), ('US', 5, NULL, '2024-01-02'), ('EU', 7, 11.25, '2024-01-03')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

// TestQueryDB_InMemory verifies a query result becomes a typed table.
func TestQueryDB_InMemory(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	seed(t, db)

	tbl, err := QueryDB(context.Background(), db, source.Config{Query: "SELECT region, units, price, day FROM sales ORDER BY day"})
	if err != nil {
		t.Fatalf("QueryDB: %v", err)
	}
	if tbl.NumRows() != 3 || strings.Join(tbl.Names(), ",") != "region,units,price,day" {
		t.Fatalf("shape = %d rows %v", tbl.NumRows(), tbl.Names())
	}

	wantKinds := map[string]table.Kind{
		"region": table.KindText,
		"units":  table.KindNumeric,
		"price":  table.KindNumeric,
		"day":    table.KindDate,
	}
	for name, want := range wantKinds {
		c, _ := tbl.Column(name)
		if c.Kind != want {
			t.Fatalf("%s kind = %s, want %s", name, c.Kind, want)
		}
	}
	price, _ := tbl.Column("price")
	if price.Values[1] != nil {
		t.Fatalf("NULL price = %#v, want nil", price.Values[1])
	}
}

// TestLoad_FileDSN verifies the registered loader end to end, including the
// row bound.
func TestLoad_FileDSN(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sales.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seed(t, db)
	_ = db.Close()

	ctx := context.Background()
	tbl, err := source.Load(ctx, source.Config{DSN: "file:" + path, Query: "SELECT * FROM sales"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.NumRows())
	}

	_, err = source.Load(ctx, source.Config{DSN: "file:" + path, Query: "SELECT * FROM sales", MaxRows: 2})
	var ite *table.InvalidTableError
	if !errors.As(err, &ite) {
		t.Fatalf("MaxRows err = %v, want *table.InvalidTableError", err)
	}

	_, err = source.Load(ctx, source.Config{DSN: "file:" + path})
	var le *source.LoadError
	if !errors.As(err, &le) || !strings.Contains(err.Error(), "missing query") {
		t.Fatalf("no query err = %v", err)
	}

	_, err = source.Load(ctx, source.Config{DSN: "file:" + path, Query: "SELECT * FROM nope"})
	if err == nil {
		t.Fatalf("bad table: err = nil")
	}
}
