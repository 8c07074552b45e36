// Command autodash builds a dashboard for a table: it profiles the data,
// asks a model which charts are worth drawing and renders them.
//
//	autodash render --input sales.csv --out report.html
//	autodash render --dsn postgres://localhost/shop --query 'select * from orders' --filter region=EU,US
//	autodash serve --addr :8080
//	autodash profile --input sales.csv
//
// Configuration is layered: built-in defaults, an optional --config file
// (JSON or YAML), environment variables (ANTHROPIC_API_KEY, AUTODASH_*,
// METRICS_*, DD_*), then flags.
package main

import (
	"fmt"
	"os"

	// SQL sources register themselves with the source registry.
	_ "github.com/arifinrio95/auto-dashboard/internal/source/mssql"
	_ "github.com/arifinrio95/auto-dashboard/internal/source/postgres"
	_ "github.com/arifinrio95/auto-dashboard/internal/source/sqlite"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "autodash: %v\n", err)
		os.Exit(1)
	}
}
