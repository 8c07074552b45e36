package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/arifinrio95/auto-dashboard/internal/config"
	"github.com/arifinrio95/auto-dashboard/internal/dashboard"
	"github.com/arifinrio95/auto-dashboard/internal/source"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// sourceFlags selects the input table: a file (--input) or a SQL query
// (--dsn/--backend with --query).
type sourceFlags struct {
	input    string
	dsn      string
	backend  string
	query    string
	selector string
	charset  string
	comma    string
}

func (f *sourceFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.input, "input", "i", "", "input file: CSV, JSON records (.json, .jsonl) or an HTML page holding a table")
	fs.StringVar(&f.dsn, "dsn", "", "database DSN (postgres://, sqlserver://, file: or a SQLite path)")
	fs.StringVar(&f.backend, "backend", "", "database backend when the DSN comes from DSN_* env vars: postgres, mssql or sqlite")
	fs.StringVarP(&f.query, "query", "q", "", "SQL query producing the table (with --dsn or --backend)")
	fs.StringVar(&f.selector, "selector", "", "CSS selector of the HTML table (default: first table)")
	fs.StringVar(&f.charset, "charset", "", "input charset: windows-1250, iso-8859-2, windows-1252, iso-8859-1 (default UTF-8)")
	fs.StringVar(&f.comma, "comma", "", "CSV field delimiter (default ',')")
}

// config turns the flags into a source configuration.
func (f *sourceFlags) config(limits config.Limits) (source.Config, error) {
	cfg := source.Config{
		Path:     strings.TrimSpace(f.input),
		Query:    f.query,
		Selector: f.selector,
		Charset:  f.charset,
		MaxBytes: limits.MaxUploadBytes,
		MaxRows:  limits.MaxRows,
	}

	switch r := []rune(f.comma); len(r) {
	case 0:
	case 1:
		cfg.Comma = r[0]
	default:
		if f.comma == `\t` {
			cfg.Comma = '\t'
			break
		}
		return source.Config{}, fmt.Errorf("--comma: want a single character, got %q", f.comma)
	}

	if f.dsn != "" || f.backend != "" {
		if cfg.Path != "" {
			return source.Config{}, errors.New("--input and --dsn/--backend are mutually exclusive")
		}
		dsn, ok, err := source.ResolveDSN(f.backend, f.dsn)
		if err != nil {
			return source.Config{}, err
		}
		if !ok {
			return source.Config{}, fmt.Errorf("no DSN for backend %q: set --dsn, DSN or DSN_HOST/DSN_DB", f.backend)
		}
		cfg.DSN = dsn
		if k := source.NormalizeBackend(f.backend); k != "" {
			cfg.Kind = k
		}
	}
	if cfg.Path == "" && cfg.DSN == "" {
		return source.Config{}, errors.New("no input: set --input or --dsn")
	}
	return cfg, nil
}

// title names the report after the input.
func (f *sourceFlags) title() string {
	if f.input != "" {
		return filepath.Base(f.input)
	}
	return "Query result"
}

func loader(cfg source.Config) dashboard.Loader {
	return func(ctx context.Context) (*table.Table, error) {
		return source.Load(ctx, cfg)
	}
}
