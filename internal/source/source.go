// Package source loads the table for one dashboard run from a CSV upload, a
// JSON records file, an HTML page or a SQL query.
//
// Loaders register themselves under a kind from init functions, the same way
// the SQL backends in the subpackages do. Callers pick a kind explicitly or
// let Detect choose from the DSN scheme or file extension.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// Source kinds.
const (
	KindCSV      = "csv"
	KindHTML     = "html"
	KindJSON     = "json"
	KindPostgres = "postgres"
	KindMSSQL    = "mssql"
	KindSQLite   = "sqlite"
)

// Config describes where a table comes from.
//
// File kinds read Reader when it is non-nil, else Path. SQL kinds run Query
// against DSN.
type Config struct {
	Kind   string
	Path   string
	Reader io.Reader

	DSN   string
	Query string

	// Selector picks the HTML table (CSS selector). Default "table".
	Selector string

	// Charset, Comma and MaxBytes are passed to table.ReadCSV. MaxBytes also
	// bounds JSON and HTML input.
	Charset  string
	Comma    rune
	MaxBytes int64

	// MaxRows bounds SQL, HTML and JSON results. 0 means unlimited.
	MaxRows int
}

// Loader builds a table from cfg.
type Loader func(ctx context.Context, cfg Config) (*table.Table, error)

var (
	mu      sync.RWMutex
	loaders = map[string]Loader{}
)

// Register makes a loader available under kind.
//
// When to use:
//   - Call Register from an init() function in a loader package.
//
// Panics:
//   - If kind is empty.
//   - If l is nil.
//   - If kind is already registered.
func Register(kind string, l Loader) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("source: Register called with empty kind")
	}
	if l == nil {
		panic("source: Register called with nil loader")
	}
	if _, exists := loaders[kind]; exists {
		panic(fmt.Sprintf("source: loader already registered for kind=%q", kind))
	}
	loaders[kind] = l
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(loaders))
	for k := range loaders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load resolves cfg.Kind (see Detect) and runs the registered loader.
//
// Errors:
//   - every failure is returned as *LoadError; loader errors such as
//     *table.InvalidTableError stay reachable through errors.As
func Load(ctx context.Context, cfg Config) (*table.Table, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = Detect(cfg)
	}
	if kind == "" {
		return nil, &LoadError{Err: fmt.Errorf("no input: set a file or a DSN")}
	}

	mu.RLock()
	l := loaders[kind]
	mu.RUnlock()

	if l == nil {
		return nil, &LoadError{Kind: kind, Err: fmt.Errorf("unsupported source kind (registered: %s)", strings.Join(Kinds(), ", "))}
	}

	t, err := l(ctx, cfg)
	if err != nil {
		return nil, &LoadError{Kind: kind, Err: err}
	}
	return t, nil
}

// Detect guesses the kind: a DSN selects a SQL backend by scheme, otherwise
// .html/.htm files are HTML and everything else is CSV. It returns "" when
// cfg names no input at all.
func Detect(cfg Config) string {
	if strings.TrimSpace(cfg.DSN) != "" {
		return KindFromDSN(cfg.DSN)
	}
	if cfg.Path == "" && cfg.Reader == nil {
		return ""
	}
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".html", ".htm":
		return KindHTML
	case ".json", ".jsonl", ".ndjson":
		return KindJSON
	default:
		return KindCSV
	}
}

// open returns cfg.Reader or the file at cfg.Path. The caller closes.
func open(cfg Config) (io.ReadCloser, error) {
	if cfg.Reader != nil {
		return io.NopCloser(cfg.Reader), nil
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("no input file")
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	return f, nil
}
