package source

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// FromRecords builds a table from driver values, one []any per row.
//
// Values are rendered to text with CellString and typed by the same
// inference the CSV reader uses, so a SQL result and the equivalent CSV
// export profile identically.
func FromRecords(names []string, rows [][]any) (*table.Table, error) {
	raw := make([][]string, len(names))
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, &table.InvalidTableError{Reason: fmt.Sprintf("row %d has %d values, want %d", r+1, len(row), len(names))}
		}
		for i, v := range row {
			raw[i] = append(raw[i], CellString(v))
		}
	}
	return table.FromStrings(table.HeaderNames(names), raw)
}

// CellString converts one driver value to its canonical text form.
// nil becomes "" (missing). Times with no clock part render as dates.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return ""
		}
		if _, again := dv.(driver.Valuer); again {
			return strings.TrimSpace(fmt.Sprint(dv))
		}
		return CellString(dv)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// QueryDB runs query on db and converts the result with FromRecords.
// maxRows > 0 bounds the result; more rows is an error.
func QueryDB(ctx context.Context, db *sql.DB, query string, maxRows int) (*table.Table, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("missing query")
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		if maxRows > 0 && len(out) >= maxRows {
			return nil, &table.InvalidTableError{Reason: fmt.Sprintf("more than %d rows", maxRows)}
		}
		vals := make([]any, len(names))
		dests := make([]any, len(names))
		for i := range vals {
			dests[i] = &vals[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out)+1, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return FromRecords(names, out)
}
