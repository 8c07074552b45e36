package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func init() {
	Register(KindJSON, loadJSON)
}

func loadJSON(ctx context.Context, cfg Config) (*table.Table, error) {
	rc, err := open(cfg)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := cfg.MaxBytes
	if limit == 0 {
		limit = table.DefaultMaxBytes
	}
	var r io.Reader = rc
	if limit > 0 {
		r = &limitedReader{r: rc, n: limit}
	}
	return readJSON(ctx, r, cfg.MaxRows)
}

// ReadJSONRecords reads JSON records into a table.
//
// Accepted shapes:
//   - a root array of objects
//   - a root object holding an array of objects (the first such field is
//     used, the other fields are skipped)
//   - a single root object, which becomes one row
//   - any of the above followed by more objects (JSON lines)
//
// Columns are the union of object keys in first-seen order. Missing keys
// and nulls become missing cells, arrays of scalars are joined with ",",
// and nested objects are kept as compact JSON text.
//
// Errors:
//   - malformed JSON, non-object records, no records or more than maxRows
//     records (when maxRows > 0) return *table.InvalidTableError
func ReadJSONRecords(r io.Reader, maxRows int) (*table.Table, error) {
	return readJSON(context.Background(), r, maxRows)
}

var errTooLarge = errors.New("input exceeds the size limit")

// limitedReader fails when the input holds more than n bytes.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		var probe [1]byte
		if n, err := l.r.Read(probe[:]); n == 0 {
			return 0, err
		}
		return 0, errTooLarge
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	return n, err
}

// records accumulates objects in arrival order.
type records struct {
	ctx     context.Context
	maxRows int
	names   []string
	index   map[string]int
	rows    []map[string]any
}

func (rs *records) add(keys []string, obj map[string]any) error {
	if rs.maxRows > 0 && len(rs.rows) >= rs.maxRows {
		return &table.InvalidTableError{Reason: fmt.Sprintf("more than %d records", rs.maxRows)}
	}
	for _, k := range keys {
		if _, ok := rs.index[k]; !ok {
			rs.index[k] = len(rs.names)
			rs.names = append(rs.names, k)
		}
	}
	rs.rows = append(rs.rows, obj)
	return rs.ctx.Err()
}

func (rs *records) table() (*table.Table, error) {
	if len(rs.rows) == 0 || len(rs.names) == 0 {
		return nil, &table.InvalidTableError{Reason: "no JSON records"}
	}
	raw := make([][]string, len(rs.names))
	for c, name := range rs.names {
		col := make([]string, len(rs.rows))
		for r, obj := range rs.rows {
			col[r] = jsonCell(obj[name])
		}
		raw[c] = col
	}
	return table.FromStrings(table.HeaderNames(rs.names), raw)
}

func readJSON(ctx context.Context, r io.Reader, maxRows int) (*table.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	rs := &records{ctx: ctx, maxRows: maxRows, index: map[string]int{}}

	if err := decodeRecords(dec, rs); err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, &table.InvalidTableError{Reason: errTooLarge.Error()}
		}
		var ite *table.InvalidTableError
		if errors.As(err, &ite) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &table.InvalidTableError{Reason: "malformed JSON", Err: err}
	}
	return rs.table()
}

func decodeRecords(dec *json.Decoder, rs *records) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return &table.InvalidTableError{Reason: "input is empty"}
		}
		return err
	}

	switch tok {
	case json.Delim('['):
		if err := decodeArray(dec, rs); err != nil {
			return err
		}
	case json.Delim('{'):
		if err := decodeEnvelopeOrSingle(dec, rs); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported root token %v (want object or array)", tok)
	}
	return decodeTrailing(dec, rs)
}

// decodeArray reads array elements after '[' up to and including ']'.
// null elements are skipped.
func decodeArray(dec *json.Decoder, rs *records) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if tok == nil {
			continue
		}
		if tok != json.Delim('{') {
			return &table.InvalidTableError{Reason: fmt.Sprintf("array element %d is not an object", len(rs.rows)+1)}
		}
		keys, obj, err := readObject(dec)
		if err != nil {
			return err
		}
		if err := rs.add(keys, obj); err != nil {
			return err
		}
	}
	return expectDelim(dec, ']')
}

// decodeEnvelopeOrSingle reads a root object after '{' up to and including
// '}'. The first array-valued field whose elements are objects becomes the
// records; without one the object itself is the only record.
func decodeEnvelopeOrSingle(dec *json.Decoder, rs *records) error {
	var keys []string
	single := map[string]any{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)

		vt, err := dec.Token()
		if err != nil {
			return err
		}
		if vt == json.Delim('[') && !dec.More() {
			// Empty array: keep looking.
			if err := expectDelim(dec, ']'); err != nil {
				return err
			}
			single[key] = []any{}
			keys = append(keys, key)
			continue
		}
		if vt == json.Delim('[') {
			first, err := dec.Token()
			if err != nil {
				return err
			}
			if first == json.Delim('{') {
				k, obj, err := readObject(dec)
				if err != nil {
					return err
				}
				if err := rs.add(k, obj); err != nil {
					return err
				}
				if err := decodeArray(dec, rs); err != nil {
					return err
				}
				for dec.More() {
					if _, err := dec.Token(); err != nil {
						return err
					}
					if _, err := readValue(dec); err != nil {
						return err
					}
				}
				return expectDelim(dec, '}')
			}
			// An array of scalars is a field of the single record.
			arr := []any{}
			v, err := valueFrom(dec, first)
			if err != nil {
				return err
			}
			arr = append(arr, v)
			for dec.More() {
				v, err := readValue(dec)
				if err != nil {
					return err
				}
				arr = append(arr, v)
			}
			if err := expectDelim(dec, ']'); err != nil {
				return err
			}
			single[key] = arr
			keys = append(keys, key)
			continue
		}

		v, err := valueFrom(dec, vt)
		if err != nil {
			return err
		}
		single[key] = v
		keys = append(keys, key)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	return rs.add(keys, single)
}

// decodeTrailing reads further root objects (JSON lines).
func decodeTrailing(dec *json.Decoder, rs *records) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if tok != json.Delim('{') {
			return fmt.Errorf("trailing value %v is not an object", tok)
		}
		keys, obj, err := readObject(dec)
		if err != nil {
			return err
		}
		if err := rs.add(keys, obj); err != nil {
			return err
		}
	}
}

// readObject reads an object after '{' up to and including '}', keeping key
// order.
func readObject(dec *json.Decoder) ([]string, map[string]any, error) {
	var keys []string
	obj := map[string]any{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := kt.(string)
		v, err := readValue(dec)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = v
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return keys, obj, nil
}

func readValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return valueFrom(dec, tok)
}

// valueFrom materializes the value whose first token is tok.
func valueFrom(dec *json.Decoder, tok json.Token) (any, error) {
	switch tok {
	case json.Delim('{'):
		_, obj, err := readObject(dec)
		return obj, err
	case json.Delim('['):
		arr := []any{}
		for dec.More() {
			v, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, expectDelim(dec, ']')
	default:
		return tok, nil
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// jsonCell renders one JSON value as a table cell.
func jsonCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			switch it.(type) {
			case nil:
				continue
			case map[string]any, []any:
				return compactJSON(v)
			}
			parts = append(parts, jsonCell(it))
		}
		return strings.Join(parts, ",")
	default:
		return compactJSON(v)
	}
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
