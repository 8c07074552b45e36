package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultMaxBytes bounds how much input ReadCSV accepts when
// ReadOptions.MaxBytes is zero.
const DefaultMaxBytes int64 = 32 << 20

// ReadOptions controls ReadCSV.
type ReadOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// Charset names a legacy single-byte encoding of the input
	// ("windows-1250", "iso-8859-2", "windows-1252"). Empty means UTF-8.
	Charset string
	// MaxBytes is the largest accepted input. Zero means DefaultMaxBytes,
	// negative disables the limit.
	MaxBytes int64
	// OnSkip, when set, is called for every data row dropped because its
	// field count does not match the header. line is 1-based and counts the
	// header row.
	OnSkip func(line int, err error)
}

// ErrFieldCount is passed to ReadOptions.OnSkip for misaligned rows.
var ErrFieldCount = errors.New("wrong number of fields")

// LookupCharset maps a charset name onto its decoder. The empty name and
// "utf-8" return a nil encoding.
func LookupCharset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1250", "cp1250":
		return charmap.Windows1250, nil
	case "iso-8859-2", "latin2":
		return charmap.ISO8859_2, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
}

// ReadCSV reads a delimited file with a header row into a typed Table.
//
// The first record defines the column names. Names are trimmed; blank names
// become "unnamed_<index>" and repeated names get a ".1", ".2" suffix so
// every column stays addressable. A leading UTF-8 BOM is dropped.
//
// Data rows whose field count differs from the header are skipped (reported
// through OnSkip); parsing is otherwise strict about quoting only where
// encoding/csv cannot recover with LazyQuotes.
//
// Errors:
//   - empty input, a missing header, input over MaxBytes or a CSV syntax
//     error return *InvalidTableError.
func ReadCSV(r io.Reader, opt ReadOptions) (*Table, error) {
	limit := opt.MaxBytes
	if limit == 0 {
		limit = DefaultMaxBytes
	}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &InvalidTableError{Reason: "read input", Err: err}
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, &InvalidTableError{Reason: fmt.Sprintf("input exceeds %d bytes", limit)}
	}

	enc, err := LookupCharset(opt.Charset)
	if err != nil {
		return nil, &InvalidTableError{Reason: "decode input", Err: err}
	}
	if enc != nil {
		data, _, err = transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			return nil, &InvalidTableError{Reason: "decode input", Err: err}
		}
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &InvalidTableError{Reason: "input is empty"}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, &InvalidTableError{Reason: "read header", Err: err}
	}
	names := HeaderNames(header)

	raw := make([][]string, len(names))
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &InvalidTableError{Reason: fmt.Sprintf("line %d", line), Err: err}
		}
		if len(rec) != len(names) {
			// Whitespace-only line.
			if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
				continue
			}
			if opt.OnSkip != nil {
				opt.OnSkip(line, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(rec), len(names)))
			}
			continue
		}
		for i, v := range rec {
			raw[i] = append(raw[i], v)
		}
	}

	return FromStrings(names, raw)
}

// FromStrings builds a typed table from raw string columns, inferring each
// column's kind with InferColumn. names and raw must have the same length
// and every raw column the same number of cells.
func FromStrings(names []string, raw [][]string) (*Table, error) {
	if len(names) != len(raw) {
		return nil, &InvalidTableError{
			Reason: fmt.Sprintf("%d names for %d columns", len(names), len(raw)),
		}
	}
	cols := make([]Column, len(names))
	for i, name := range names {
		kind, layout, vals := InferColumn(raw[i])
		cols[i] = Column{Name: name, Kind: kind, Layout: layout, Values: vals}
	}
	return New(cols)
}

// HeaderNames trims header cells and makes them unique and non-empty.
func HeaderNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}
		if used[name] {
			for n := 1; ; n++ {
				cand := fmt.Sprintf("%s.%d", name, n)
				if !used[cand] {
					name = cand
					break
				}
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}
