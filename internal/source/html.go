package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func init() {
	Register(KindHTML, loadHTML)
}

func loadHTML(_ context.Context, cfg Config) (*table.Table, error) {
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

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, &table.InvalidTableError{Reason: errTooLarge.Error()}
		}
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return tableFromDocument(doc, cfg.Selector, cfg.MaxRows)
}

// ReadHTMLTable parses html and returns the first table matched by selector
// ("table" when empty).
func ReadHTMLTable(html, selector string) (*table.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return tableFromDocument(doc, selector, 0)
}

// tableFromDocument extracts the first matched table.
//
// The header is the thead row when present, else the first row. Data rows
// whose cell count differs from the header are skipped, like misaligned CSV
// rows. Cell text is trimmed and type inference runs on the result.
func tableFromDocument(doc *goquery.Document, selector string, maxRows int) (*table.Table, error) {
	if strings.TrimSpace(selector) == "" {
		selector = "table"
	}
	tbl := doc.Find(selector).First()
	if tbl.Length() == 0 {
		return nil, &table.InvalidTableError{Reason: fmt.Sprintf("no element matches %q", selector)}
	}

	rows := tbl.Find("tr")
	if rows.Length() == 0 {
		return nil, &table.InvalidTableError{Reason: "table has no rows"}
	}

	headerRow := tbl.Find("thead tr").First()
	if headerRow.Length() == 0 {
		headerRow = rows.First()
	}
	header := cellTexts(headerRow)
	if len(header) == 0 {
		return nil, &table.InvalidTableError{Reason: "table header has no cells"}
	}

	raw := make([][]string, len(header))
	var rowErr error
	n := 0
	rows.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if tr.IsSelection(headerRow) {
			return true
		}
		cells := cellTexts(tr)
		if len(cells) != len(header) {
			return true
		}
		if maxRows > 0 && n >= maxRows {
			rowErr = &table.InvalidTableError{Reason: fmt.Sprintf("more than %d rows", maxRows)}
			return false
		}
		for i, c := range cells {
			raw[i] = append(raw[i], c)
		}
		n++
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return table.FromStrings(table.HeaderNames(header), raw)
}

func cellTexts(tr *goquery.Selection) []string {
	var out []string
	tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		out = append(out, strings.Join(strings.Fields(cell.Text()), " "))
	})
	return out
}
