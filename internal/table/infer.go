package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// missingTokens are the raw cell spellings read as missing, compared
// case-insensitively after trimming. They mirror the markers spreadsheet and
// dataframe exports commonly write for empty cells.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
	"#n/a": {},
}

func isMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// InferColumn infers the Kind of a raw string column and converts its cells.
//
// Inference is all-or-nothing per column: a kind is chosen only when every
// non-missing cell parses as that kind. Preference order, most specific
// first:
//
//	numeric (integers) > boolean > date > date-time > numeric (floats) > text
//
// Integers win over booleans so 0/1 columns stay numeric. A column with no
// non-missing cell is KindUnknown and all its values are nil.
//
// The returned layout is the majority time layout for date columns, "" for
// every other kind.
func InferColumn(raw []string) (Kind, string, []Value) {
	var seen bool
	allInt := true
	allFloat := true
	allBool := true
	allDate := true
	allTS := true

	for _, s := range raw {
		if isMissingToken(s) {
			continue
		}
		v := strings.TrimSpace(s)
		seen = true

		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, ok := parseFloatFinite(v); !ok {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := parseBoolLoose(v); !ok {
				allBool = false
			}
		}
		if allDate {
			if _, _, ok := parseDateLoose(v); !ok {
				allDate = false
			}
		}
		if allTS {
			if _, _, ok := parseTimestampLoose(v); !ok {
				allTS = false
			}
		}
		if !allInt && !allFloat && !allBool && !allDate && !allTS {
			break
		}
	}

	out := make([]Value, len(raw))
	if !seen {
		return KindUnknown, "", out
	}

	switch {
	case allInt, allFloat && !allBool && !allDate && !allTS:
		for i, s := range raw {
			if isMissingToken(s) {
				continue
			}
			f, _ := parseFloatFinite(strings.TrimSpace(s))
			out[i] = f
		}
		return KindNumeric, "", out

	case allBool:
		for i, s := range raw {
			if isMissingToken(s) {
				continue
			}
			b, _ := parseBoolLoose(s)
			out[i] = b
		}
		return KindBoolean, "", out

	case allDate, allTS:
		parse := parseDateLoose
		if !allDate {
			parse = parseTimestampLoose
		}
		layout := majorityLayout(raw, parse)
		for i, s := range raw {
			if isMissingToken(s) {
				continue
			}
			v := strings.TrimSpace(s)
			if t, err := time.Parse(layout, v); err == nil {
				out[i] = t
				continue
			}
			t, _, _ := parse(v)
			out[i] = t
		}
		return KindDate, layout, out
	}

	for i, s := range raw {
		if isMissingToken(s) {
			continue
		}
		out[i] = strings.TrimSpace(s)
	}
	return KindText, "", out
}

// majorityLayout picks the most common layout parse reports for the column.
// Ties break toward the layout listed first.
func majorityLayout(raw []string, parse func(string) (time.Time, string, bool)) string {
	counts := map[string]int{}
	for _, s := range raw {
		if isMissingToken(s) {
			continue
		}
		if _, lay, ok := parse(s); ok {
			counts[lay]++
		}
	}

	best := ""
	bestN := 0
	for _, lay := range append(append([]string(nil), dateLayouts...), tsLayouts...) {
		if n := counts[lay]; n > bestN {
			best = lay
			bestN = n
		}
	}
	return best
}

func parseFloatFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseBoolLoose(s string) (bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
}

var tsLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

func parseDateLoose(s string) (time.Time, string, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	return time.Time{}, "", false
}

func parseTimestampLoose(s string) (time.Time, string, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range tsLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	return time.Time{}, "", false
}
