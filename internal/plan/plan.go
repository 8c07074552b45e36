// Package plan turns a model's free-text reply into a validated
// visualization plan.
//
// The reply is untrusted. It is only ever read through data grammars (JSON,
// then YAML flow syntax) and never evaluated. Each chart record is validated
// on its own: a malformed record is dropped with a reason and never fails
// the whole plan.
package plan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ChartSpec is one validated chart suggestion.
type ChartSpec struct {
	ChartType string
	// Columns has at least one entry: x/category first, y/value second.
	Columns []string
	// Aggregation is "" when unset, otherwise one of Aggregations.
	Aggregation string
	// Explanation is used as the chart title.
	Explanation string
}

// Plan is the ordered list of charts to display.
type Plan []ChartSpec

// Rejection records why one candidate record was dropped.
type Rejection struct {
	// Index is the record's position in the parsed list.
	Index  int
	Reason string
}

// Result is the outcome of Parse.
type Result struct {
	Plan Plan
	// Commentary is the trimmed text preceding the list.
	Commentary string
	Rejected   []Rejection
}

// Aggregations is the allow-list of aggregation functions.
var Aggregations = map[string]struct{}{
	"sum":    {},
	"mean":   {},
	"count":  {},
	"min":    {},
	"max":    {},
	"median": {},
}

var aggregationAliases = map[string]string{
	"avg":     "mean",
	"average": "mean",
	"total":   "sum",
}

// NormalizeAggregation lowercases and resolves aliases. ok is false when the
// name is not on the allow-list. Empty input is valid and means unset.
func NormalizeAggregation(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return "", true
	}
	if a, ok := aggregationAliases[s]; ok {
		s = a
	}
	_, ok := Aggregations[s]
	return s, ok
}

// Parse extracts the visualization plan from raw model output.
//
// The candidate list is the substring from the first '[' to the last ']'
// inclusive. It is decoded as strict JSON first. If that fails, it is read
// as a Python-style literal rewritten into YAML flow syntax (backslash
// escapes inside quotes, tuples as lists), and last as plain YAML flow
// syntax. Plain None, True and False are read as null, true and false.
//
// Edge cases:
//   - an empty list returns an empty Plan and no error
//   - records that are not objects, lack chart_type, columns or explanation,
//     carry mistyped values, or name an aggregation outside the allow-list
//     are dropped and listed in Result.Rejected
//
// Errors:
//   - no bracketed span, an unparseable span, or a span that is not a list
//     return *ParseError
func Parse(raw string) (Result, error) {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end < start {
		return Result{}, &ParseError{Reason: "no bracketed list in model output"}
	}
	span := raw[start : end+1]

	items, err := decodeList(span)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Plan:       make(Plan, 0, len(items)),
		Commentary: strings.TrimSpace(raw[:start]),
	}
	for i, item := range items {
		spec, err := decodeRecord(item)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Reason: err.Error()})
			continue
		}
		res.Plan = append(res.Plan, spec)
	}
	return res, nil
}

func decodeList(span string) ([]any, error) {
	var v any
	if jerr := json.Unmarshal([]byte(span), &v); jerr != nil {
		var doc yaml.Node
		if perr := yaml.Unmarshal([]byte(pythonToFlow(span)), &doc); perr != nil {
			doc = yaml.Node{}
			if yerr := yaml.Unmarshal([]byte(span), &doc); yerr != nil {
				return nil, &ParseError{Reason: "list is neither JSON nor a literal", Err: yerr}
			}
		}
		var err error
		v, err = nodeValue(&doc)
		if err != nil {
			return nil, &ParseError{Reason: "decode literal", Err: err}
		}
	}

	items, ok := v.([]any)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("expected a list, got %T", v)}
	}
	return items, nil
}

// pythonToFlow rewrites a Python literal into YAML flow syntax. Quoted
// strings are re-emitted double-quoted with Python escapes resolved, and
// parentheses outside strings become brackets. Nothing is evaluated.
func pythonToFlow(src string) string {
	var b strings.Builder
	b.Grow(len(src) + 16)
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch ch {
		case '(':
			b.WriteByte('[')
		case ')':
			b.WriteByte(']')
		case '\'', '"':
			var lit strings.Builder
			j := i + 1
			for ; j < len(src) && src[j] != ch; j++ {
				if src[j] != '\\' || j+1 == len(src) {
					lit.WriteByte(src[j])
					continue
				}
				j++
				switch src[j] {
				case 'n':
					lit.WriteByte('\n')
				case 't':
					lit.WriteByte('\t')
				case 'r':
					lit.WriteByte('\r')
				case '\\', '\'', '"':
					lit.WriteByte(src[j])
				default:
					lit.WriteByte('\\')
					lit.WriteByte(src[j])
				}
			}
			b.WriteString(strconv.Quote(lit.String()))
			i = j
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// nodeValue converts a YAML node tree into plain Go values. Quoted scalars are
// always strings; plain scalars resolve None/True/False as literal words.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key is not a scalar", k.Line)
			}
			val, err := nodeValue(v)
			if err != nil {
				return nil, err
			}
			out[k.Value] = val
		}
		return out, nil

	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias", n.Line)
		}
		return nodeValue(n.Alias)

	case yaml.ScalarNode:
		if n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
			return n.Value, nil
		}
		switch n.Value {
		case "None", "null", "Null", "NULL", "~", "":
			return nil, nil
		case "True", "true":
			return true, nil
		case "False", "false":
			return false, nil
		}
		switch n.ShortTag() {
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err == nil {
				return f, nil
			}
		}
		return n.Value, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node", n.Line)
}

// record is the wire shape of one chart suggestion.
type record struct {
	ChartType   string   `mapstructure:"chart_type"`
	Columns     []string `mapstructure:"columns"`
	Aggregation *string  `mapstructure:"aggregation"`
	Explanation *string  `mapstructure:"explanation"`
}

func decodeRecord(item any) (ChartSpec, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return ChartSpec{}, fmt.Errorf("record is %T, not an object", item)
	}
	norm := make(map[string]any, len(m))
	for k, v := range m {
		norm[strings.ToLower(strings.TrimSpace(k))] = v
	}

	var rec record
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &rec,
		Metadata: &md,
	})
	if err != nil {
		return ChartSpec{}, err
	}
	if err := dec.Decode(norm); err != nil {
		return ChartSpec{}, fmt.Errorf("decode record: %w", err)
	}

	for _, key := range []string{"chart_type", "columns", "explanation"} {
		if _, ok := norm[key]; !ok {
			return ChartSpec{}, fmt.Errorf("missing required key %q", key)
		}
	}

	spec := ChartSpec{ChartType: strings.TrimSpace(rec.ChartType)}
	if spec.ChartType == "" {
		return ChartSpec{}, fmt.Errorf("chart_type must be a non-empty string")
	}
	if rec.Explanation == nil {
		return ChartSpec{}, fmt.Errorf("explanation must be a string")
	}
	spec.Explanation = strings.TrimSpace(*rec.Explanation)

	if len(rec.Columns) == 0 {
		return ChartSpec{}, fmt.Errorf("columns must be a non-empty list of names")
	}
	for _, c := range rec.Columns {
		c = strings.TrimSpace(c)
		if c == "" {
			return ChartSpec{}, fmt.Errorf("columns contains an empty name")
		}
		spec.Columns = append(spec.Columns, c)
	}

	if rec.Aggregation != nil {
		agg, ok := NormalizeAggregation(*rec.Aggregation)
		if !ok {
			return ChartSpec{}, fmt.Errorf("aggregation %q not in %s", *rec.Aggregation, allowList())
		}
		spec.Aggregation = agg
	}
	return spec, nil
}

func allowList() string {
	names := make([]string, 0, len(Aggregations))
	for k := range Aggregations {
		names = append(names, k)
	}
	sort.Strings(names)
	return "[" + strings.Join(names, " ") + "]"
}
