package table

import (
	"testing"
	"time"
)

//
// parseBoolLoose
//

// TestParseBoolLoose verifies permissive boolean parsing.
//
// The parser must accept common truthy/falsy encodings while rejecting
// ambiguous values. It is case-insensitive and whitespace-tolerant.
func TestParseBoolLoose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		ok    bool
		value bool
	}{
		{"true literal", "true", true, true},
		{"false literal", "false", true, false},
		{"numeric true", "1", true, true},
		{"numeric false", "0", true, false},
		{"yes", "yes", true, true},
		{"no", "no", true, false},
		{"upper case", "TRUE", true, true},
		{"with spaces", "  false  ", true, false},
		{"invalid", "maybe", false, false},
		{"empty", "", false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseBoolLoose(tt.in)
			if ok != tt.ok || got != tt.value {
				t.Fatalf("parseBoolLoose(%q) = (%v,%v), want (%v,%v)", tt.in, got, ok, tt.value, tt.ok)
			}
		})
	}
}

//
// InferColumn
//

// TestInferColumn_Kinds verifies the per-column kind decision.
//
// Rules validated:
//   - integers beat booleans (0/1 columns stay numeric)
//   - floats are numeric but lose to every more specific kind
//   - one unparseable cell demotes the column to text
//   - missing markers never influence the decision
//   - a column of only missing cells is KindUnknown
func TestInferColumn_Kinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []string
		want Kind
	}{
		{"integers", []string{"1", "2", "30"}, KindNumeric},
		{"zero one stays numeric", []string{"0", "1", "1"}, KindNumeric},
		{"floats", []string{"1.5", "2", "-3e2"}, KindNumeric},
		{"booleans", []string{"yes", "no", "Y"}, KindBoolean},
		{"iso dates", []string{"2024-01-02", "2024-02-03"}, KindDate},
		{"timestamps", []string{"2024-01-02 10:00:00", "2024-01-03 11:30:00"}, KindDate},
		{"mixed becomes text", []string{"1", "two", "3"}, KindText},
		{"missing markers ignored", []string{"1", "NA", "", "null", "4"}, KindNumeric},
		{"all missing", []string{"", "NaN", "None"}, KindUnknown},
		{"infinity is text", []string{"inf", "1"}, KindText},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _, vals := InferColumn(tt.raw)
			if got != tt.want {
				t.Fatalf("InferColumn(%q) kind = %v, want %v", tt.raw, got, tt.want)
			}
			if len(vals) != len(tt.raw) {
				t.Fatalf("InferColumn(%q) returned %d values, want %d", tt.raw, len(vals), len(tt.raw))
			}
		})
	}
}

// TestInferColumn_Values verifies cell conversion for each kind, including
// that missing markers become nil and text is trimmed.
func TestInferColumn_Values(t *testing.T) {
	t.Parallel()

	_, _, nums := InferColumn([]string{" 4 ", "NA", "2.5"})
	if nums[0] != 4.0 || nums[1] != nil || nums[2] != 2.5 {
		t.Fatalf("numeric values = %#v", nums)
	}

	_, _, texts := InferColumn([]string{" a ", "", "b"})
	if texts[0] != "a" || texts[1] != nil || texts[2] != "b" {
		t.Fatalf("text values = %#v", texts)
	}

	kind, layout, dates := InferColumn([]string{"02.01.2024", "15.03.2024"})
	if kind != KindDate || layout != "02.01.2006" {
		t.Fatalf("kind/layout = %v/%q, want date/02.01.2006", kind, layout)
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got, ok := dates[0].(time.Time); !ok || !got.Equal(want) {
		t.Fatalf("dates[0] = %#v, want %v", dates[0], want)
	}
}
