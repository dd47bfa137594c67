// Package records defines the loosely-typed row shape shared by the raw
// readers (CSV files, spreadsheet sheets, stream messages) before rows are
// decoded into the typed warehouse inputs.
package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Record is a single raw row keyed by normalized column name. Values are
// usually strings; nil marks an empty cell.
type Record map[string]any

// String returns the value of key as a trimmed string. Missing keys and nil
// values yield ("", false).
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case []byte:
		return strings.TrimSpace(string(t)), true
	default:
		return fmt.Sprint(t), true
	}
}

// Int64 returns the value of key as an integer. Spreadsheet cells often carry
// integral numbers as "12.0"; those are accepted when they have no fraction.
func (r Record) Int64(key string) (int64, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("column %q: missing value", key)
	}
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("column %q: %v is not integral", key, t)
		}
		return int64(t), nil
	}
	s, _ := r.String(key)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("column %q: %q is not an integer", key, s)
	}
	return int64(f), nil
}

// Float64 returns the value of key as a float.
func (r Record) Float64(key string) (float64, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("column %q: missing value", key)
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	}
	s, _ := r.String(key)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %q is not a number", key, s)
	}
	return f, nil
}

// Has reports whether key is present, regardless of its value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

const utf8BOM = "\uFEFF"

// Key folds a header cell or configured column name into the form records
// are keyed by: BOM and surrounding space removed, accents stripped,
// lowercased, runs of space, '-' and '.' collapsed to '_'.
//
//	Key("\uFEFFpartId")   == "partid"
//	Key("Time To Produce") == "time_to_produce"
func Key(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, utf8BOM))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		switch r {
		case ' ', '-', '.', '_':
			if !sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = true
		default:
			b.WriteRune(r)
			sep = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// Keys folds a header row with Key. A header whose folded form matches a
// folded key of renames is replaced by that entry's value first, so
// {"Materials": "meterials"} also catches "materials " and "MATERIALS".
func Keys(headers []string, renames map[string]string) []string {
	folded := make(map[string]string, len(renames))
	for from, to := range renames {
		folded[Key(from)] = to
	}
	out := make([]string, len(headers))
	for i, h := range headers {
		k := Key(h)
		if to, ok := folded[k]; ok {
			k = Key(to)
		}
		out[i] = k
	}
	return out
}
