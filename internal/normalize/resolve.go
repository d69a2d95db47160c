// Package normalize turns raw report rows into stable store and review
// records. Every output field is resolved through an ordered table of
// candidate paths, so the handling of upstream shape drift lives in data
// rather than in nested conditionals.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one raw upstream row.
type Record = map[string]any

// Path addresses a value nested in a Record, one key per level.
type Path []string

// P builds a Path from a dotted string such as "Address.city".
func P(dotted string) Path {
	return Path(strings.Split(dotted, "."))
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Lookup returns the value at p, or false when any level is missing or
// is not an object.
func (p Path) Lookup(rec Record) (any, bool) {
	var cur any = rec
	for _, key := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Candidates is an ordered precedence list; earlier paths win.
type Candidates []Path

// Paths builds Candidates from dotted strings.
func Paths(dotted ...string) Candidates {
	c := make(Candidates, len(dotted))
	for i, d := range dotted {
		c[i] = P(d)
	}
	return c
}

// Coerce converts a raw value to T, reporting false when the value is not
// usable as a T. Empty values must report false so resolution moves on.
type Coerce[T any] func(v any) (T, bool)

// First returns the first candidate whose value coerces to T.
func First[T any](rec Record, c Candidates, coerce Coerce[T]) (T, bool) {
	for _, path := range c {
		v, ok := path.Lookup(rec)
		if !ok {
			continue
		}
		if out, ok := coerce(v); ok {
			return out, true
		}
	}
	var zero T
	return zero, false
}

// FirstOr is First with a default for when no candidate resolves.
func FirstOr[T any](rec Record, c Candidates, coerce Coerce[T], def T) T {
	if v, ok := First(rec, c, coerce); ok {
		return v
	}
	return def
}

// AsString accepts non-blank strings and scalars with a natural text form.
func AsString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return "", false
		}
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case json.Number:
		return s.String(), s != ""
	default:
		return "", false
	}
}

// AsFloat accepts finite numbers and numeric strings.
func AsFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsInt accepts integral numbers and integral numeric strings.
func AsInt(v any) (int, bool) {
	f, ok := AsFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// AsURLs accepts a URL string, a file object, or a list of either. File
// objects carry their link under download_url, url or value.
func AsURLs(v any) ([]string, bool) {
	var out []string
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if u, ok := fileURL(item); ok {
				out = append(out, u)
			}
		}
	default:
		if u, ok := fileURL(x); ok {
			out = append(out, u)
		}
	}
	return out, len(out) > 0
}

var fileURLKeys = Paths("download_url", "url", "value")

func fileURL(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return AsString(x)
	case map[string]any:
		return First(x, fileURLKeys, AsString)
	default:
		return "", false
	}
}

// Rule pairs candidate paths with the coercion applied to them.
type Rule[T any] struct {
	Paths  Candidates
	Coerce Coerce[T]
}

// Table is an ordered list of rules for one output field.
type Table[T any] []Rule[T]

// Resolve returns the first value any rule produces, in table order.
func (t Table[T]) Resolve(rec Record) (T, bool) {
	for _, rule := range t {
		if v, ok := First(rec, rule.Paths, rule.Coerce); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ResolveOr is Resolve with a default.
func (t Table[T]) ResolveOr(rec Record, def T) T {
	if v, ok := t.Resolve(rec); ok {
		return v
	}
	return def
}

// Strings builds a single-rule string table from dotted paths.
func Strings(dotted ...string) Table[string] {
	return Table[string]{{Paths: Paths(dotted...), Coerce: AsString}}
}

// AsPersonName joins the first_name and last_name of a name object.
func AsPersonName(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	var parts []string
	for _, key := range []string{"prefix", "first_name", "last_name", "suffix"} {
		if s, ok := AsString(m[key]); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), len(parts) > 0
}
