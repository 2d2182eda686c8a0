package catalog

import (
	"strconv"
	"strings"
)

// Record is a catalog book record. The catalog returns loosely shaped JSON,
// so fields are kept as-is and read through accessors.
type Record map[string]any

// ISBN returns the record's unique identifier (isbn13, falling back to isbn).
// An empty result means the record is unresolved.
func (r Record) ISBN() string {
	if isbn := r.String("isbn13"); isbn != "" {
		return isbn
	}
	return r.String("isbn")
}

// Resolved reports whether the record carries an identifier.
func (r Record) Resolved() bool {
	return r.ISBN() != ""
}

func (r Record) Name() string      { return r.String("bookname") }
func (r Record) Authors() string   { return r.String("authors") }
func (r Record) Publisher() string { return r.String("publisher") }
func (r Record) Year() string      { return r.String("publication_year") }
func (r Record) ImageURL() string  { return r.String("bookImageURL") }

// SetImageURL writes the cover image URL onto the record in place.
func (r Record) SetImageURL(u string) {
	r["bookImageURL"] = u
}

// String returns a field as a trimmed string. Numbers are formatted without
// exponent so numeric ISBNs survive.
func (r Record) String(key string) string {
	if r == nil {
		return ""
	}
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
