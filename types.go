package csventity

import "strings"

// Byte-level markers tolerated at the start of a resource or as a whole line
const (
	// byteOrderMark is skipped once if it is the first code point of a resource
	byteOrderMark = '\uFEFF'
	// substituteLine is a line holding only ASCII SUB, left behind by some exporters
	substituteLine = "\x1a"
)

// Row is a named row: column name to raw text value.
type Row map[string]string

// header is the ordered column list of a resource.
type header []string

// newHeader create new header.
func newHeader(h []string) header {
	return header(h)
}

// row zips the header with one line's fields. Fields missing at the end of a
// short line are treated as empty; surplus fields are ignored.
func (h header) row(fields []string) Row {
	r := make(Row, len(h))
	for i, name := range h {
		if i < len(fields) {
			r[name] = fields[i]
		} else {
			r[name] = ""
		}
	}
	return r
}

// values returns the row's values in header order.
func (h header) values(r Row) []string {
	out := make([]string, len(h))
	for i, name := range h {
		out[i] = r[name]
	}
	return out
}

// trimHeader removes surrounding whitespace from each column name.
func trimHeader(fields []string) header {
	h := make(header, len(fields))
	for i, f := range fields {
		h[i] = strings.TrimSpace(f)
	}
	return h
}

// Kind is the declared value kind of a field. Each kind has exactly one
// default converter.
type Kind int

const (
	// KindText is a plain string
	KindText Kind = iota
	// KindInt is a base-10 integer
	KindInt
	// KindFloat is a 64-bit floating point number
	KindFloat
	// KindBool is a boolean written as 1 or 0
	KindBool
	// KindDate is a calendar date (default layout 20060102)
	KindDate
	// KindID is a composite identifier
	KindID
	// KindCustom is a value with a caller supplied converter
	KindCustom
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindID:
		return "id"
	case KindCustom:
		return "custom"
	default:
		return "text"
	}
}

// parseKind maps a configuration string to a Kind.
func parseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string":
		return KindText, true
	case "int", "integer":
		return KindInt, true
	case "float", "real", "double":
		return KindFloat, true
	case "bool", "boolean":
		return KindBool, true
	case "date":
		return KindDate, true
	case "id", "identifier":
		return KindID, true
	default:
		return KindText, false
	}
}

// ID is a composite identifier: a prefix (usually the owning parent's id)
// and a value. Only Value is written to text.
type ID struct {
	Prefix string
	Value  string
}

// String returns prefix_value, or just value when there is no prefix
func (id ID) String() string {
	if id.Prefix == "" {
		return id.Value
	}
	return id.Prefix + "_" + id.Value
}

// IsZero reports whether the id has no value
func (id ID) IsZero() bool {
	return id.Value == ""
}
