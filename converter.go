package csventity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayout is the text layout of KindDate values
const DefaultDateLayout = "20060102"

// Converter converts between the text of one column and a typed value.
type Converter[V any] interface {
	// Parse converts non-empty column text to a value
	Parse(ctx *Context, text string) (V, error)
	// Format converts a value to column text
	Format(ctx *Context, value V) (string, error)
}

// converterFuncs adapts a pair of functions to Converter
type converterFuncs[V any] struct {
	parse  func(ctx *Context, text string) (V, error)
	format func(ctx *Context, value V) (string, error)
}

// Parse implements Converter
func (c converterFuncs[V]) Parse(ctx *Context, text string) (V, error) {
	return c.parse(ctx, text)
}

// Format implements Converter
func (c converterFuncs[V]) Format(ctx *Context, value V) (string, error) {
	return c.format(ctx, value)
}

// NewConverter builds a Converter from a parse and a format function
func NewConverter[V any](parse func(ctx *Context, text string) (V, error), format func(ctx *Context, value V) (string, error)) Converter[V] {
	return converterFuncs[V]{parse: parse, format: format}
}

// textConverter passes text through unchanged
type textConverter struct{}

func (textConverter) Parse(_ *Context, text string) (string, error) {
	return text, nil
}

func (textConverter) Format(_ *Context, value string) (string, error) {
	return value, nil
}

// intConverter handles KindInt
type intConverter struct{}

func (intConverter) Parse(_ *Context, text string) (int, error) {
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrSchemaViolation, text)
	}
	return v, nil
}

func (intConverter) Format(_ *Context, value int) (string, error) {
	return strconv.Itoa(value), nil
}

// floatConverter handles KindFloat
type floatConverter struct{}

func (floatConverter) Parse(_ *Context, text string) (float64, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrSchemaViolation, text)
	}
	return v, nil
}

func (floatConverter) Format(_ *Context, value float64) (string, error) {
	return strconv.FormatFloat(value, 'f', -1, 64), nil
}

// boolConverter handles KindBool
type boolConverter struct{}

func (boolConverter) Parse(_ *Context, text string) (bool, error) {
	switch strings.ToLower(text) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", ErrSchemaViolation, text)
	}
}

func (boolConverter) Format(_ *Context, value bool) (string, error) {
	if value {
		return "1", nil
	}
	return "0", nil
}

// dateConverter handles KindDate
type dateConverter struct {
	layout string
}

func (c dateConverter) Parse(_ *Context, text string) (time.Time, error) {
	v, err := time.Parse(c.layout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match date layout %s", ErrSchemaViolation, text, c.layout)
	}
	return v, nil
}

func (c dateConverter) Format(_ *Context, value time.Time) (string, error) {
	if value.IsZero() {
		return "", nil
	}
	return value.Format(c.layout), nil
}

// DateLayout returns a KindDate converter using a custom layout
func DateLayout(layout string) Converter[time.Time] {
	return dateConverter{layout: layout}
}

// idConverter handles KindID. A fixed prefix wins over the session default.
type idConverter struct {
	prefix string
}

func (c idConverter) Parse(ctx *Context, text string) (ID, error) {
	prefix := c.prefix
	if prefix == "" {
		prefix = ctx.DefaultPrefix()
	}
	return ID{Prefix: prefix, Value: text}, nil
}

func (c idConverter) Format(_ *Context, value ID) (string, error) {
	return value.Value, nil
}

// FixedPrefix returns a KindID converter that always assigns prefix
func FixedPrefix(prefix string) Converter[ID] {
	return idConverter{prefix: prefix}
}

// anyConverter erases the value type of a Converter
type anyConverter struct {
	parse  func(ctx *Context, text string) (any, error)
	format func(ctx *Context, value any) (string, error)
}

// eraseConverter wraps a typed Converter so it can live in the kind table
func eraseConverter[V any](c Converter[V]) anyConverter {
	return anyConverter{
		parse: func(ctx *Context, text string) (any, error) {
			v, err := c.Parse(ctx, text)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		format: func(ctx *Context, value any) (string, error) {
			v, ok := value.(V)
			if !ok {
				return "", fmt.Errorf("%w: value of type %T does not match converter", ErrSchemaViolation, value)
			}
			return c.Format(ctx, v)
		},
	}
}

// kindConverters is the conversion table for name-addressed records. It is
// consulted once per field when a schema is built.
var kindConverters = map[Kind]anyConverter{
	KindText:  eraseConverter[string](textConverter{}),
	KindInt:   eraseConverter[int](intConverter{}),
	KindFloat: eraseConverter[float64](floatConverter{}),
	KindBool:  eraseConverter[bool](boolConverter{}),
	KindDate:  eraseConverter[time.Time](dateConverter{layout: DefaultDateLayout}),
	KindID:    eraseConverter[ID](idConverter{}),
}
