package csventity

import (
	"errors"
	"fmt"
	"time"
)

// FieldMapping maps one named column to one property of an entity.
// Implementations must not keep per-row state.
type FieldMapping interface {
	// ColumnName returns the column this field reads and writes
	ColumnName() string
	// Required reports whether an absent or empty column is an error on read
	Required() bool
	// Decode reads the column from row and sets the property on entity
	Decode(ctx *Context, row Row, entity any) error
	// Encode reads the property from entity and writes the column into row
	Encode(ctx *Context, entity any, row Row) error
	// IsMissing reports whether entity leaves this optional property unset
	IsMissing(entity any) bool
}

// Field is a FieldMapping over entities of type *T with property values of
// type V. The getter and setter stand in for property lookup by name.
//
// Fields are required unless Optional or Default is applied. Field values
// are immutable: every With-style method returns a modified copy.
type Field[T any, V comparable] struct {
	column    string
	kind      Kind
	get       func(*T) V
	set       func(*T, V)
	required  bool
	def       V
	converter Converter[V]
}

// Text declares a KindText field
func Text[T any](column string, get func(*T) string, set func(*T, string)) Field[T, string] {
	return newField(column, KindText, get, set, Converter[string](textConverter{}))
}

// Int declares a KindInt field
func Int[T any](column string, get func(*T) int, set func(*T, int)) Field[T, int] {
	return newField(column, KindInt, get, set, Converter[int](intConverter{}))
}

// Float declares a KindFloat field
func Float[T any](column string, get func(*T) float64, set func(*T, float64)) Field[T, float64] {
	return newField(column, KindFloat, get, set, Converter[float64](floatConverter{}))
}

// Bool declares a KindBool field
func Bool[T any](column string, get func(*T) bool, set func(*T, bool)) Field[T, bool] {
	return newField(column, KindBool, get, set, Converter[bool](boolConverter{}))
}

// Date declares a KindDate field using DefaultDateLayout
func Date[T any](column string, get func(*T) time.Time, set func(*T, time.Time)) Field[T, time.Time] {
	return newField(column, KindDate, get, set, DateLayout(DefaultDateLayout))
}

// Identifier declares a KindID field. The prefix of a decoded ID comes from
// the session's default prefix.
func Identifier[T any](column string, get func(*T) ID, set func(*T, ID)) Field[T, ID] {
	return newField(column, KindID, get, set, Converter[ID](idConverter{}))
}

// Custom declares a KindCustom field with an explicit converter
func Custom[T any, V comparable](column string, get func(*T) V, set func(*T, V), converter Converter[V]) Field[T, V] {
	return newField(column, KindCustom, get, set, converter)
}

func newField[T any, V comparable](column string, kind Kind, get func(*T) V, set func(*T, V), converter Converter[V]) Field[T, V] {
	return Field[T, V]{
		column:    column,
		kind:      kind,
		get:       get,
		set:       set,
		required:  true,
		converter: converter,
	}
}

// Optional marks the field optional; an absent or empty column leaves the
// zero value (or the configured default).
func (f Field[T, V]) Optional() Field[T, V] {
	f.required = false
	return f
}

// Default marks the field optional and sets the value applied when the
// column is absent or empty. A property equal to the default is written as
// empty text.
func (f Field[T, V]) Default(value V) Field[T, V] {
	f.required = false
	f.def = value
	return f
}

// WithConverter replaces the field's converter
func (f Field[T, V]) WithConverter(converter Converter[V]) Field[T, V] {
	f.converter = converter
	return f
}

// Kind returns the declared value kind
func (f Field[T, V]) Kind() Kind {
	return f.kind
}

// ColumnName implements FieldMapping
func (f Field[T, V]) ColumnName() string {
	return f.column
}

// Required implements FieldMapping
func (f Field[T, V]) Required() bool {
	return f.required
}

// Decode implements FieldMapping
func (f Field[T, V]) Decode(ctx *Context, row Row, entity any) error {
	target, err := f.entity(entity)
	if err != nil {
		return err
	}

	text, ok := row[f.column]
	if !ok || text == "" {
		if f.required {
			return fmt.Errorf("%w: required column %q is missing or empty", ErrSchemaViolation, f.column)
		}
		f.set(target, f.def)
		return nil
	}

	v, err := f.converter.Parse(ctx, text)
	if err != nil {
		return columnError(f.column, err)
	}
	f.set(target, v)
	return nil
}

// Encode implements FieldMapping
func (f Field[T, V]) Encode(ctx *Context, entity any, row Row) error {
	source, err := f.entity(entity)
	if err != nil {
		return err
	}

	v := f.get(source)
	if !f.required && v == f.def {
		row[f.column] = ""
		return nil
	}

	text, err := f.converter.Format(ctx, v)
	if err != nil {
		return columnError(f.column, err)
	}
	row[f.column] = text
	return nil
}

// IsMissing implements FieldMapping
func (f Field[T, V]) IsMissing(entity any) bool {
	if f.required {
		return false
	}
	source, err := f.entity(entity)
	if err != nil {
		return false
	}
	return f.get(source) == f.def
}

// entity asserts the entity type handled by this field
func (f Field[T, V]) entity(entity any) (*T, error) {
	t, ok := entity.(*T)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: column %q cannot map entity of type %T", ErrSchemaViolation, f.column, entity)
	}
	return t, nil
}

// columnError attaches the column name and guarantees the schema violation class
func columnError(column string, err error) error {
	if errors.Is(err, ErrSchemaViolation) {
		return fmt.Errorf("column %q: %w", column, err)
	}
	return fmt.Errorf("%w: column %q: %w", ErrSchemaViolation, column, err)
}
