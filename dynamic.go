package csventity

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
)

// dynamicRecordType is shared by every dynamic schema, so such schemas are
// resolved by record type name rather than by Go type.
var dynamicRecordType = reflect.TypeFor[*DynamicRecord]()

// DynamicRecord is an entity whose properties are addressed by name. It is
// used for record types declared at runtime, for example from a YAML
// schema configuration.
type DynamicRecord struct {
	Extensions
	recordType string
	values     map[string]any
	kinds      map[string]Kind
}

// NewDynamicRecord creates an empty record of the given record type
func NewDynamicRecord(recordType string) *DynamicRecord {
	return &DynamicRecord{
		recordType: recordType,
		values:     make(map[string]any),
		kinds:      make(map[string]Kind),
	}
}

// RecordType implements RecordTyper
func (d *DynamicRecord) RecordType() string {
	return d.recordType
}

// Get returns the value of a property
func (d *DynamicRecord) Get(name string) (any, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Set assigns a property. The kind is inferred from the Go type of value.
func (d *DynamicRecord) Set(name string, value any) {
	d.values[name] = value
	d.kinds[name] = kindOf(value)
}

// TypeOf returns the kind of a property, KindText when unknown
func (d *DynamicRecord) TypeOf(name string) Kind {
	return d.kinds[name]
}

// Names returns the set property names in sorted order
func (d *DynamicRecord) Names() []string {
	names := make([]string, 0, len(d.values))
	for name := range d.values {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// kindOf maps a Go value to its Kind
func kindOf(v any) Kind {
	switch v.(type) {
	case string:
		return KindText
	case int:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	case time.Time:
		return KindDate
	case ID:
		return KindID
	default:
		return KindCustom
	}
}

// DynamicField declares one column of a dynamic schema.
type DynamicField struct {
	// Column is the column name in the resource
	Column string
	// Property is the record property name; Column is used when empty
	Property string
	// Kind selects the converter
	Kind Kind
	// Optional allows the column to be absent or empty. A Default implies Optional.
	Optional bool
	// Default is the column text applied when an optional column is absent or empty
	Default string
	// Layout overrides DefaultDateLayout for KindDate
	Layout string
}

// dynamicField is the FieldMapping of a DynamicField
type dynamicField struct {
	column    string
	property  string
	kind      Kind
	required  bool
	def       any
	converter anyConverter
}

// NewDynamicSchema declares a schema of DynamicRecord entities
func NewDynamicSchema(recordType, resourceName string, fields ...DynamicField) (*Schema, error) {
	mappings := make([]FieldMapping, 0, len(fields))
	for _, f := range fields {
		m, err := f.mapping()
		if err != nil {
			return nil, fmt.Errorf("record type %s: %w", recordType, err)
		}
		mappings = append(mappings, m)
	}

	s := &Schema{
		recordType:       recordType,
		resourceName:     resourceName,
		resourceRequired: true,
		entityType:       dynamicRecordType,
		factory:          func() any { return NewDynamicRecord(recordType) },
		fields:           mappings,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (f DynamicField) mapping() (FieldMapping, error) {
	if strings.TrimSpace(f.Column) == "" {
		return nil, fmt.Errorf("%w: column name cannot be empty", ErrSchemaViolation)
	}

	converter, ok := kindConverters[f.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: column %q: kind %s has no default converter", ErrSchemaViolation, f.Column, f.Kind)
	}
	if f.Kind == KindDate && f.Layout != "" {
		converter = eraseConverter(DateLayout(f.Layout))
	}

	m := &dynamicField{
		column:    f.Column,
		property:  f.Property,
		kind:      f.Kind,
		required:  !f.Optional && f.Default == "",
		converter: converter,
	}
	if m.property == "" {
		m.property = f.Column
	}
	if f.Default != "" {
		def, err := converter.parse(nil, f.Default)
		if err != nil {
			return nil, fmt.Errorf("column %q default: %w", f.Column, err)
		}
		m.def = def
	}
	return m, nil
}

// ColumnName implements FieldMapping
func (f *dynamicField) ColumnName() string {
	return f.column
}

// Required implements FieldMapping
func (f *dynamicField) Required() bool {
	return f.required
}

// Decode implements FieldMapping
func (f *dynamicField) Decode(ctx *Context, row Row, entity any) error {
	rec, err := asDynamic(entity, f.column)
	if err != nil {
		return err
	}

	text, ok := row[f.column]
	if !ok || text == "" {
		if f.required {
			return fmt.Errorf("%w: required column %q is missing or empty", ErrSchemaViolation, f.column)
		}
		if f.def != nil {
			rec.values[f.property] = f.def
			rec.kinds[f.property] = f.kind
		}
		return nil
	}

	v, err := f.converter.parse(ctx, text)
	if err != nil {
		return columnError(f.column, err)
	}
	rec.values[f.property] = v
	rec.kinds[f.property] = f.kind
	return nil
}

// Encode implements FieldMapping
func (f *dynamicField) Encode(ctx *Context, entity any, row Row) error {
	rec, err := asDynamic(entity, f.column)
	if err != nil {
		return err
	}
	if f.isMissing(rec) {
		row[f.column] = ""
		return nil
	}

	text, err := f.converter.format(ctx, rec.values[f.property])
	if err != nil {
		return columnError(f.column, err)
	}
	row[f.column] = text
	return nil
}

// IsMissing implements FieldMapping
func (f *dynamicField) IsMissing(entity any) bool {
	if f.required {
		return false
	}
	rec, err := asDynamic(entity, f.column)
	if err != nil {
		return false
	}
	return f.isMissing(rec)
}

func (f *dynamicField) isMissing(rec *DynamicRecord) bool {
	v, ok := rec.values[f.property]
	if !ok || v == nil {
		return true
	}
	return !f.required && f.def != nil && reflect.DeepEqual(v, f.def)
}

func asDynamic(entity any, column string) (*DynamicRecord, error) {
	rec, ok := entity.(*DynamicRecord)
	if !ok || rec == nil {
		return nil, fmt.Errorf("%w: column %q cannot map entity of type %T", ErrSchemaViolation, column, entity)
	}
	return rec, nil
}
