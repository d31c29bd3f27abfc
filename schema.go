package csventity

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Schema describes how one record type maps to the columns of one resource.
// A Schema is immutable once built; the With-style methods return copies.
type Schema struct {
	recordType       string
	resourceName     string
	resourceRequired bool
	entityType       reflect.Type
	factory          func() any
	fields           []FieldMapping
	extensions       []*Schema
	fixedColumns     []string
}

// NewSchema declares the schema of entities of type *T. Entities are
// created with new(T). The resource is required by default.
func NewSchema[T any](recordType, resourceName string, fields ...FieldMapping) *Schema {
	return NewSchemaWithFactory(recordType, resourceName, func() *T { return new(T) }, fields...)
}

// NewSchemaWithFactory declares the schema of entities of type *T created by factory
func NewSchemaWithFactory[T any](recordType, resourceName string, factory func() *T, fields ...FieldMapping) *Schema {
	var f func() any
	if factory != nil {
		f = func() any {
			if e := factory(); e != nil {
				return e
			}
			return nil
		}
	}
	return &Schema{
		recordType:       recordType,
		resourceName:     resourceName,
		resourceRequired: true,
		entityType:       reflect.TypeFor[*T](),
		factory:          f,
		fields:           slices.Clone(fields),
	}
}

// clone returns a shallow copy safe to modify
func (s *Schema) clone() *Schema {
	c := *s
	c.fields = slices.Clone(s.fields)
	c.extensions = slices.Clone(s.extensions)
	c.fixedColumns = slices.Clone(s.fixedColumns)
	return &c
}

// OptionalResource returns a copy whose resource may be absent; reading
// then skips the record type without error.
func (s *Schema) OptionalResource() *Schema {
	c := s.clone()
	c.resourceRequired = false
	return c
}

// WithFixedColumns returns a copy with a pre-declared column order. Resources
// of this schema carry no header line.
func (s *Schema) WithFixedColumns(columns ...string) *Schema {
	c := s.clone()
	c.fixedColumns = slices.Clone(columns)
	return c
}

// WithExtensions returns a copy whose rows also carry the columns of each
// extension schema, after the base columns and in the given order.
func (s *Schema) WithExtensions(extensions ...*Schema) *Schema {
	c := s.clone()
	c.extensions = append(c.extensions, extensions...)
	return c
}

// RecordType returns the record type name (the extension tag for extension schemas)
func (s *Schema) RecordType() string {
	return s.recordType
}

// ResourceName returns the name of the backing resource
func (s *Schema) ResourceName() string {
	return s.resourceName
}

// ResourceRequired reports whether a missing resource is an error
func (s *Schema) ResourceRequired() bool {
	return s.resourceRequired
}

// Fields returns the base field mappings in column order
func (s *Schema) Fields() []FieldMapping {
	return slices.Clone(s.fields)
}

// Extensions returns the extension schemas in column order
func (s *Schema) Extensions() []*Schema {
	return slices.Clone(s.extensions)
}

// FixedColumns returns the pre-declared column order, or nil
func (s *Schema) FixedColumns() []string {
	return slices.Clone(s.fixedColumns)
}

// Columns returns base columns followed by every extension's columns
func (s *Schema) Columns() []string {
	return s.columns(nil)
}

// columns lists the effective columns, leaving out excluded ones
func (s *Schema) columns(excluded map[string]bool) []string {
	var out []string
	for _, f := range s.fields {
		if !excluded[f.ColumnName()] {
			out = append(out, f.ColumnName())
		}
	}
	for _, ext := range s.extensions {
		for _, f := range ext.fields {
			if !excluded[f.ColumnName()] {
				out = append(out, f.ColumnName())
			}
		}
	}
	return out
}

// Validate checks the schema for an empty record type, duplicate columns
// and unusable fixed column lists. Extension schemas may leave the resource
// name empty.
func (s *Schema) Validate() error {
	if strings.TrimSpace(s.recordType) == "" {
		return errors.New("record type cannot be empty")
	}
	if err := validateColumnNames(s.Columns()); err != nil {
		return fmt.Errorf("record type %s: %w", s.recordType, err)
	}
	if len(s.fixedColumns) > 0 {
		if err := validateColumnNames(s.fixedColumns); err != nil {
			return fmt.Errorf("record type %s: fixed columns: %w", s.recordType, err)
		}
	}
	return nil
}

// NewEntity creates a default entity of the schema's record type
func (s *Schema) NewEntity() (any, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("%w: record type %s has no factory", ErrEntityInstantiation, s.recordType)
	}
	e := s.factory()
	if e == nil {
		return nil, fmt.Errorf("%w: factory of record type %s returned nil", ErrEntityInstantiation, s.recordType)
	}
	return e, nil
}

// Decode builds an entity from a named row. Extension schemas are decoded
// into fresh extension entities and attached when the entity is Extensible.
func (s *Schema) Decode(ctx *Context, row Row) (any, error) {
	entity, err := s.NewEntity()
	if err != nil {
		return nil, err
	}
	if err := s.decodeFields(ctx, row, entity); err != nil {
		return nil, err
	}

	if len(s.extensions) == 0 {
		return entity, nil
	}
	target, ok := entity.(Extensible)
	if !ok {
		return entity, nil
	}
	for _, ext := range s.extensions {
		extEntity, err := ext.NewEntity()
		if err != nil {
			return nil, err
		}
		if err := ext.decodeFields(ctx, row, extEntity); err != nil {
			return nil, fmt.Errorf("extension %s: %w", ext.recordType, err)
		}
		target.PutExtension(ext.recordType, extEntity)
	}
	return entity, nil
}

func (s *Schema) decodeFields(ctx *Context, row Row, entity any) error {
	for _, f := range s.fields {
		if err := f.Decode(ctx, row, entity); err != nil {
			return err
		}
	}
	return nil
}

// Encode renders an entity as a named row holding every column of the
// schema. Columns of extensions the entity does not carry are empty.
func (s *Schema) Encode(ctx *Context, entity any) (Row, error) {
	row := make(Row, len(s.fields))
	for _, f := range s.fields {
		if err := f.Encode(ctx, entity, row); err != nil {
			return nil, err
		}
	}

	for _, ext := range s.extensions {
		extEntity := extensionOf(entity, ext.recordType)
		if extEntity == nil {
			for _, f := range ext.fields {
				row[f.ColumnName()] = ""
			}
			continue
		}
		for _, f := range ext.fields {
			if err := f.Encode(ctx, extEntity, row); err != nil {
				return nil, fmt.Errorf("extension %s: %w", ext.recordType, err)
			}
		}
	}
	return row, nil
}

// missingColumns returns the optional columns every entity leaves unset
func (s *Schema) missingColumns(entities []any) map[string]bool {
	missing := make(map[string]bool)
	check := func(f FieldMapping, pick func(any) any) {
		if f.Required() {
			return
		}
		for _, e := range entities {
			target := pick(e)
			if target != nil && !f.IsMissing(target) {
				return
			}
		}
		missing[f.ColumnName()] = true
	}

	for _, f := range s.fields {
		check(f, func(e any) any { return e })
	}
	for _, ext := range s.extensions {
		tag := ext.recordType
		for _, f := range ext.fields {
			check(f, func(e any) any { return extensionOf(e, tag) })
		}
	}
	return missing
}

// extensionOf returns the extension of entity under tag, or nil
func extensionOf(entity any, tag string) any {
	x, ok := entity.(Extensible)
	if !ok {
		return nil
	}
	return x.Extension(tag)
}

// validateColumnNames checks for duplicate column names and returns error if found.
func validateColumnNames(columns []string) error {
	columnsSeen := make(map[string]bool)
	for _, col := range columns {
		trimmedCol := strings.TrimSpace(col)
		if trimmedCol == "" {
			return errors.New("column name cannot be empty")
		}
		if columnsSeen[trimmedCol] {
			return fmt.Errorf("%w: %s", errDuplicateColumnName, col)
		}
		columnsSeen[trimmedCol] = true
	}
	return nil
}
