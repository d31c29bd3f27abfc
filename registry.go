package csventity

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// SchemaFactory resolves schemas by record type name and by entity.
type SchemaFactory interface {
	// Schema returns the schema registered for recordType
	Schema(recordType string) (*Schema, bool)
	// SchemaFor returns the schema of the entity's record type
	SchemaFor(entity any) (*Schema, bool)
}

// RecordTyper is implemented by entities whose record type is not implied by
// their Go type, such as DynamicRecord.
type RecordTyper interface {
	RecordType() string
}

// Registry is the default SchemaFactory. It is safe for concurrent lookups;
// registration is expected to finish before sessions start.
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]*Schema
	byType     map[reflect.Type]*Schema
	byResource map[string]string
}

// NewRegistry creates a registry holding the given schemas
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{
		byName:     make(map[string]*Schema),
		byType:     make(map[reflect.Type]*Schema),
		byResource: make(map[string]string),
	}
	if err := r.Register(schemas...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register validates and adds schemas. Record type names and resource names
// must be unique within the registry.
func (r *Registry) Register(schemas ...*Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range schemas {
		if s == nil {
			return fmt.Errorf("%w: nil schema", ErrUnknownRecordType)
		}
		if err := s.Validate(); err != nil {
			return err
		}
		if strings.TrimSpace(s.resourceName) == "" {
			return fmt.Errorf("record type %s: resource name cannot be empty", s.recordType)
		}
		if _, exists := r.byName[s.recordType]; exists {
			return fmt.Errorf("record type %s is already registered", s.recordType)
		}
		if owner, exists := r.byResource[s.resourceName]; exists {
			return fmt.Errorf("resource %s is already used by record type %s", s.resourceName, owner)
		}
		r.byName[s.recordType] = s
		r.byResource[s.resourceName] = s.recordType
		if s.entityType != dynamicRecordType {
			r.byType[s.entityType] = s
		}
	}
	return nil
}

// AddExtension attaches ext to the registered schema of baseRecordType,
// replacing it with a derived schema.
func (r *Registry) AddExtension(baseRecordType string, ext *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	base, ok := r.byName[baseRecordType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecordType, baseRecordType)
	}
	derived := base.WithExtensions(ext)
	if err := derived.Validate(); err != nil {
		return err
	}
	r.byName[baseRecordType] = derived
	if derived.entityType != dynamicRecordType {
		r.byType[derived.entityType] = derived
	}
	return nil
}

// Schema implements SchemaFactory
func (r *Registry) Schema(recordType string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byName[recordType]
	return s, ok
}

// SchemaFor implements SchemaFactory
func (r *Registry) SchemaFor(entity any) (*Schema, bool) {
	if typed, ok := entity.(RecordTyper); ok {
		return r.Schema(typed.RecordType())
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byType[reflect.TypeOf(entity)]
	return s, ok
}
