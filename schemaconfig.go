package csventity

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// schemaConfig is the YAML document accepted by ParseSchemaConfig
//
//	schemas:
//	  - type: stop
//	    resource: stops.txt
//	    fields:
//	      - column: stop_id
//	        kind: id
//	      - column: stop_name
//	        property: name
//	      - column: wheelchair_boarding
//	        kind: int
//	        optional: true
//	  - type: stop_accessibility
//	    extends: stop
//	    fields:
//	      - column: tactile_paving
//	        kind: bool
//	        optional: true
type schemaConfig struct {
	Schemas []recordConfig `yaml:"schemas"`
}

type recordConfig struct {
	Type             string        `yaml:"type"`
	Resource         string        `yaml:"resource"`
	OptionalResource bool          `yaml:"optional_resource"`
	Extends          string        `yaml:"extends"`
	FixedColumns     []string      `yaml:"fixed_columns"`
	Fields           []fieldConfig `yaml:"fields"`
}

type fieldConfig struct {
	Column   string `yaml:"column"`
	Property string `yaml:"property"`
	Kind     string `yaml:"kind"`
	Optional bool   `yaml:"optional"`
	Default  string `yaml:"default"`
	Layout   string `yaml:"layout"`
}

// LoadSchemaConfig reads a YAML schema configuration file.
// See ParseSchemaConfig for the document format.
func LoadSchemaConfig(path string) ([]*Schema, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read schema config: %w", err)
	}
	schemas, err := ParseSchemaConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schemas, nil
}

// ParseSchemaConfig builds dynamic schemas from a YAML document. Entries with
// an "extends" key become extension schemas of the named base record type and
// are not returned on their own. The remaining schemas keep document order.
func ParseSchemaConfig(data []byte) ([]*Schema, error) {
	var cfg schemaConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse schema config: %w", err)
	}
	if len(cfg.Schemas) == 0 {
		return nil, errors.New("schema config declares no schemas")
	}

	var (
		bases      []*Schema
		index      = make(map[string]int)
		extensions []recordConfig
	)
	for _, rc := range cfg.Schemas {
		if rc.Extends != "" {
			extensions = append(extensions, rc)
			continue
		}
		s, err := rc.schema()
		if err != nil {
			return nil, err
		}
		if _, dup := index[s.RecordType()]; dup {
			return nil, fmt.Errorf("record type %s is declared twice", s.RecordType())
		}
		index[s.RecordType()] = len(bases)
		bases = append(bases, s)
	}

	for _, rc := range extensions {
		i, ok := index[rc.Extends]
		if !ok {
			return nil, fmt.Errorf("extension %s: %w: %s", rc.Type, ErrUnknownRecordType, rc.Extends)
		}
		ext, err := rc.schema()
		if err != nil {
			return nil, err
		}
		derived := bases[i].WithExtensions(ext)
		if err := derived.Validate(); err != nil {
			return nil, err
		}
		bases[i] = derived
	}
	return bases, nil
}

// schema converts one YAML entry to a dynamic schema
func (rc recordConfig) schema() (*Schema, error) {
	fields := make([]DynamicField, 0, len(rc.Fields))
	for _, fc := range rc.Fields {
		kind := KindText
		if fc.Kind != "" {
			k, ok := parseKind(fc.Kind)
			if !ok {
				return nil, fmt.Errorf("record type %s: column %q: unknown kind %q", rc.Type, fc.Column, fc.Kind)
			}
			kind = k
		}
		fields = append(fields, DynamicField{
			Column:   fc.Column,
			Property: fc.Property,
			Kind:     kind,
			Optional: fc.Optional,
			Default:  fc.Default,
			Layout:   fc.Layout,
		})
	}

	s, err := NewDynamicSchema(rc.Type, rc.Resource, fields...)
	if err != nil {
		return nil, err
	}
	if rc.OptionalResource {
		s = s.OptionalResource()
	}
	if len(rc.FixedColumns) > 0 {
		s = s.WithFixedColumns(rc.FixedColumns...)
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}
