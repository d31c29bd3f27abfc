package csventity

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// writeState is the per record type state of a Writer
type writeState struct {
	columns header
	lines   int
}

// Writer encodes entities into the resources of a ResourceSink. The first
// entity of a record type opens its destination and emits the header line;
// each entity then becomes one line. Writer implements Handler, so it can be
// registered on a Reader to copy a feed.
//
// With a zip sink every record type must be written contiguously.
type Writer struct {
	sink     ResourceSink
	schemas  SchemaFactory
	options  WriteOptions
	session  *Context
	states   map[string]*writeState
	excluded map[string]map[string]bool
	logger   *slog.Logger
	closed   bool
}

// NewWriter creates a write session over sink. The writer takes ownership of
// sink and closes it in Close.
func NewWriter(sink ResourceSink, schemas SchemaFactory, options WriteOptions) *Writer {
	options = options.normalize()
	return &Writer{
		sink:     sink,
		schemas:  schemas,
		options:  options,
		session:  NewContext(),
		states:   make(map[string]*writeState),
		excluded: make(map[string]map[string]bool),
		logger:   options.Logger,
	}
}

// CreateWriter creates a directory or zip archive at path and a write session over it
func CreateWriter(path string, schemas SchemaFactory, options WriteOptions) (*Writer, error) {
	sink, err := CreateSink(path, options)
	if err != nil {
		return nil, err
	}
	return NewWriter(sink, schemas, options), nil
}

// Context returns the session context shared with converters
func (w *Writer) Context() *Context {
	return w.session
}

// ExcludeOptionalAndMissingFields scans every entity of a record type before
// any of them is written. Optional columns that all entities leave unset are
// dropped from the header and from every row of that type.
func (w *Writer) ExcludeOptionalAndMissingFields(recordType string, entities []any) error {
	if w.closed {
		return ErrClosed
	}
	schema, ok := w.schemas.Schema(recordType)
	if !ok {
		return NewErrorContext("exclude optional fields", "").WithRecordType(recordType).Error(ErrUnknownRecordType)
	}
	if _, started := w.states[recordType]; started {
		return NewErrorContext("exclude optional fields", schema.ResourceName()).WithRecordType(recordType).Error(ErrAlreadyWritten)
	}

	missing := schema.missingColumns(entities)
	w.excluded[recordType] = missing
	w.logger.Debug("excluding unset optional columns", "type", recordType, "columns", len(missing))
	return nil
}

// Handle encodes one entity as one line of its record type's resource
func (w *Writer) Handle(entity any) error {
	if w.closed {
		return ErrClosed
	}
	schema, ok := w.schemas.SchemaFor(entity)
	if !ok {
		return NewErrorContext("write", "").Error(fmt.Errorf("%w: entity of type %T", ErrUnknownRecordType, entity))
	}
	recordType := schema.RecordType()
	errCtx := NewErrorContext("write", schema.ResourceName()).WithRecordType(recordType)

	dest, err := w.sink.Writer(recordType, schema.ResourceName())
	if err != nil {
		return errCtx.Error(err)
	}

	state, ok := w.states[recordType]
	if !ok {
		state, err = w.start(schema, dest)
		if err != nil {
			return errCtx.Error(err)
		}
		w.states[recordType] = state
	}

	row, err := schema.Encode(w.session, entity)
	if err != nil {
		return errCtx.WithLine(state.lines + 1).Error(err)
	}
	if err := w.writeLine(dest, state.columns.values(row)); err != nil {
		return errCtx.WithLine(state.lines + 1).Error(err)
	}
	state.lines++
	return nil
}

// start computes the effective columns of a record type and emits its header
func (w *Writer) start(schema *Schema, dest io.Writer) (*writeState, error) {
	excluded := w.excluded[schema.RecordType()]
	state := &writeState{}

	if fixed := schema.FixedColumns(); len(fixed) > 0 {
		state.columns = newHeader(slices.DeleteFunc(fixed, func(c string) bool { return excluded[c] }))
	} else {
		state.columns = newHeader(schema.columns(excluded))
		if err := w.writeLine(dest, state.columns); err != nil {
			return nil, err
		}
		state.lines++
	}
	w.logger.Debug("resource opened", "type", schema.RecordType(), "resource", schema.ResourceName(), "columns", len(state.columns))
	return state, nil
}

func (w *Writer) writeLine(dest io.Writer, fields []string) error {
	_, err := io.WriteString(dest, w.options.Tokenizer.Format(fields)+"\n")
	return err
}

// Flush pushes buffered output of every open resource
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return w.sink.Flush()
}

// Close flushes and closes the sink; safe to call more than once
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	for recordType, state := range w.states {
		w.logger.Info("resource written", "type", recordType, "lines", state.lines)
	}
	return w.sink.Close()
}
