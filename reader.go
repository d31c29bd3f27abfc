package csventity

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Reader decodes the resources of a ResourceStore into entities and pushes
// them to handlers. Record types are read strictly one after another in the
// configured order, so handlers of a later type can rely on every entity of
// an earlier type having been delivered.
//
// A Reader is one read session: it owns the store, the session Context and
// the optional string pool. It is not safe for concurrent use.
//
//	reader, err := csventity.OpenReader("feed.zip", registry, csventity.NewReadOptions())
//	if err != nil {
//		return err
//	}
//	defer reader.Close()
//
//	stops := csventity.NewCollector[Stop]()
//	reader.AddHandler(stops)
//	reader.AddRecordTypes("agency", "stop")
//	if err := reader.ReadAll(ctx); err != nil {
//		return err
//	}
type Reader struct {
	store       ResourceStore
	schemas     SchemaFactory
	options     ReadOptions
	handlers    []Handler
	recordTypes []string
	session     *Context
	pool        *stringPool
	logger      *slog.Logger
	closed      bool
}

// NewReader creates a read session over store. The reader takes ownership of
// store and closes it in Close.
func NewReader(store ResourceStore, schemas SchemaFactory, options ReadOptions) *Reader {
	options = options.normalize()
	r := &Reader{
		store:   store,
		schemas: schemas,
		options: options,
		session: NewContext(),
		logger:  options.Logger,
	}
	if options.InternStrings {
		r.pool = newStringPool()
	}
	return r
}

// OpenReader opens a directory or zip archive at path and creates a read session over it
func OpenReader(path string, schemas SchemaFactory, options ReadOptions) (*Reader, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return NewReader(store, schemas, options), nil
}

// AddHandler registers handlers. Entities are pushed to handlers in
// registration order.
func (r *Reader) AddHandler(handlers ...Handler) {
	r.handlers = append(r.handlers, handlers...)
}

// AddRecordTypes appends record types to the read order used by ReadAll
func (r *Reader) AddRecordTypes(recordTypes ...string) {
	r.recordTypes = append(r.recordTypes, recordTypes...)
}

// Context returns the session context shared with converters and handlers
func (r *Reader) Context() *Context {
	return r.session
}

// ReadAll reads every configured record type in order. The first failure
// stops the run; resources read before it stay delivered.
func (r *Reader) ReadAll(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}
	if len(r.recordTypes) == 0 {
		return errors.New("csventity: no record types configured")
	}
	for _, recordType := range r.recordTypes {
		if err := r.ReadOne(ctx, recordType); err != nil {
			return err
		}
	}
	return nil
}

// ReadOne reads the resource of a single record type
func (r *Reader) ReadOne(ctx context.Context, recordType string) error {
	if r.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	schema, ok := r.schemas.Schema(recordType)
	if !ok {
		return NewErrorContext("read", "").WithRecordType(recordType).Error(ErrUnknownRecordType)
	}
	return r.readResource(schema)
}

// InjectEntity delivers an entity built by the caller to every handler, as
// if it had been read.
func (r *Reader) InjectEntity(entity any) error {
	if r.closed {
		return ErrClosed
	}
	return r.deliver(entity)
}

// Close ends the session and closes the store; safe to call more than once
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.pool = nil
	return r.store.Close()
}

// readResource runs one resource through tokenizer, schema and handlers
func (r *Reader) readResource(schema *Schema) error {
	name := schema.ResourceName()
	errCtx := NewErrorContext("read", name).WithRecordType(schema.RecordType())

	if !r.store.HasResource(name) {
		if schema.ResourceRequired() {
			return errCtx.Error(ErrMissingRequiredResource)
		}
		r.logger.Debug("skipping optional resource", "type", schema.RecordType(), "resource", name)
		return nil
	}

	rc, err := r.store.Open(name)
	if err != nil {
		return errCtx.Error(err)
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	if err := skipByteOrderMark(br); err != nil {
		return errCtx.Error(err)
	}

	var columns header
	if fixed := schema.FixedColumns(); len(fixed) > 0 {
		columns = newHeader(fixed)
	}

	lineNumber := 0
	count := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return errCtx.WithLine(lineNumber + 1).Error(readErr)
		}
		if line == "" && readErr != nil {
			break
		}
		lineNumber++

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if line == "" || line == substituteLine {
			if readErr != nil {
				break
			}
			continue
		}

		fields, err := r.options.Tokenizer.Parse(line)
		if err != nil {
			return errCtx.WithLine(lineNumber).Error(err)
		}

		if columns == nil {
			columns = trimHeader(fields)
			r.logger.Debug("header established", "type", schema.RecordType(), "resource", name, "columns", len(columns))
		} else {
			if err := r.decodeLine(schema, columns, fields); err != nil {
				return errCtx.WithLine(lineNumber).Error(err)
			}
			count++
		}

		if readErr != nil {
			break
		}
	}

	for _, h := range r.handlers {
		if f, ok := h.(Flusher); ok {
			if err := f.Flush(); err != nil {
				return errCtx.Error(fmt.Errorf("flush: %w", err))
			}
		}
	}

	r.logger.Info("resource read", "type", schema.RecordType(), "resource", name, "records", count, "lines", lineNumber)
	return nil
}

// decodeLine maps one tokenized data line to an entity and delivers it
func (r *Reader) decodeLine(schema *Schema, columns header, fields []string) error {
	if r.options.TrimValues {
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
	}
	if r.pool != nil {
		r.pool.internAll(fields)
	}

	entity, err := schema.Decode(r.session, columns.row(fields))
	if err != nil {
		return err
	}
	return r.deliver(entity)
}

// deliver pushes an entity to every handler in registration order
func (r *Reader) deliver(entity any) error {
	for _, h := range r.handlers {
		if err := h.Handle(entity); err != nil {
			return err
		}
	}
	return nil
}

// skipByteOrderMark discards a leading byte order mark, leaving any other
// first code point in place
func skipByteOrderMark(br *bufio.Reader) error {
	ch, _, err := br.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if ch != byteOrderMark {
		return br.UnreadRune()
	}
	return nil
}
