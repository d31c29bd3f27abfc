package sqlsink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/csventity"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DriverName is the database/sql driver used by Open
const DriverName = "sqlite"

// ErrUnknownEntity is returned when an entity has no registered schema
var ErrUnknownEntity = errors.New("sqlsink: entity has no registered schema")

// Open opens a SQLite database and verifies the connection
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// an in-memory database lives in a single connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() // Ignore close error, the ping error is more relevant
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// batch holds the pending rows of one record type
type batch struct {
	table   TableName
	columns []string
	rows    [][]any
}

// Sink buffers entities per record type and inserts them on Flush.
// It is not safe for concurrent use.
type Sink struct {
	db      *sql.DB
	schemas csventity.SchemaFactory
	session *csventity.Context
	batches map[string]*batch
	order   []string
	created map[string]bool
	rows    map[string]int
}

// New creates a sink writing into db. Entities are resolved through schemas.
func New(db *sql.DB, schemas csventity.SchemaFactory) *Sink {
	return &Sink{
		db:      db,
		schemas: schemas,
		session: csventity.NewContext(),
		batches: make(map[string]*batch),
		created: make(map[string]bool),
		rows:    make(map[string]int),
	}
}

// UseContext shares a session context, typically Reader.Context, with the
// converters that encode entities.
func (s *Sink) UseContext(session *csventity.Context) {
	if session != nil {
		s.session = session
	}
}

// Handle implements csventity.Handler
func (s *Sink) Handle(entity any) error {
	schema, ok := s.schemas.SchemaFor(entity)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnknownEntity, entity)
	}

	b, ok := s.batches[schema.RecordType()]
	if !ok {
		b = &batch{
			table:   NewTableName(schema.ResourceName()),
			columns: schema.Columns(),
		}
		s.batches[schema.RecordType()] = b
		s.order = append(s.order, schema.RecordType())
	}

	row, err := schema.Encode(s.session, entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", schema.RecordType(), err)
	}
	values := make([]any, len(b.columns))
	for i, col := range b.columns {
		values[i] = row[col]
	}
	b.rows = append(b.rows, values)
	return nil
}

// Flush implements csventity.Flusher
func (s *Sink) Flush() error {
	return s.FlushContext(context.Background())
}

// FlushContext writes every buffered row in one transaction. On failure the
// transaction is rolled back and the buffer is kept.
func (s *Sink) FlushContext(ctx context.Context) error {
	pending := 0
	for _, b := range s.batches {
		pending += len(b.rows)
	}
	if pending == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Ignore rollback error after commit
	}()

	for _, recordType := range s.order {
		b := s.batches[recordType]
		if !s.created[recordType] {
			if err := createTable(ctx, tx, b); err != nil {
				return err
			}
		}
		if err := insertRows(ctx, tx, b); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, recordType := range s.order {
		b := s.batches[recordType]
		s.created[recordType] = true
		s.rows[recordType] += len(b.rows)
		b.rows = nil
	}
	return nil
}

// Rows returns the number of rows of recordType committed so far
func (s *Sink) Rows(recordType string) int {
	return s.rows[recordType]
}

// Table returns the table name used for recordType
func (s *Sink) Table(recordType string) (TableName, bool) {
	schema, ok := s.schemas.Schema(recordType)
	if !ok {
		return TableName{}, false
	}
	return NewTableName(schema.ResourceName()), true
}

// createTable creates the TEXT-column table of a batch
func createTable(ctx context.Context, tx *sql.Tx, b *batch) error {
	defs := make([]string, len(b.columns))
	for i, col := range b.columns {
		defs[i] = quoteIdent(col) + " TEXT"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, quoteIdent(b.table.String()), strings.Join(defs, ", ")) //nolint:gosec // identifiers are quoted
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", b.table, err)
	}
	return nil
}

// insertRows inserts the pending rows of a batch with one prepared statement
func insertRows(ctx context.Context, tx *sql.Tx, b *batch) error {
	if len(b.rows) == 0 {
		return nil
	}

	cols := make([]string, len(b.columns))
	for i, col := range b.columns {
		cols[i] = quoteIdent(col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(b.columns)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, quoteIdent(b.table.String()), strings.Join(cols, ", "), placeholders) //nolint:gosec // identifiers are quoted

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, values := range b.rows {
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", b.table, err)
		}
	}
	return nil
}
