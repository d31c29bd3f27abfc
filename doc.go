// Package csventity reads and writes typed entities stored as comma-delimited
// text resources, one resource per record type, grouped in a directory or a
// zip archive.
//
// csventity is tolerant of the files real exporters produce: a leading byte
// order mark, CRLF line endings, blank lines, a trailing SUB line, trailing
// delimiters, short lines and unquoted fields are all accepted. Columns are
// matched by header name, so resources may carry columns in any order and
// columns no schema knows about are ignored.
//
// # Features
//
//   - Schemas map columns to entity properties through typed Field values,
//     no reflection on entity fields
//   - Text, integer, float, boolean, date and composite identifier kinds,
//     plus caller supplied converters
//   - Extension schemas that add columns to an existing record type
//   - Dynamic records and YAML schema configuration for record types
//     declared at runtime
//   - Directory, zip archive and fs.FS stores; directory and zip sinks
//   - Streaming reads: entities are pushed to handlers line by line
//   - Optional columns that no entity sets can be dropped on write
//
// # Reading
//
//	registry, err := csventity.NewRegistry(stopSchema, agencySchema)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reader, err := csventity.OpenReader("feed.zip", registry, csventity.NewReadOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//
//	stops := csventity.NewCollector[Stop]()
//	reader.AddHandler(stops)
//	reader.AddRecordTypes("agency", "stop")
//	if err := reader.ReadAll(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Record types are read one after another in the configured order. A
// required resource that is missing fails the read; an optional one is
// skipped. Handlers that implement Flusher are flushed after every resource.
//
// # Writing
//
//	writer, err := csventity.CreateWriter("out.zip", registry, csventity.NewWriteOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer writer.Close()
//
//	for _, stop := range stops {
//	    if err := writer.Handle(stop); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// The first entity of a record type emits the header line. In a zip archive
// each record type is one entry, so all entities of a type must be written
// before the next type starts.
//
// # Errors
//
// Failures are returned as *EntityError carrying the record type, resource
// and line number. Use errors.Is with ErrTokenize, ErrSchemaViolation,
// ErrMissingRequiredResource and the other sentinel errors to classify them.
//
// # Loading into SQLite
//
// The sqlsink subpackage provides a Handler that loads entities into SQLite
// tables, one table per resource.
package csventity
