// Package sqlsink loads decoded entities into a SQLite database.
//
// A Sink is a csventity.Handler: register it on a csventity.Reader and every
// entity is encoded back to its named row and buffered. The reader flushes
// handlers after each resource, and each Flush writes the buffered rows in
// one transaction. Every record type gets one table named after its
// resource, with one TEXT column per schema column.
//
//	db, err := sqlsink.Open(ctx, ":memory:")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	sink := sqlsink.New(db, registry)
//	reader.AddHandler(sink)
//	if err := reader.ReadAll(ctx); err != nil {
//		return err
//	}
//
//	rows, err := db.QueryContext(ctx, `SELECT stop_name FROM stops`)
package sqlsink
