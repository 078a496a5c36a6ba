// Package fastupdate performs bulk row updates against PostgreSQL by
// loading encoded records into a transaction-scoped temporary table
// with COPY FROM and reconciling with a single set-based UPDATE join.
//
// Compared to per-row UPDATE statements this turns an O(rows) round-trip
// pattern into one streamed ingestion plus one join, which is typically
// one to two orders of magnitude faster for large batches.
//
// The package splits into:
//   - catalog: field and table descriptors supplied by the caller's
//     introspection layer
//   - encoding: COPY TEXT escaping, per-type encoder pairs, the
//     encoder registry and the lazy sink for large binary payloads
//   - stream: the batching writer and the pipe session that streams
//     oversized payloads through a background drain goroutine
//   - pgsink: the pgx-backed database adapter
//   - arrowsource: a record source reading rows from Arrow batches
//
// # Quick start
//
//	table := catalog.NewStaticTable("accounts",
//	    catalog.Field{Name: "id", Column: "id", Type: catalog.TypeInt, DBType: "bigserial"},
//	    catalog.Field{Name: "name", Column: "name", Type: catalog.TypeText, Nullable: true, DBType: "text"},
//	)
//
//	tx, _ := conn.Begin(ctx)
//	defer tx.Rollback(ctx)
//
//	n, err := fastupdate.CopyUpdate(ctx, pgsink.Tx(tx), table,
//	    fastupdate.MapRecords(records), []string{"name"})
//	if err != nil {
//	    return err
//	}
//	return tx.Commit(ctx)
//
// The caller owns the transaction: CopyUpdate never commits or rolls
// back, and any encoding or transport error propagates out so the
// caller's rollback makes partial temp-table writes invisible.
package fastupdate
