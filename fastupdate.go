package fastupdate

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/pgtools/fastupdate/catalog"
	"github.com/pgtools/fastupdate/encoding"
	"github.com/pgtools/fastupdate/stream"
)

// DB is the database surface CopyUpdate needs: plain statement
// execution and bulk ingestion from a byte stream. pgsink.Tx adapts a
// pgx transaction; tests substitute fakes. The caller scopes the DB to
// one transaction, which also scopes the temporary relation.
type DB interface {
	// Exec runs a statement and returns the affected row count.
	Exec(ctx context.Context, sql string) (int64, error)

	// CopyFrom ingests COPY TEXT rows for the given relation and
	// column list, reading r to EOF.
	CopyFrom(ctx context.Context, r io.Reader, table string, columns []string) (int64, error)
}

// Fallback updates the fields the streaming path cannot handle
// (non-local fields). It receives only the field names; the records
// stay with the caller. Returns the affected row count.
type Fallback func(ctx context.Context, fieldNames []string) (int64, error)

// Option configures a CopyUpdate call.
type Option func(*config)

type config struct {
	registry  *encoding.Registry
	overrides map[string]encoding.EncodeFunc
	fallback  Fallback
	logger    *slog.Logger
}

// WithRegistry substitutes the encoder registry. The default is a
// fresh NewRegistry.
func WithRegistry(r *encoding.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithFieldEncoders overrides resolved encoders per field name. An
// override replaces the registry's choice entirely, including null
// handling.
func WithFieldEncoders(encs map[string]encoding.EncodeFunc) Option {
	return func(c *config) { c.overrides = encs }
}

// WithFallback installs the updater for non-local fields.
func WithFallback(f Fallback) Option {
	return func(c *config) { c.fallback = f }
}

// WithLogger sets the logger for operational debug events. The default
// is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// CopyUpdate bulk-updates the named fields of table for every record in
// recs, matching rows by primary key. Records are encoded into the COPY
// TEXT format, streamed into a temporary relation mirroring the target
// columns, and reconciled with one set-based UPDATE join. Fields not
// stored on the relation itself are delegated to the configured
// fallback updater.
//
// CopyUpdate must run inside a transaction owned by the caller; on
// error the caller's rollback discards all temp-relation writes.
// The returned count is the join update's affected rows, reconciled
// with the fallback's count (maximum of the two) when both paths ran.
func CopyUpdate(ctx context.Context, db DB, table catalog.Table, recs RecordSource, fieldNames []string, opts ...Option) (int64, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = encoding.NewRegistry()
	}
	if len(fieldNames) == 0 {
		return 0, ErrNoFields
	}

	// Partition into locally stored fields (streamable) and the rest.
	var local []catalog.Field
	var nonLocal []string
	for _, name := range fieldNames {
		if !table.IsLocal(name) {
			if _, err := table.Field(name); err != nil {
				return 0, err
			}
			nonLocal = append(nonLocal, name)
			continue
		}
		f, err := table.Field(name)
		if err != nil {
			return 0, err
		}
		local = append(local, f)
	}
	if len(nonLocal) > 0 && cfg.fallback == nil {
		return 0, ErrNoFallback
	}
	if len(local) == 0 {
		return cfg.fallback(ctx, nonLocal)
	}

	// The primary key travels with every row so the join can match.
	fields := append([]catalog.Field{table.PrimaryKey()}, local...)
	encs := make([]encoding.EncodeFunc, len(fields))
	columns := make([]string, len(fields))
	for i, f := range fields {
		enc, err := cfg.registry.Resolve(f)
		if err != nil {
			return 0, err
		}
		if override, ok := cfg.overrides[f.Name]; ok {
			enc = override
		}
		encs[i] = enc
		columns[i] = f.Column
	}

	temp := "temp_cu_" + table.Name()
	cfg.logger.Debug("bulk update via temp relation",
		"table", table.Name(), "temp", temp, "fields", len(local), "non_local", len(nonLocal))

	if _, err := db.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(temp)); err != nil {
		return 0, err
	}
	if _, err := db.Exec(ctx, createTempSQL(temp, fields)); err != nil {
		return 0, err
	}

	w := stream.NewWriter(db, temp, columns)
	defer w.Close()
	values := make([]any, len(fields))
	for recs.Next() {
		for i, f := range fields {
			v, err := recs.Get(f.Name)
			if err != nil {
				return 0, err
			}
			values[i] = v
		}
		if err := w.WriteRow(ctx, values, encs); err != nil {
			return 0, err
		}
	}
	if err := recs.Err(); err != nil {
		return 0, err
	}
	loaded, err := w.Flush(ctx)
	if err != nil {
		return 0, err
	}
	cfg.logger.Debug("temp relation loaded", "temp", temp, "rows", loaded)

	// Fresh statistics on the key column help the planner pick a sane
	// join for the reconciliation update.
	pk := table.PrimaryKey()
	if _, err := db.Exec(ctx, "ANALYZE "+quoteIdent(temp)+" ("+quoteIdent(pk.Column)+")"); err != nil {
		return 0, err
	}
	updated, err := db.Exec(ctx, updateSQL(table.Name(), temp, pk.Column, local))
	if err != nil {
		return 0, err
	}
	if _, err := db.Exec(ctx, "DROP TABLE "+quoteIdent(temp)); err != nil {
		return 0, err
	}

	if len(nonLocal) > 0 {
		n, err := cfg.fallback(ctx, nonLocal)
		if err != nil {
			return 0, err
		}
		updated = max(updated, n)
	}
	return updated, nil
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// serialStripper rewrites auto-increment storage types to their plain
// integer counterparts: the temp relation must accept explicit values
// for what the target generates. Longest names first so "bigserial"
// never matches as "serial".
var serialStripper = strings.NewReplacer(
	"bigserial", "bigint",
	"smallserial", "smallint",
	"serial", "integer",
)

// createTempSQL mirrors the target columns' storage types verbatim,
// minus serial modifiers, with no constraints or indexes.
func createTempSQL(temp string, fields []catalog.Field) string {
	var b strings.Builder
	b.WriteString("CREATE TEMPORARY TABLE ")
	b.WriteString(quoteIdent(temp))
	b.WriteString(" (")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(quoteIdent(f.Column))
		b.WriteString(" ")
		b.WriteString(serialStripper.Replace(f.DBType))
	}
	b.WriteString(")")
	return b.String()
}

// updateSQL builds the single set-based reconciliation update.
func updateSQL(table, temp, pkColumn string, fields []catalog.Field) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" SET ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(quoteIdent(f.Column))
		b.WriteString("=")
		b.WriteString(quoteIdent(temp))
		b.WriteString(".")
		b.WriteString(quoteIdent(f.Column))
	}
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(temp))
	b.WriteString(" WHERE ")
	b.WriteString(quoteIdent(table))
	b.WriteString(".")
	b.WriteString(quoteIdent(pkColumn))
	b.WriteString("=")
	b.WriteString(quoteIdent(temp))
	b.WriteString(".")
	b.WriteString(quoteIdent(pkColumn))
	return b.String()
}
