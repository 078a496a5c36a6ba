// Package pgsink adapts a pgx transaction to the fastupdate.DB
// interface. COPY ingestion goes through the wire-level
// pgconn.CopyFrom, which streams the reader without materializing the
// payload.
package pgsink

import (
	"context"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Conn wraps a pgx.Tx for the duration of one bulk operation.
type Conn struct {
	tx pgx.Tx
}

// Tx adapts an open pgx transaction. The transaction stays owned by
// the caller; Conn never commits or rolls back.
func Tx(tx pgx.Tx) *Conn {
	return &Conn{tx: tx}
}

// Exec implements fastupdate.DB.
func (c *Conn) Exec(ctx context.Context, sql string) (int64, error) {
	tag, err := c.tx.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CopyFrom implements fastupdate.DB. It issues COPY ... FROM STDIN in
// TEXT format and feeds r to the server until EOF.
func (c *Conn) CopyFrom(ctx context.Context, r io.Reader, table string, columns []string) (int64, error) {
	tag, err := c.tx.Conn().PgConn().CopyFrom(ctx, r, copySQL(table, columns))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func copySQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("COPY ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(quoteIdent(col))
	}
	b.WriteString(") FROM STDIN")
	return b.String()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
