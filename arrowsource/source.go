// Package arrowsource reads bulk-update records straight out of Apache
// Arrow record batches, so columnar pipelines can reconcile into
// PostgreSQL without converting to row structs first.
package arrowsource

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Source adapts an arrow.Record to fastupdate.RecordSource. Field names
// are matched against the record's schema column names; Arrow nulls map
// to SQL NULL. The source does not retain the record beyond its own
// lifetime; the caller keeps ownership and releases it.
type Source struct {
	rec  arrow.Record
	cols map[string]int
	row  int
	err  error
}

// New creates a source over one record batch.
func New(rec arrow.Record) *Source {
	cols := make(map[string]int, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		cols[f.Name] = i
	}
	return &Source{rec: rec, cols: cols, row: -1}
}

// Next implements fastupdate.RecordSource.
func (s *Source) Next() bool {
	if s.err != nil {
		return false
	}
	s.row++
	return int64(s.row) < s.rec.NumRows()
}

// Get implements fastupdate.RecordSource.
func (s *Source) Get(field string) (any, error) {
	idx, ok := s.cols[field]
	if !ok {
		return nil, fmt.Errorf("arrow batch has no column %q", field)
	}
	col := s.rec.Column(idx)
	if col.IsNull(s.row) {
		return nil, nil
	}
	v, err := value(col, s.row)
	if err != nil {
		s.err = err
	}
	return v, err
}

// Err implements fastupdate.RecordSource.
func (s *Source) Err() error { return s.err }

func value(col arrow.Array, row int) (any, error) {
	switch a := col.(type) {
	case *array.Int8:
		return int64(a.Value(row)), nil
	case *array.Int16:
		return int64(a.Value(row)), nil
	case *array.Int32:
		return int64(a.Value(row)), nil
	case *array.Int64:
		return a.Value(row), nil
	case *array.Uint8:
		return uint64(a.Value(row)), nil
	case *array.Uint16:
		return uint64(a.Value(row)), nil
	case *array.Uint32:
		return uint64(a.Value(row)), nil
	case *array.Uint64:
		return a.Value(row), nil
	case *array.Float32:
		return a.Value(row), nil
	case *array.Float64:
		return a.Value(row), nil
	case *array.Boolean:
		return a.Value(row), nil
	case *array.String:
		return a.Value(row), nil
	case *array.LargeString:
		return a.Value(row), nil
	case *array.Binary:
		return a.Value(row), nil
	case *array.LargeBinary:
		return a.Value(row), nil
	case *array.Date32:
		return a.Value(row).ToTime(), nil
	case *array.Date64:
		return a.Value(row).ToTime(), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(row).ToTime(unit), nil
	}
	return nil, fmt.Errorf("unsupported arrow column type %s", col.DataType())
}
