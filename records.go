package fastupdate

import "fmt"

// RecordSource iterates the records of one bulk operation. The core
// consumes it exactly once, in order.
type RecordSource interface {
	// Next advances to the next record, reporting false when the
	// sequence is exhausted.
	Next() bool

	// Get returns the current record's value for the named field. nil
	// means SQL NULL.
	Get(field string) (any, error)

	// Err returns the first error encountered while producing records.
	Err() error
}

// Records adapts a slice to a RecordSource using an accessor function.
func Records[T any](items []T, get func(item T, field string) (any, error)) RecordSource {
	return &sliceSource[T]{items: items, get: get, idx: -1}
}

type sliceSource[T any] struct {
	items []T
	get   func(item T, field string) (any, error)
	idx   int
}

func (s *sliceSource[T]) Next() bool {
	s.idx++
	return s.idx < len(s.items)
}

func (s *sliceSource[T]) Get(field string) (any, error) {
	return s.get(s.items[s.idx], field)
}

func (s *sliceSource[T]) Err() error { return nil }

// MapRecords adapts a slice of field-keyed maps. A record missing a
// requested field is an error; an explicit nil value is SQL NULL.
func MapRecords(records []map[string]any) RecordSource {
	return Records(records, func(rec map[string]any, field string) (any, error) {
		v, ok := rec[field]
		if !ok {
			return nil, fmt.Errorf("record has no value for field %q", field)
		}
		return v, nil
	})
}
