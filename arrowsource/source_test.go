package arrowsource

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func testRecord(t *testing.T) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64},
		{Name: "active", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "raw", Type: arrow.BinaryTypes.Binary},
		{Name: "seen", Type: arrow.FixedWidthTypes.Timestamp_us},
	}, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"alice", ""}, []bool{true, false})
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{0.5, 1.25}, nil)
	b.Field(3).(*array.BooleanBuilder).AppendValues([]bool{true, false}, nil)
	b.Field(4).(*array.BinaryBuilder).AppendValues([][]byte{{0xde}, {0xad}}, nil)
	ts, err := arrow.TimestampFromTime(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), arrow.Microsecond)
	if err != nil {
		t.Fatal(err)
	}
	b.Field(5).(*array.TimestampBuilder).AppendValues([]arrow.Timestamp{ts, ts}, nil)
	return b.NewRecord()
}

func TestSource(t *testing.T) {
	rec := testRecord(t)
	defer rec.Release()
	src := New(rec)

	if !src.Next() {
		t.Fatal("expected first row")
	}
	tests := []struct {
		field string
		want  any
	}{
		{"id", int64(1)},
		{"name", "alice"},
		{"score", 0.5},
		{"active", true},
	}
	for _, tt := range tests {
		got, err := src.Get(tt.field)
		if err != nil {
			t.Fatalf("Get(%q): %v", tt.field, err)
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}
	raw, err := src.Get("raw")
	if err != nil {
		t.Fatal(err)
	}
	if b, ok := raw.([]byte); !ok || len(b) != 1 || b[0] != 0xde {
		t.Errorf("Get(raw) = %v", raw)
	}
	seen, err := src.Get("seen")
	if err != nil {
		t.Fatal(err)
	}
	if ts, ok := seen.(time.Time); !ok || !ts.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Get(seen) = %v", seen)
	}

	if !src.Next() {
		t.Fatal("expected second row")
	}
	name, err := src.Get("name")
	if err != nil {
		t.Fatal(err)
	}
	if name != nil {
		t.Errorf("arrow null must map to nil, got %v", name)
	}

	if src.Next() {
		t.Error("expected exhaustion after two rows")
	}
	if src.Err() != nil {
		t.Errorf("Err() = %v", src.Err())
	}
}

func TestSourceUnknownColumn(t *testing.T) {
	rec := testRecord(t)
	defer rec.Release()
	src := New(rec)
	src.Next()
	if _, err := src.Get("bogus"); err == nil {
		t.Error("unknown column must error")
	}
}
