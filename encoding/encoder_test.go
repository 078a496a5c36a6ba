package encoding

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

func encode(t *testing.T, enc EncodeFunc, v any) string {
	t.Helper()
	out, err := enc(nil, v, &Lazy{})
	if err != nil {
		t.Fatalf("encode %v: %v", v, err)
	}
	return string(out)
}

func mustFail(t *testing.T, enc EncodeFunc, v any) {
	t.Helper()
	_, err := enc(nil, v, &Lazy{})
	if err == nil {
		t.Fatalf("encode %v: expected error", v)
	}
	var terr *TypeError
	if !errors.As(err, &terr) {
		t.Fatalf("encode %v: expected *TypeError, got %v", v, err)
	}
}

func TestScalarEncoders(t *testing.T) {
	mst := time.FixedZone("MST", -7*60*60)
	tests := []struct {
		name string
		enc  EncodeFunc
		v    any
		want string
	}{
		{"int", Int, 42, "42"},
		{"int64", Int, int64(-7), "-7"},
		{"uint64", Int, uint64(18446744073709551615), "18446744073709551615"},
		{"float", Float, 1.5, "1.5"},
		{"float accepts int", Float, 3, "3"},
		{"bool true", Bool, true, "t"},
		{"bool false", Bool, false, "f"},
		{"text", Text, "a\tb", `a\tb`},
		{"date", Date, time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC), "2024-03-09"},
		{"timestamp", Timestamp, time.Date(2024, 3, 9, 10, 30, 0, 250000000, mst), "2024-03-09 10:30:00.25-07:00"},
		{"time of day", TimeOfDay, time.Date(0, 1, 1, 23, 59, 1, 500000000, time.UTC), "23:59:01.5"},
		{"duration", Duration, 90 * time.Second, "90000000 microseconds"},
		{"decimal", Numeric, decimal.RequireFromString("12.3400"), "12.34"},
		{"uuid", Uuid, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encode(t, tt.enc, tt.v); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeMismatches(t *testing.T) {
	tests := []struct {
		name string
		enc  EncodeFunc
		v    any
	}{
		{"int rejects string", Int, "1"},
		{"int rejects float", Int, 1.0},
		{"bool rejects int", Bool, 1},
		{"text rejects bytes", Text, []byte("x")},
		{"date rejects string", Date, "2024-03-09"},
		{"duration rejects int", Duration, 90},
		{"decimal rejects float", Numeric, 12.34},
		{"uuid rejects string", Uuid, "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"binary rejects string", Binary, "deadbeef"},
		{"hstore rejects slice", HStore, []string{"k", "v"}},
		{"geometry rejects bytes", Geometry, []byte{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustFail(t, tt.enc, tt.v)
		})
	}
}

func TestNullableEncoders(t *testing.T) {
	enc := nullable(Int)
	if got := encode(t, enc, nil); got != `\N` {
		t.Errorf("nil = %q, want \\N", got)
	}
	if got := encode(t, enc, 5); got != "5" {
		t.Errorf("5 = %q", got)
	}
	_, err := enc(nil, "x", &Lazy{})
	var terr *TypeError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TypeError, got %v", err)
	}
	if !terr.OrNil {
		t.Error("nullable mismatch should mention nil in the error")
	}
	if !strings.Contains(terr.Error(), "or nil") {
		t.Errorf("error %q should name the nil alternative", terr.Error())
	}
}

func TestJsonNullAsymmetry(t *testing.T) {
	// The strict encoder serializes nil as the JSON null literal, the
	// nullable one as SQL NULL. Existing rows depend on this split.
	if got := encode(t, Json, nil); got != "null" {
		t.Errorf("strict Json(nil) = %q, want null literal", got)
	}
	if got := encode(t, JsonOrNil, nil); got != `\N` {
		t.Errorf("JsonOrNil(nil) = %q, want \\N", got)
	}
}

func TestJsonEscapesOutput(t *testing.T) {
	got := encode(t, Json, map[string]string{"k": "a\tb"})
	// go-json renders the tab as \t inside the JSON string; the COPY
	// escaping then doubles the backslash.
	want := `{"k":"a\\tb"}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBinaryInline(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	if got := encode(t, Binary, raw); got != `\\xdeadbeef` {
		t.Errorf("got %q", got)
	}
}

func TestBinaryDeferral(t *testing.T) {
	inline := bytes.Repeat([]byte{0xab}, 4096)
	var lazy Lazy
	out, err := Binary(nil, inline, &lazy)
	if err != nil {
		t.Fatal(err)
	}
	if lazy.Pending() {
		t.Error("4096 bytes must encode inline")
	}
	if want := `\\x` + hex.EncodeToString(inline); string(out) != want {
		t.Error("inline hex mismatch")
	}

	big := bytes.Repeat([]byte{0xcd}, 4097)
	lazy = Lazy{}
	out, err = Binary(nil, big, &lazy)
	if err != nil {
		t.Fatal(err)
	}
	if !lazy.Pending() {
		t.Fatal("4097 bytes must defer")
	}
	if want := `\\x` + string([]byte{Placeholder}); string(out) != want {
		t.Errorf("deferred fragment = %q, want prefix plus placeholder", out)
	}

	// Deferral is a pure optimization: the flushed output must be
	// byte-identical to the inline path.
	var flushed bytes.Buffer
	if err := lazy.Flush(&flushed, out); err != nil {
		t.Fatal(err)
	}
	if want := `\\x` + hex.EncodeToString(big); flushed.String() != want {
		t.Error("deferred output differs from inline hex")
	}
}

func TestHStore(t *testing.T) {
	strp := func(s string) *string { return &s }
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"simple", map[string]string{"k": "v"}, `"k"=>"v"`},
		{"quote escaped exactly once", map[string]string{"k": `v"q`}, `"k"=>"v\\"q"`},
		{"nil value is bareword NULL", map[string]*string{"k": nil}, `"k"=>NULL`},
		{"pointer value", map[string]*string{"k": strp("v")}, `"k"=>"v"`},
		{"any values", map[string]any{"a": "x", "b": nil}, `"a"=>"x","b"=>NULL`},
		{"sorted keys", map[string]string{"b": "2", "a": "1", "c": "3"}, `"a"=>"1","b"=>"2","c"=>"3"`},
		{"backslash in value", map[string]string{"k": `a\b`}, `"k"=>"a\\\\b"`},
		{"empty map", map[string]string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encode(t, HStore, tt.v); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := HStore(nil, map[string]any{"k": 1}, &Lazy{}); err == nil {
		t.Error("non-string hstore value must be rejected")
	}
}

func TestRanges(t *testing.T) {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	day := func(s string) time.Time {
		tv, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatal(err)
		}
		return tv
	}
	tests := []struct {
		name string
		enc  EncodeFunc
		v    any
		want string
	}{
		{"int half open", IntRange, NewRange(1, 10), "[1,10)"},
		{"int unbounded upper", IntRange, Range{Lower: 5, LowerInc: true}, "[5,)"},
		{"empty", IntRange, Range{Empty: true}, "empty"},
		{"inclusive both", IntRange, Range{Lower: 1, Upper: 2, LowerInc: true, UpperInc: true}, "[1,2]"},
		{"decimal", DecimalRange, NewRange(d("0.5"), d("2.75")), "[0.5,2.75)"},
		{"date", DateRange, NewRange(day("2024-01-01"), day("2024-02-01")), "[2024-01-01,2024-02-01)"},
		{"timestamp quoted bounds", TimestampRange,
			NewRange(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)),
			`["2024-01-01 08:00:00+00:00","2024-01-01 17:00:00+00:00")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encode(t, tt.enc, tt.v); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	mustFail(t, IntRange, NewRange("a", "b"))
	mustFail(t, DecimalRange, NewRange(1, 2))
	mustFail(t, DateRange, NewRange(1, 2))
	mustFail(t, IntRange, 5)
}

func TestGeometry(t *testing.T) {
	got := encode(t, Geometry, orb.Point{1, 2})
	raw, err := hex.DecodeString(got)
	if err != nil {
		t.Fatalf("geometry output is not hex: %v", err)
	}
	if len(raw) != 21 { // byte order + type + two float64 coordinates
		t.Errorf("unexpected WKB point length %d", len(raw))
	}
}
