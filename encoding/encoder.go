package encoding

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/shopspring/decimal"
)

// inlineBinaryLimit is the largest payload hex-encoded inline during row
// building. Anything larger is deferred to the lazy sink so the hex
// digits never take the text round-trip.
const inlineBinaryLimit = 4096

// EncodeFunc appends the wire representation of v to dst. Encoders are
// pure except for registering deferred values on lazy. A value whose
// runtime type disagrees with the encoder yields a *TypeError.
type EncodeFunc func(dst []byte, v any, lazy *Lazy) ([]byte, error)

// TypeError reports a value whose runtime type does not match the
// field's declared encoder.
type TypeError struct {
	// Want names the expected Go type(s).
	Want string
	// OrNil is set when the encoder also accepts nil.
	OrNil bool
	// Got is the offending value.
	Got any
}

func (e *TypeError) Error() string {
	if e.OrNil {
		return fmt.Sprintf("expected %s or nil, got %T", e.Want, e.Got)
	}
	return fmt.Sprintf("expected %s, got %T", e.Want, e.Got)
}

// nullable wraps a strict encoder: nil encodes as the NULL token, any
// other mismatch keeps erroring (with "or nil" added to the message).
func nullable(enc EncodeFunc) EncodeFunc {
	return func(dst []byte, v any, lazy *Lazy) ([]byte, error) {
		if v == nil {
			return append(dst, Null...), nil
		}
		out, err := enc(dst, v, lazy)
		if terr, ok := err.(*TypeError); ok {
			terr.OrNil = true
		}
		return out, err
	}
}

// PostgreSQL literal layouts for time.Time values.
const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05.999999-07:00"
	timeLayout      = "15:04:05.999999"
)

// Int passes along any Go integer, errors for any other type.
func Int(dst []byte, v any, _ *Lazy) ([]byte, error) {
	switch n := v.(type) {
	case int:
		return strconv.AppendInt(dst, int64(n), 10), nil
	case int64:
		return strconv.AppendInt(dst, n, 10), nil
	case int32:
		return strconv.AppendInt(dst, int64(n), 10), nil
	case int16:
		return strconv.AppendInt(dst, int64(n), 10), nil
	case int8:
		return strconv.AppendInt(dst, int64(n), 10), nil
	case uint:
		return strconv.AppendUint(dst, uint64(n), 10), nil
	case uint64:
		return strconv.AppendUint(dst, n, 10), nil
	case uint32:
		return strconv.AppendUint(dst, uint64(n), 10), nil
	case uint16:
		return strconv.AppendUint(dst, uint64(n), 10), nil
	case uint8:
		return strconv.AppendUint(dst, uint64(n), 10), nil
	}
	return dst, &TypeError{Want: "integer", Got: v}
}

// Float accepts both floating point and integer input.
func Float(dst []byte, v any, lazy *Lazy) ([]byte, error) {
	switch f := v.(type) {
	case float64:
		return strconv.AppendFloat(dst, f, 'g', -1, 64), nil
	case float32:
		return strconv.AppendFloat(dst, float64(f), 'g', -1, 32), nil
	}
	if out, err := Int(dst, v, lazy); err == nil {
		return out, nil
	}
	return dst, &TypeError{Want: "float64, float32 or integer", Got: v}
}

// Bool renders bool as the canonical t/f literals.
func Bool(dst []byte, v any, _ *Lazy) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return dst, &TypeError{Want: "bool", Got: v}
	}
	if b {
		return append(dst, 't'), nil
	}
	return append(dst, 'f'), nil
}

// Text escapes a string for scalar position.
func Text(dst []byte, v any, _ *Lazy) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return dst, &TypeError{Want: "string", Got: v}
	}
	return AppendEscaped(dst, s), nil
}

// Date renders a time.Time as a date literal.
func Date(dst []byte, v any, _ *Lazy) ([]byte, error) {
	t, ok := v.(time.Time)
	if !ok {
		return dst, &TypeError{Want: "time.Time", Got: v}
	}
	return t.AppendFormat(dst, dateLayout), nil
}

// Timestamp renders a time.Time as a timestamp literal with zone offset.
func Timestamp(dst []byte, v any, _ *Lazy) ([]byte, error) {
	t, ok := v.(time.Time)
	if !ok {
		return dst, &TypeError{Want: "time.Time", Got: v}
	}
	return t.AppendFormat(dst, timestampLayout), nil
}

// TimeOfDay renders the clock part of a time.Time.
func TimeOfDay(dst []byte, v any, _ *Lazy) ([]byte, error) {
	t, ok := v.(time.Time)
	if !ok {
		return dst, &TypeError{Want: "time.Time", Got: v}
	}
	return t.AppendFormat(dst, timeLayout), nil
}

// Duration renders a time.Duration as an interval literal in
// microseconds, the finest granularity both sides share.
func Duration(dst []byte, v any, _ *Lazy) ([]byte, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return dst, &TypeError{Want: "time.Duration", Got: v}
	}
	dst = strconv.AppendInt(dst, d.Microseconds(), 10)
	return append(dst, " microseconds"...), nil
}

// Numeric passes along a decimal.Decimal.
func Numeric(dst []byte, v any, _ *Lazy) ([]byte, error) {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return dst, &TypeError{Want: "decimal.Decimal", Got: v}
	}
	return append(dst, d.String()...), nil
}

// Uuid passes along a uuid.UUID.
func Uuid(dst []byte, v any, _ *Lazy) ([]byte, error) {
	u, ok := v.(uuid.UUID)
	if !ok {
		return dst, &TypeError{Want: "uuid.UUID", Got: v}
	}
	return append(dst, u.String()...), nil
}

// Json serializes v to JSON and escapes the result for scalar position.
// Go nil serializes to the JSON null literal; the nullable counterpart
// JsonOrNil maps nil to the SQL NULL token instead. The asymmetry is
// deliberate and matches what callers already have on disk.
func Json(dst []byte, v any, _ *Lazy) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return dst, fmt.Errorf("json encode: %w", err)
	}
	return AppendEscaped(dst, string(raw)), nil
}

// JsonOrNil is the nullable JSON encoder. See Json for the null
// handling asymmetry.
func JsonOrNil(dst []byte, v any, lazy *Lazy) ([]byte, error) {
	if v == nil {
		return append(dst, Null...), nil
	}
	return Json(dst, v, lazy)
}

// Binary emits []byte in the COPY TEXT hex form: an escaped \x prefix
// followed by hex digits. Payloads above inlineBinaryLimit defer hex
// conversion to the lazy sink and emit a placeholder instead.
func Binary(dst []byte, v any, lazy *Lazy) ([]byte, error) {
	raw, ok := v.([]byte)
	if !ok {
		return dst, &TypeError{Want: "[]byte", Got: v}
	}
	dst = append(dst, `\\x`...)
	if len(raw) > inlineBinaryLimit {
		lazy.Defer(writeHex, raw)
		return append(dst, Placeholder), nil
	}
	return append(dst, hex.EncodeToString(raw)...), nil
}

// HStore encodes a string-keyed map as comma-joined "key"=>value pairs.
// Values must be strings or nil (rendered as the bareword NULL). Keys
// are emitted in sorted order so identical maps encode identically.
// Accepted inputs: map[string]string, map[string]*string, map[string]any.
func HStore(dst []byte, v any, _ *Lazy) ([]byte, error) {
	var keys []string
	var get func(k string) (string, bool) // (value, null)

	switch m := v.(type) {
	case map[string]string:
		for k := range m {
			keys = append(keys, k)
		}
		get = func(k string) (string, bool) { return m[k], false }
	case map[string]*string:
		for k := range m {
			keys = append(keys, k)
		}
		get = func(k string) (string, bool) {
			if p := m[k]; p != nil {
				return *p, false
			}
			return "", true
		}
	case map[string]any:
		for k, mv := range m {
			if mv != nil {
				if _, ok := mv.(string); !ok {
					return dst, &TypeError{Want: "string for hstore values", OrNil: true, Got: mv}
				}
			}
			keys = append(keys, k)
		}
		get = func(k string) (string, bool) {
			if m[k] == nil {
				return "", true
			}
			return m[k].(string), false
		}
	default:
		return dst, &TypeError{Want: "map with string keys and string-or-nil values", Got: v}
	}

	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendNestedQuoted(dst, k)
		dst = append(dst, "=>"...)
		if val, isNull := get(k); isNull {
			dst = append(dst, NestedNull...)
		} else {
			dst = AppendNestedQuoted(dst, val)
		}
	}
	return dst, nil
}

// Geometry marshals an orb.Geometry to WKB and emits it as hex, the
// literal input form PostGIS accepts for geometry columns. Large
// geometries take the lazy path like Binary does.
func Geometry(dst []byte, v any, lazy *Lazy) ([]byte, error) {
	g, ok := v.(orb.Geometry)
	if !ok {
		return dst, &TypeError{Want: "orb.Geometry", Got: v}
	}
	raw, err := wkb.Marshal(g)
	if err != nil {
		return dst, fmt.Errorf("wkb encode: %w", err)
	}
	if len(raw) > inlineBinaryLimit {
		lazy.Defer(writeHex, raw)
		return append(dst, Placeholder), nil
	}
	return append(dst, hex.EncodeToString(raw)...), nil
}
