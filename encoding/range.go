package encoding

import (
	"time"

	"github.com/shopspring/decimal"
)

// Range is a bounded-range value for the PostgreSQL range column types.
// A nil bound is unbounded on that side. The zero value with Empty set
// renders as the empty range.
type Range struct {
	Lower, Upper       any
	LowerInc, UpperInc bool
	Empty              bool
}

// NewRange returns the conventional half-open range [lower, upper).
func NewRange(lower, upper any) Range {
	return Range{Lower: lower, Upper: upper, LowerInc: true}
}

// boundFunc renders a single range bound, reporting false on a type
// mismatch.
type boundFunc func(dst []byte, v any) ([]byte, bool)

// rangeEncoder builds a strict encoder for one range flavor. The
// encoder type-checks both bounds against the flavor's element type and
// renders the literal range text; the driver-side range parsing does
// the rest.
func rangeEncoder(want string, bound boundFunc) EncodeFunc {
	return func(dst []byte, v any, _ *Lazy) ([]byte, error) {
		r, ok := v.(Range)
		if !ok {
			return dst, &TypeError{Want: "encoding.Range of " + want, Got: v}
		}
		if r.Empty {
			return append(dst, "empty"...), nil
		}
		mark := len(dst)
		if r.LowerInc {
			dst = append(dst, '[')
		} else {
			dst = append(dst, '(')
		}
		if r.Lower != nil {
			if dst, ok = bound(dst, r.Lower); !ok {
				return dst[:mark], &TypeError{Want: want + " range bounds", Got: r.Lower}
			}
		}
		dst = append(dst, ',')
		if r.Upper != nil {
			if dst, ok = bound(dst, r.Upper); !ok {
				return dst[:mark], &TypeError{Want: want + " range bounds", Got: r.Upper}
			}
		}
		if r.UpperInc {
			return append(dst, ']'), nil
		}
		return append(dst, ')'), nil
	}
}

func intBound(dst []byte, v any) ([]byte, bool) {
	out, err := Int(dst, v, nil)
	return out, err == nil
}

func decimalBound(dst []byte, v any) ([]byte, bool) {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return dst, false
	}
	return append(dst, d.String()...), true
}

func dateBound(dst []byte, v any) ([]byte, bool) {
	t, ok := v.(time.Time)
	if !ok {
		return dst, false
	}
	return t.AppendFormat(dst, dateLayout), true
}

// timestampBound quotes the bound: timestamp literals contain a space,
// which the range grammar only allows inside double quotes.
func timestampBound(dst []byte, v any) ([]byte, bool) {
	t, ok := v.(time.Time)
	if !ok {
		return dst, false
	}
	dst = append(dst, '"')
	dst = t.AppendFormat(dst, timestampLayout)
	return append(dst, '"'), true
}

// Range encoders for the built-in range flavors.
var (
	IntRange       = rangeEncoder("integer", intBound)
	DecimalRange   = rangeEncoder("decimal.Decimal", decimalBound)
	DateRange      = rangeEncoder("date", dateBound)
	TimestampRange = rangeEncoder("timestamp", timestampBound)
)
