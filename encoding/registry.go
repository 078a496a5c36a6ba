package encoding

import (
	"fmt"

	"github.com/pgtools/fastupdate/catalog"
)

// Pair holds the two encoders of a type: Strict rejects nil, Nullable
// maps nil to the NULL token.
type Pair struct {
	Strict   EncodeFunc
	Nullable EncodeFunc
}

// ResolveError is returned when no encoder is registered for a field's
// type anywhere in its ancestry. It is raised at setup time, before any
// row is encoded.
type ResolveError struct {
	Field string
	Type  catalog.TypeID
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("no encoder registered for field %q (type %q)", e.Field, e.Type)
}

// Registry maps type identifiers to encoder pairs. Each registry is an
// independent object; concurrent bulk operations that need different
// encoders use separate registries instead of mutating shared state.
type Registry struct {
	pairs map[catalog.TypeID]Pair
}

// NewRegistry returns a registry populated with the built-in encoders.
func NewRegistry() *Registry {
	r := &Registry{pairs: make(map[catalog.TypeID]Pair, 24)}
	r.Register(catalog.TypeInt, Pair{Int, nullable(Int)})
	r.Register(catalog.TypeFloat, Pair{Float, nullable(Float)})
	r.Register(catalog.TypeBool, Pair{Bool, nullable(Bool)})
	r.Register(catalog.TypeText, Pair{Text, nullable(Text)})
	r.Register(catalog.TypeBinary, Pair{Binary, nullable(Binary)})
	r.Register(catalog.TypeDate, Pair{Date, nullable(Date)})
	r.Register(catalog.TypeTimestamp, Pair{Timestamp, nullable(Timestamp)})
	r.Register(catalog.TypeTime, Pair{TimeOfDay, nullable(TimeOfDay)})
	r.Register(catalog.TypeDuration, Pair{Duration, nullable(Duration)})
	r.Register(catalog.TypeDecimal, Pair{Numeric, nullable(Numeric)})
	r.Register(catalog.TypeJSON, Pair{Json, JsonOrNil})
	r.Register(catalog.TypeUUID, Pair{Uuid, nullable(Uuid)})
	r.Register(catalog.TypeHStore, Pair{HStore, nullable(HStore)})
	r.Register(catalog.TypeIntRange, Pair{IntRange, nullable(IntRange)})
	r.Register(catalog.TypeBigIntRange, Pair{IntRange, nullable(IntRange)})
	r.Register(catalog.TypeDecimalRange, Pair{DecimalRange, nullable(DecimalRange)})
	r.Register(catalog.TypeDateRange, Pair{DateRange, nullable(DateRange)})
	r.Register(catalog.TypeTimestampRange, Pair{TimestampRange, nullable(TimestampRange)})
	r.Register(catalog.TypeGeometry, Pair{Geometry, nullable(Geometry)})
	return r
}

// Register adds or replaces the encoder pair for a type identifier. A
// zero Nullable falls back to Strict; in that case Strict must handle
// nil itself.
func (r *Registry) Register(id catalog.TypeID, p Pair) {
	if p.Nullable == nil {
		p.Nullable = p.Strict
	}
	r.pairs[id] = p
}

// Lookup returns the pair registered for id.
func (r *Registry) Lookup(id catalog.TypeID) (Pair, bool) {
	p, ok := r.pairs[id]
	return p, ok
}

// Resolve returns the encoder for a field. Foreign keys resolve
// transitively through the referenced field. Lookup tries the field's
// type first, then its ancestry most-derived first; a miss at every
// level is a *ResolveError.
func (r *Registry) Resolve(f catalog.Field) (EncodeFunc, error) {
	if f.Ref != nil {
		return r.Resolve(*f.Ref)
	}
	for _, id := range append([]catalog.TypeID{f.Type}, f.Ancestry...) {
		if p, ok := r.pairs[id]; ok {
			if f.Nullable {
				return p.Nullable, nil
			}
			return p.Strict, nil
		}
	}
	return nil, &ResolveError{Field: f.Name, Type: f.Type}
}
