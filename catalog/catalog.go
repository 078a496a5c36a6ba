// Package catalog defines the read-only field and table descriptors the
// fastupdate core consumes. Descriptors are supplied by an external
// introspection layer (an ORM, a schema registry, a hand-written static
// table); this package fixes their shape and ships a static
// implementation for tests and simple callers.
package catalog

import "fmt"

// TypeID identifies a semantic column type. The built-in identifiers
// below cover the common PostgreSQL column types; callers may introduce
// their own identifiers and register encoders for them.
type TypeID string

// Built-in type identifiers.
const (
	TypeInt            TypeID = "integer"
	TypeFloat          TypeID = "float"
	TypeBool           TypeID = "boolean"
	TypeText           TypeID = "text"
	TypeBinary         TypeID = "bytea"
	TypeDate           TypeID = "date"
	TypeTimestamp      TypeID = "timestamp"
	TypeTime           TypeID = "time"
	TypeDuration       TypeID = "interval"
	TypeDecimal        TypeID = "numeric"
	TypeJSON           TypeID = "json"
	TypeUUID           TypeID = "uuid"
	TypeHStore         TypeID = "hstore"
	TypeIntRange       TypeID = "int4range"
	TypeBigIntRange    TypeID = "int8range"
	TypeDecimalRange   TypeID = "numrange"
	TypeDateRange      TypeID = "daterange"
	TypeTimestampRange TypeID = "tstzrange"
	TypeGeometry       TypeID = "geometry"
)

// Field describes a single column of a relation. Fields are immutable
// and supplied by the catalog; the core never mutates them.
type Field struct {
	// Name is the attribute name records are accessed by.
	Name string

	// Column is the storage column name.
	Column string

	// Type is the field's semantic type identifier.
	Type TypeID

	// Ancestry lists fallback type identifiers, most derived first.
	// Encoder resolution tries Type, then each ancestry entry in order,
	// so a custom type can reuse the encoders of its base type.
	Ancestry []TypeID

	// Nullable selects the null-accepting encoder of the resolved pair.
	Nullable bool

	// DBType is the native storage type string (e.g. "bigint",
	// "varchar(120)", "bigserial") used verbatim for temp-table DDL.
	DBType string

	// Ref points at the referenced field's descriptor for foreign keys.
	// Encoder resolution follows Ref transitively.
	Ref *Field
}

// Table describes the update target. Implementations are read-only from
// the core's point of view.
type Table interface {
	// Name returns the relation name.
	Name() string

	// PrimaryKey returns the primary key field descriptor.
	PrimaryKey() Field

	// Field returns the descriptor of a known field. Unknown names
	// return an *UnknownFieldError.
	Field(name string) (Field, error)

	// IsLocal reports whether the named field is stored on the relation
	// itself. Non-local fields cannot be streamed and are delegated to
	// the fallback updater.
	IsLocal(name string) bool
}

// UnknownFieldError is returned when a field name does not exist on the
// table at all.
type UnknownFieldError struct {
	Table string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("table %q has no field %q", e.Table, e.Field)
}

// StaticTable is an immutable Table built from explicit descriptors.
type StaticTable struct {
	name   string
	pk     Field
	fields map[string]Field
	remote map[string]struct{}
}

// NewStaticTable creates a static table from a primary key and its
// locally stored fields.
func NewStaticTable(name string, pk Field, fields ...Field) *StaticTable {
	t := &StaticTable{
		name:   name,
		pk:     pk,
		fields: make(map[string]Field, len(fields)+1),
		remote: make(map[string]struct{}),
	}
	t.fields[pk.Name] = pk
	for _, f := range fields {
		t.fields[f.Name] = f
	}
	return t
}

// WithRemote declares field names that exist on the model but are not
// stored on the relation (many-to-many, reverse relations). Returns the
// receiver for chaining.
func (t *StaticTable) WithRemote(names ...string) *StaticTable {
	for _, name := range names {
		t.remote[name] = struct{}{}
	}
	return t
}

// Name implements Table.
func (t *StaticTable) Name() string { return t.name }

// PrimaryKey implements Table.
func (t *StaticTable) PrimaryKey() Field { return t.pk }

// Field implements Table.
func (t *StaticTable) Field(name string) (Field, error) {
	if f, ok := t.fields[name]; ok {
		return f, nil
	}
	if _, ok := t.remote[name]; ok {
		return Field{Name: name}, nil
	}
	return Field{}, &UnknownFieldError{Table: t.name, Field: name}
}

// IsLocal implements Table.
func (t *StaticTable) IsLocal(name string) bool {
	_, ok := t.fields[name]
	return ok
}
