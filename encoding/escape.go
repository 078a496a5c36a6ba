// Package encoding converts typed Go values into PostgreSQL's COPY FROM
// TEXT wire format. It provides the escaping primitives for scalar and
// nested (composite) positions, strict/nullable encoder pairs for the
// built-in column types, a constructible encoder registry, and a lazy
// sink that defers hex conversion of large binary payloads to stream
// flush time.
package encoding

import "strings"

// Null is the scalar NULL token of the COPY TEXT format.
const Null = `\N`

// NestedNull is the NULL token inside composite values (hstore, arrays).
// Nested values fall back to SQL literal syntax, where NULL is a bareword.
const NestedNull = "NULL"

// Placeholder marks the position of a deferred binary value in the row
// buffer. NUL bytes cannot occur in COPY payload, so the marker is
// unambiguous during substitution.
const Placeholder = byte(0x00)

// scalarEscaper rewrites the characters the COPY TEXT format requires to
// be escaped. strings.Replacer substitutes in a single pass, so an
// escape-produced backslash is never escaped again.
var scalarEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\b", `\b`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\v", `\v`,
)

// nestedEscaper is the composite-position variant. Nested values pass
// through one extra layer of the wire grammar, so a literal backslash
// needs the quadrupled form.
var nestedEscaper = strings.NewReplacer(
	`\`, `\\\\`,
	"\b", `\b`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\v", `\v`,
)

// quoteEscaper escapes double quotes inside an already nested-escaped
// string before it is wrapped in quotes.
var quoteEscaper = strings.NewReplacer(`"`, `\\"`)

// AppendEscaped appends s to dst with scalar COPY TEXT escaping applied.
func AppendEscaped(dst []byte, s string) []byte {
	return append(dst, scalarEscaper.Replace(s)...)
}

// AppendNested appends s to dst with nested (composite) escaping applied.
func AppendNested(dst []byte, s string) []byte {
	return append(dst, nestedEscaper.Replace(s)...)
}

// AppendNestedQuoted appends s to dst as a quoted nested string: nested
// escaping, internal double quotes escaped, the whole wrapped in double
// quotes. Nested string values are always quoted on the wire.
func AppendNestedQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = append(dst, quoteEscaper.Replace(nestedEscaper.Replace(s))...)
	return append(dst, '"')
}
