// Package regexconst holds the canonical, byte-exact regex fragments that
// the schema compiler (package schema) splices together: JSON scalar types
// and common string formats. WHITESPACE is deliberately narrow — permissive
// whitespace lets small models wander, so the default only tolerates a
// single optional space at each structurally-free position.
package regexconst

// WHITESPACE is the default pattern spliced at structurally-free positions
// (around braces, colons, commas, brackets) in a compiled object/array
// pattern. Override via schema.Options.WhitespacePattern.
const WHITESPACE = `[ ]?`

const (
	// STRING matches a JSON string literal, including escape sequences.
	STRING = `"(?:[^"\\\x00-\x1f]|\\.)*"`

	// STRING_INNER matches the *contents* of a JSON string, without the
	// surrounding quotes — used when min/maxLength bound the body.
	STRING_INNER = `(?:[^"\\\x00-\x1f]|\\.)`

	// INTEGER matches a JSON integer: optional minus, then digits with no
	// leading zero (unless the value is exactly 0).
	INTEGER = `(-)?(0|[1-9][0-9]*)`

	// NUMBER matches a JSON number: integer part, optional fraction, optional exponent.
	NUMBER = `(-)?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?`

	// BOOLEAN matches a JSON boolean literal.
	BOOLEAN = `(true|false)`

	// NULL matches the JSON null literal.
	NULL = `null`
)

// Format name constants, as accepted by a JSON Schema "format" keyword.
const (
	FormatDate     = "date"
	FormatDateTime = "date-time"
	FormatTime     = "time"
	FormatUUID     = "uuid"
	FormatURI      = "uri"
	FormatEmail    = "email"
)

// Formats maps a recognised JSON Schema "format" name to its regex body
// (unanchored, unquoted — the schema compiler wraps it in quotes).
var Formats = map[string]string{
	FormatDate:     `\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])`,
	FormatDateTime: `\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])T(([01]\d|2[0-3]):([0-5]\d):([0-5]\d)(\.\d+)?)(Z|[+-]([01]\d|2[0-3]):([0-5]\d))`,
	FormatTime:     `([01]\d|2[0-3]):([0-5]\d):([0-5]\d)(\.\d+)?(Z|[+-]([01]\d|2[0-3]):([0-5]\d))?`,
	FormatUUID:     `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	FormatURI:      `(https?|ftp)://[^\s/$.?#].[^\s]*`,
	FormatEmail:    `[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`,
}

// IsKnownFormat reports whether name is a recognised "format" value.
func IsKnownFormat(name string) bool {
	_, ok := Formats[name]
	return ok
}
