// Package schema compiles a JSON Schema document into the canonical regex
// string (spec §4.B). The compiler is a recursive descent keyed on which
// schema keywords are present.
package schema

import "github.com/screenager/constrain/regexconst"

// Options controls the compiler.
type Options struct {
	// WhitespacePattern overrides regexconst.WHITESPACE at every
	// structurally-free position.
	WhitespacePattern string
	// MaxRecursionDepth bounds $ref traversal depth. Default 3.
	MaxRecursionDepth int
	// MaxPropertyDepth bounds how deep an unconstrained "any JSON value"
	// expansion (empty object, bare additionalProperties: true) recurses
	// into nested objects/arrays before degrading to scalars only. Default 2.
	MaxPropertyDepth int
}

// DefaultOptions returns {whitespace_pattern: regexconst.WHITESPACE,
// max_recursion_depth: 3} plus MaxPropertyDepth: 2, per spec §4.B/§9.
func DefaultOptions() Options {
	return Options{
		WhitespacePattern: regexconst.WHITESPACE,
		MaxRecursionDepth: 3,
		MaxPropertyDepth:  2,
	}
}

func (o Options) ws() string {
	if o.WhitespacePattern == "" {
		return regexconst.WHITESPACE
	}
	return o.WhitespacePattern
}

func (o Options) maxRefDepth() int {
	if o.MaxRecursionDepth <= 0 {
		return 3
	}
	return o.MaxRecursionDepth
}

func (o Options) maxPropertyDepth() int {
	if o.MaxPropertyDepth <= 0 {
		return 2
	}
	return o.MaxPropertyDepth
}
