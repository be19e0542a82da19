// Package dslterm implements the regex-algebra DSL (spec §4.C): a tagged
// variant Term type with constructors, a pretty-printer, a match predicate,
// and a total lowering to the canonical regex string (package regexconst
// supplies the leaf fragments, package schema supplies the JsonSchema
// delegate).
//
// Terms are immutable values, freely shared; structural equality is by tree
// shape (see Equal). Every exported operation is a total function over the
// Kind variant — there is no dynamic dispatch, matching the "tagged variant
// + exhaustive match" replacement called for in place of the source's
// class-hierarchy dispatch.
package dslterm

import (
	"encoding/json"
	"fmt"

	"github.com/screenager/constrain/cfg"
	"github.com/screenager/constrain/kinderr"
)

// Kind tags which variant of Term a value holds.
type Kind int

const (
	KindLiteral Kind = iota
	KindRegex
	KindJSONSchema
	KindKleeneStar
	KindKleenePlus
	KindOptional
	KindAlternatives
	KindSequence
	KindQuantifyExact
	KindQuantifyMin
	KindQuantifyMax
	KindQuantifyBetween
	KindFSM
	KindCFG
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "Literal"
	case KindRegex:
		return "Regex"
	case KindJSONSchema:
		return "JsonSchema"
	case KindKleeneStar:
		return "KleeneStar"
	case KindKleenePlus:
		return "KleenePlus"
	case KindOptional:
		return "Optional"
	case KindAlternatives:
		return "Alternatives"
	case KindSequence:
		return "Sequence"
	case KindQuantifyExact:
		return "QuantifyExact"
	case KindQuantifyMin:
		return "QuantifyMin"
	case KindQuantifyMax:
		return "QuantifyMax"
	case KindQuantifyBetween:
		return "QuantifyBetween"
	case KindFSM:
		return "FSM"
	case KindCFG:
		return "CFG"
	default:
		return "Unknown"
	}
}

// Term is a node in the regex-algebra DSL. The zero value is not valid;
// construct Terms via the package-level constructors below.
type Term struct {
	kind Kind

	lit     string          // KindLiteral
	pattern string          // KindRegex, KindFSM (opaque serialized form), KindCFG (pre-compiled regex)
	schema  json.RawMessage // KindJSONSchema
	ws      string          // KindJSONSchema: whitespace override, "" = default

	child    *Term   // unary: KleeneStar, KleenePlus, Optional, Quantify*
	children []*Term // n-ary: Alternatives, Sequence

	n, m int // quantifier bounds; QuantifyExact uses n, QuantifyMin uses m,
	// QuantifyMax uses n, QuantifyBetween uses m and n.
}

// Kind reports which variant t holds.
func (t *Term) Kind() Kind { return t.kind }

// Literal constructs a Term matching exactly the literal string s.
func Literal(s string) *Term { return &Term{kind: KindLiteral, lit: s} }

// Regex constructs a Term matching the raw regex pattern verbatim. The
// caller is responsible for the pattern being DFA-expressible (spec §3: no
// backreferences, no lookaround).
func Regex(pattern string) *Term { return &Term{kind: KindRegex, pattern: pattern} }

// JSONSchema constructs a Term that lowers via the schema compiler. ws, if
// non-empty, overrides regexconst.WHITESPACE for this subtree.
func JSONSchema(schema json.RawMessage, ws string) *Term {
	return &Term{kind: KindJSONSchema, schema: schema, ws: ws}
}

// FSM wraps an opaque, already-compiled pattern (e.g. a serialized
// transition table reference) that lowering treats as a black box: to_regex
// returns its stored representation unchanged. Used by callers that built an
// Index out of band and want to splice it into a larger DSL expression.
func FSM(opaque string) *Term { return &Term{kind: KindFSM, pattern: opaque} }

// CFG compiles a best-effort grammar (package cfg, spec §4.G "scaffolded
// extension point") to its regex approximation and wraps it as an opaque
// leaf term, the same way FSM splices in an out-of-band pattern. Lowering
// this term never re-walks g; the compiled string is fixed at construction
// time.
func CFG(g cfg.Grammar) (*Term, error) {
	pattern, err := cfg.Compile(g)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.InvalidInput, "CFG", "compiling grammar", err)
	}
	return &Term{kind: KindCFG, pattern: pattern}, nil
}

// Sequence requires n >= 1, per spec §3.
func Sequence(terms ...*Term) (*Term, error) {
	if len(terms) == 0 {
		return nil, kinderr.New(kinderr.InvalidInput, "Sequence", "requires at least one term")
	}
	return &Term{kind: KindSequence, children: terms}, nil
}

// Either (= Alternatives) requires n >= 1, per spec §3.
func Either(terms ...*Term) (*Term, error) {
	if len(terms) == 0 {
		return nil, kinderr.New(kinderr.InvalidInput, "Alternatives", "requires at least one term")
	}
	return &Term{kind: KindAlternatives, children: terms}, nil
}

// Concat is a binary convenience wrapper over Sequence.
func Concat(a, b *Term) *Term {
	t, _ := Sequence(a, b)
	return t
}

// Alternate is a binary convenience wrapper over Either.
func Alternate(a, b *Term) *Term {
	t, _ := Either(a, b)
	return t
}

// ZeroOrMore (= ".star()") wraps t in a Kleene star.
func ZeroOrMore(t *Term) *Term { return &Term{kind: KindKleeneStar, child: t} }

// OneOrMore (= ".plus()") wraps t in a Kleene plus.
func OneOrMore(t *Term) *Term { return &Term{kind: KindKleenePlus, child: t} }

// Optional wraps t as optional (".optional()").
func Optional(t *Term) *Term { return &Term{kind: KindOptional, child: t} }

// Exactly wraps t to repeat exactly n times (".exactly(n)").
func Exactly(t *Term, n int) (*Term, error) {
	if n < 0 {
		return nil, kinderr.New(kinderr.InvalidInput, "QuantifyExact", "n must be >= 0")
	}
	return &Term{kind: KindQuantifyExact, child: t, n: n}, nil
}

// AtLeast wraps t to repeat at least m times (".at_least(m)").
func AtLeast(t *Term, m int) (*Term, error) {
	if m < 0 {
		return nil, kinderr.New(kinderr.InvalidInput, "QuantifyMin", "m must be >= 0")
	}
	return &Term{kind: KindQuantifyMin, child: t, m: m}, nil
}

// AtMost wraps t to repeat at most n times (".at_most(n)").
func AtMost(t *Term, n int) (*Term, error) {
	if n < 0 {
		return nil, kinderr.New(kinderr.InvalidInput, "QuantifyMax", "n must be >= 0")
	}
	return &Term{kind: KindQuantifyMax, child: t, n: n}, nil
}

// Between wraps t to repeat between m and n times (".between(m,n)"). Spec §3
// invariant: m <= n.
func Between(t *Term, m, n int) (*Term, error) {
	if m < 0 || n < 0 || m > n {
		return nil, kinderr.New(kinderr.InvalidInput, "QuantifyBetween",
			fmt.Sprintf("requires 0 <= m <= n, got m=%d n=%d", m, n))
	}
	return &Term{kind: KindQuantifyBetween, child: t, m: m, n: n}, nil
}

// Equal reports structural equality by tree shape, per spec §3
// ("structural equality is by tree shape").
func Equal(a, b *Term) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindLiteral:
		return a.lit == b.lit
	case KindRegex, KindFSM, KindCFG:
		return a.pattern == b.pattern
	case KindJSONSchema:
		return string(a.schema) == string(b.schema) && a.ws == b.ws
	case KindKleeneStar, KindKleenePlus, KindOptional:
		return Equal(a.child, b.child)
	case KindQuantifyExact:
		return a.n == b.n && Equal(a.child, b.child)
	case KindQuantifyMin:
		return a.m == b.m && Equal(a.child, b.child)
	case KindQuantifyMax:
		return a.n == b.n && Equal(a.child, b.child)
	case KindQuantifyBetween:
		return a.m == b.m && a.n == b.n && Equal(a.child, b.child)
	case KindAlternatives, KindSequence:
		if len(a.children) != len(b.children) {
			return false
		}
		for i := range a.children {
			if !Equal(a.children[i], b.children[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
