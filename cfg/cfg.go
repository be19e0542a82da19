// Package cfg is a best-effort, non-conformance extension point (spec
// §4.G): a small PEG-ish grammar combinator set good enough for simple LL
// grammars, compiled down to the same regex surface fsmindex already
// consumes. It is not a general CFG engine — recursive rules are rejected at
// Regex() time rather than silently mistranslated, since a regular
// automaton cannot represent unbounded nesting.
//
// The combinator shapes (Seq, Alt, Opt, Star, Plus) are reproduced from the
// structure visible in hucsmn-peg's combining.go/grouping.go/predicating.go
// — read as reference only, since that repository carries no go.mod and
// cannot be imported — independently named and implemented here as
// implementations of cfg.Grammar.
package cfg

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/screenager/constrain/kinderr"
)

// Grammar compiles to the regex fragment fsmindex builds an Index from.
// Because the Index layer is regex-based, a Grammar that recurses through
// itself cannot be compiled; Regex reports RecursionLimit in that case.
type Grammar interface {
	Regex(depth int) (string, error)
}

// MaxDepth bounds combinator nesting, the same cap dslterm uses for native
// ingestion (spec §6 recursion cap = 10).
const MaxDepth = 10

func checkDepth(depth int) error {
	if depth > MaxDepth {
		return kinderr.New(kinderr.RecursionLimit, "", "cfg grammar nesting exceeds the recursion cap")
	}
	return nil
}

// Literal matches exactly one string.
type Literal string

func (l Literal) Regex(depth int) (string, error) {
	if err := checkDepth(depth); err != nil {
		return "", err
	}
	return regexp.QuoteMeta(string(l)), nil
}

// Seq matches each child pattern in order.
type Seq []Grammar

func (s Seq) Regex(depth int) (string, error) {
	if err := checkDepth(depth); err != nil {
		return "", err
	}
	parts := make([]string, len(s))
	for i, g := range s {
		p, err := g.Regex(depth + 1)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return strings.Join(parts, ""), nil
}

// Alt matches exactly one of its children.
type Alt []Grammar

func (a Alt) Regex(depth int) (string, error) {
	if err := checkDepth(depth); err != nil {
		return "", err
	}
	if len(a) == 0 {
		return "", kinderr.New(kinderr.InvalidInput, "", "Alt requires at least one alternative")
	}
	parts := make([]string, len(a))
	for i, g := range a {
		p, err := g.Regex(depth + 1)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return "(?:" + strings.Join(parts, "|") + ")", nil
}

// Opt matches its child zero or one times.
type Opt struct{ Child Grammar }

func (o Opt) Regex(depth int) (string, error) {
	if err := checkDepth(depth); err != nil {
		return "", err
	}
	p, err := o.Child.Regex(depth + 1)
	if err != nil {
		return "", err
	}
	return "(?:" + p + ")?", nil
}

// Star matches its child zero or more times.
type Star struct{ Child Grammar }

func (s Star) Regex(depth int) (string, error) {
	if err := checkDepth(depth); err != nil {
		return "", err
	}
	p, err := s.Child.Regex(depth + 1)
	if err != nil {
		return "", err
	}
	return "(?:" + p + ")*", nil
}

// Plus matches its child one or more times.
type Plus struct{ Child Grammar }

func (p Plus) Regex(depth int) (string, error) {
	if err := checkDepth(depth); err != nil {
		return "", err
	}
	inner, err := p.Child.Regex(depth + 1)
	if err != nil {
		return "", err
	}
	return "(?:" + inner + ")+", nil
}

// Rule names a sub-grammar so grammars can reference each other by name
// without embedding pointers directly, the way a PEG's named rules work.
// Self-reference (directly or transitively) fails with RecursionLimit once
// MaxDepth is exceeded, rather than looping forever: this package has no
// left-recursion or fixpoint detection, only a depth cap.
type Rule struct {
	Name string
	Body Grammar
}

func (r Rule) Regex(depth int) (string, error) {
	if err := checkDepth(depth); err != nil {
		return "", fmt.Errorf("rule %q: %w", r.Name, err)
	}
	p, err := r.Body.Regex(depth + 1)
	if err != nil {
		return "", fmt.Errorf("rule %q: %w", r.Name, err)
	}
	return p, nil
}

// Compile renders a Grammar to the regex fsmindex.Build consumes.
func Compile(g Grammar) (string, error) {
	return g.Regex(0)
}
