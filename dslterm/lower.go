package dslterm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/screenager/constrain/schema"
)

// ToRegex lowers t to the canonical regex string. Lowering is total and
// deterministic (spec §3): every Kind has exactly one case below.
func ToRegex(t *Term) (string, error) {
	switch t.kind {
	case KindLiteral:
		return regexp.QuoteMeta(t.lit), nil

	case KindRegex:
		return "(?:" + t.pattern + ")", nil

	case KindFSM:
		return t.pattern, nil

	case KindCFG:
		return t.pattern, nil

	case KindJSONSchema:
		opts := schema.DefaultOptions()
		if t.ws != "" {
			opts.WhitespacePattern = t.ws
		}
		return schema.FromSchema(t.schema, opts)

	case KindKleeneStar:
		inner, err := ToRegex(t.child)
		if err != nil {
			return "", err
		}
		return group(inner) + "*", nil

	case KindKleenePlus:
		inner, err := ToRegex(t.child)
		if err != nil {
			return "", err
		}
		return group(inner) + "+", nil

	case KindOptional:
		inner, err := ToRegex(t.child)
		if err != nil {
			return "", err
		}
		return group(inner) + "?", nil

	case KindQuantifyExact:
		inner, err := ToRegex(t.child)
		if err != nil {
			return "", err
		}
		return group(inner) + fmt.Sprintf("{%d}", t.n), nil

	case KindQuantifyMin:
		inner, err := ToRegex(t.child)
		if err != nil {
			return "", err
		}
		return group(inner) + fmt.Sprintf("{%d,}", t.m), nil

	case KindQuantifyMax:
		inner, err := ToRegex(t.child)
		if err != nil {
			return "", err
		}
		return group(inner) + fmt.Sprintf("{0,%d}", t.n), nil

	case KindQuantifyBetween:
		inner, err := ToRegex(t.child)
		if err != nil {
			return "", err
		}
		return group(inner) + fmt.Sprintf("{%d,%d}", t.m, t.n), nil

	case KindAlternatives:
		parts := make([]string, len(t.children))
		for i, c := range t.children {
			s, err := ToRegex(c)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(?:" + strings.Join(parts, "|") + ")", nil

	case KindSequence:
		var b strings.Builder
		for _, c := range t.children {
			s, err := ToRegex(c)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil

	default:
		return "", fmt.Errorf("dslterm: unhandled kind %v", t.kind)
	}
}

// group wraps a lowered fragment in a non-capturing group so a following
// quantifier suffix binds to the whole fragment, not just its last atom.
func group(pattern string) string {
	return "(?:" + pattern + ")"
}
