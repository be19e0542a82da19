package dslterm

import (
	"fmt"
	"strings"
)

// PrettyPrint renders t as an ASCII tree using "├──"/"└──"/"│" glyphs with
// 4-space indentation per level, for debug dumps (spec §4.C).
func PrettyPrint(t *Term) string {
	var b strings.Builder
	printNode(&b, t, "", true, true)
	return b.String()
}

func printNode(b *strings.Builder, t *Term, prefix string, isRoot, isLast bool) {
	label := nodeLabel(t)
	if isRoot {
		b.WriteString(label + "\n")
	} else {
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		b.WriteString(prefix + connector + label + "\n")
	}

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}

	kids := childrenOf(t)
	for i, k := range kids {
		printNode(b, k, childPrefix, false, i == len(kids)-1)
	}
}

func childrenOf(t *Term) []*Term {
	switch t.kind {
	case KindKleeneStar, KindKleenePlus, KindOptional,
		KindQuantifyExact, KindQuantifyMin, KindQuantifyMax, KindQuantifyBetween:
		if t.child != nil {
			return []*Term{t.child}
		}
		return nil
	case KindAlternatives, KindSequence:
		return t.children
	default:
		return nil
	}
}

func nodeLabel(t *Term) string {
	switch t.kind {
	case KindLiteral:
		return fmt.Sprintf("Literal(%q)", t.lit)
	case KindRegex:
		return fmt.Sprintf("Regex(%q)", t.pattern)
	case KindFSM:
		return fmt.Sprintf("FSM(%q)", t.pattern)
	case KindCFG:
		return fmt.Sprintf("CFG(%q)", t.pattern)
	case KindJSONSchema:
		return "JsonSchema"
	case KindQuantifyExact:
		return fmt.Sprintf("QuantifyExact(n=%d)", t.n)
	case KindQuantifyMin:
		return fmt.Sprintf("QuantifyMin(m=%d)", t.m)
	case KindQuantifyMax:
		return fmt.Sprintf("QuantifyMax(n=%d)", t.n)
	case KindQuantifyBetween:
		return fmt.Sprintf("QuantifyBetween(m=%d,n=%d)", t.m, t.n)
	default:
		return t.kind.String()
	}
}
