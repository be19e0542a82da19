package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/screenager/constrain/kinderr"
)

// compileConst compiles a "const" keyword to a regex matching exactly the
// literal JSON encoding of v, with structurally-free whitespace left
// flexible the same way compileAny leaves it (spec §4.B).
func (c *compiler) compileConst(v any, depth int) (string, error) {
	return c.constPattern(v, depth)
}

// compileEnum compiles an "enum" keyword to an alternation of the literal
// encodings of each member (spec §4.B).
func (c *compiler) compileEnum(v any, depth int) (string, error) {
	arr, ok := asArray(v)
	if !ok || len(arr) == 0 {
		return "", kinderr.New(kinderr.UnsupportedSchema, "enum", "must be a non-empty array")
	}
	parts := make([]string, len(arr))
	for i, el := range arr {
		p, err := c.constPattern(el, depth)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return "(?:" + strings.Join(parts, "|") + ")", nil
}

// constPattern renders the literal regex for a single JSON value. Objects
// are treated as if every property were required, in declaration order
// (there is only one valid encoding of a const object).
func (c *compiler) constPattern(v any, depth int) (string, error) {
	ws := c.opts.ws()
	switch t := v.(type) {
	case nil:
		return "null", nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return "", kinderr.Wrap(kinderr.UnsupportedSchema, "const", "could not encode string const", err)
		}
		return regexp.QuoteMeta(string(b)), nil
	case json.Number:
		return regexp.QuoteMeta(t.String()), nil
	case float64:
		b, err := json.Marshal(t)
		if err != nil {
			return "", kinderr.Wrap(kinderr.UnsupportedSchema, "const", "could not encode numeric const", err)
		}
		return regexp.QuoteMeta(string(b)), nil
	case []any:
		if len(t) == 0 {
			return `\[` + ws + `\]`, nil
		}
		parts := make([]string, len(t))
		for i, el := range t {
			p, err := c.constPattern(el, depth+1)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return `\[` + ws + strings.Join(parts, ws+","+ws) + ws + `\]`, nil
	case *OMap:
		keys := t.Keys()
		if len(keys) == 0 {
			return `\{` + ws + `\}`, nil
		}
		parts := make([]string, len(keys))
		for i, k := range keys {
			val, _ := t.Get(k)
			vp, err := c.constPattern(val, depth+1)
			if err != nil {
				return "", err
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return "", kinderr.Wrap(kinderr.UnsupportedSchema, "const", "could not encode object key", err)
			}
			parts[i] = regexp.QuoteMeta(string(kb)) + ws + ":" + ws + vp
		}
		return `\{` + ws + strings.Join(parts, ws+","+ws) + ws + `\}`, nil
	default:
		return "", kinderr.New(kinderr.UnsupportedSchema, "const", fmt.Sprintf("unsupported const value type %T", v))
	}
}
