package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/screenager/constrain/kinderr"
	"github.com/screenager/constrain/regexconst"
)

// FromSchema compiles the JSON Schema document in data to the canonical
// regex string (spec §4.B, public API `regex_from_schema`).
func FromSchema(data []byte, opts Options) (string, error) {
	root, err := decodeOrdered(data)
	if err != nil {
		return "", kinderr.Wrap(kinderr.InvalidInput, "", "malformed JSON schema", err)
	}
	c := &compiler{root: root, opts: opts}
	return c.compile(root, 0)
}

// FromValue compiles an already-decoded schema value. Plain
// map[string]interface{} values lose their source key order on decode, so
// FromValue sorts their keys lexically for determinism; pass raw JSON bytes
// to FromSchema whenever declaration order matters (object "properties").
func FromValue(v any, opts Options) (string, error) {
	root := toOrdered(v)
	c := &compiler{root: root, opts: opts}
	return c.compile(root, 0)
}

// toOrdered converts a plain Go value (map[string]any, []any, scalars) into
// the OMap-based representation decodeOrdered produces, sorting map keys
// lexically since Go maps carry no order.
func toOrdered(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := &OMap{values: map[string]any{}}
		for _, k := range keys {
			o.keys = append(o.keys, k)
			o.values[k] = toOrdered(t[k])
		}
		return o
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toOrdered(e)
		}
		return out
	default:
		return v
	}
}

type compiler struct {
	root     any
	opts     Options
	refDepth int
}

// compile dispatches on keyword priority: properties → allOf → anyOf →
// oneOf → prefixItems → enum → const → $ref → type (spec §4.B).
func (c *compiler) compile(node any, depth int) (string, error) {
	if b, ok := node.(bool); ok {
		if b {
			return c.compileAny(depth)
		}
		return "", kinderr.New(kinderr.UnsupportedSchema, "", "schema `false` (matches nothing) is not supported")
	}

	o, ok := asOMap(node)
	if !ok {
		return "", kinderr.New(kinderr.InvalidInput, "", fmt.Sprintf("expected a JSON Schema object, got %T", node))
	}

	if _, ok := o.Get("properties"); ok {
		return c.compileObjectProperties(o, depth)
	}
	if v, ok := o.Get("allOf"); ok {
		return c.compileAllOf(v, depth)
	}
	if v, ok := o.Get("anyOf"); ok {
		return c.compileAnyOf(v, depth)
	}
	if v, ok := o.Get("oneOf"); ok {
		return c.compileOneOf(v, depth)
	}
	if _, ok := o.Get("prefixItems"); ok {
		return c.compileTuple(o, depth)
	}
	if v, ok := o.Get("enum"); ok {
		return c.compileEnum(v, depth)
	}
	if v, ok := o.Get("const"); ok {
		return c.compileConst(v, depth)
	}
	if v, ok := o.Get("$ref"); ok {
		ref, _ := asString(v)
		return c.compileRef(ref, depth)
	}
	if _, ok := o.Get("type"); ok {
		return c.compileType(o, depth)
	}
	// Empty object (or object with only unrecognised keywords): any JSON value.
	return c.compileAny(depth)
}

// compileAny expands to the union of all scalar and container types, per
// spec §4.B ("An empty object means 'any JSON value'"). Past
// MaxPropertyDepth it degrades to scalars only, to keep the expansion finite
// (§9 Open Question: depth default 2, same heuristic the source uses for
// additionalProperties:true).
func (c *compiler) compileAny(depth int) (string, error) {
	scalars := []string{
		regexconst.STRING,
		regexconst.NUMBER,
		regexconst.BOOLEAN,
		regexconst.NULL,
	}
	if depth >= c.opts.maxPropertyDepth() {
		return "(?:" + strings.Join(scalars, "|") + ")", nil
	}
	ws := c.opts.ws()
	anyInner, err := c.compileAny(depth + 1)
	if err != nil {
		return "", err
	}
	objEntry := regexconst.STRING + ws + ":" + ws + anyInner
	objPattern := `\{` + ws + `(?:` + objEntry + `(?:` + ws + `,` + ws + objEntry + `)*)?` + ws + `\}`
	arrPattern := `\[` + ws + `(?:` + anyInner + `(?:` + ws + `,` + ws + anyInner + `)*)?` + ws + `\]`
	all := append(append([]string{}, scalars...), objPattern, arrPattern)
	return "(?:" + strings.Join(all, "|") + ")", nil
}

func (c *compiler) compileAllOf(v any, depth int) (string, error) {
	arr, ok := asArray(v)
	if !ok || len(arr) == 0 {
		return "", kinderr.New(kinderr.UnsupportedSchema, "allOf", "must be a non-empty array")
	}
	var b strings.Builder
	for _, sub := range arr {
		p, err := c.compile(sub, depth)
		if err != nil {
			return "", err
		}
		b.WriteString(p)
	}
	return "(?:" + b.String() + ")", nil
}

func (c *compiler) compileAnyOf(v any, depth int) (string, error) {
	arr, ok := asArray(v)
	if !ok || len(arr) == 0 {
		return "", kinderr.New(kinderr.UnsupportedSchema, "anyOf", "must be a non-empty array")
	}
	var parts []string
	for _, sub := range arr {
		p, err := c.compile(sub, depth)
		if err != nil {
			if isRefRecursionLimit(err) {
				continue // drop this branch, per spec §4.B / §7
			}
			return "", err
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return "", kinderr.New(kinderr.RefRecursionLimit, "anyOf", "every branch exceeded the recursion limit")
	}
	return "(?:" + strings.Join(parts, "|") + ")", nil
}

func (c *compiler) compileOneOf(v any, depth int) (string, error) {
	arr, ok := asArray(v)
	if !ok || len(arr) == 0 {
		return "", kinderr.New(kinderr.UnsupportedSchema, "oneOf", "must be a non-empty array")
	}
	var parts []string
	for _, sub := range arr {
		p, err := c.compile(sub, depth)
		if err != nil {
			if isRefRecursionLimit(err) {
				continue
			}
			return "", err
		}
		parts = append(parts, "(?:"+p+")")
	}
	if len(parts) == 0 {
		return "", kinderr.New(kinderr.RefRecursionLimit, "oneOf", "every branch exceeded the recursion limit")
	}
	return "(?:" + strings.Join(parts, "|") + ")", nil
}

func (c *compiler) compileRef(ref string, depth int) (string, error) {
	if ref == "" || ref[0] != '#' {
		return "", kinderr.New(kinderr.ExternalRef, ref, "only local JSON-pointer refs into the root document are supported")
	}
	c.refDepth++
	defer func() { c.refDepth-- }()
	if c.refDepth > c.opts.maxRefDepth() {
		return "", kinderr.New(kinderr.RefRecursionLimit, ref, "exceeded max_recursion_depth")
	}

	target, err := resolvePointer(c.root, ref)
	if err != nil {
		return "", err
	}
	return c.compile(target, depth)
}

func resolvePointer(root any, ref string) (any, error) {
	path := strings.TrimPrefix(ref, "#")
	if path == "" {
		return root, nil
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return root, nil
	}
	cur := root
	for _, raw := range strings.Split(path, "/") {
		tok := strings.ReplaceAll(strings.ReplaceAll(raw, "~1", "/"), "~0", "~")
		switch v := cur.(type) {
		case *OMap:
			val, ok := v.Get(tok)
			if !ok {
				return nil, kinderr.New(kinderr.InvalidInput, ref, fmt.Sprintf("$ref segment %q not found", tok))
			}
			cur = val
		case []any:
			var idx int
			if _, err := fmt.Sscanf(tok, "%d", &idx); err != nil || idx < 0 || idx >= len(v) {
				return nil, kinderr.New(kinderr.InvalidInput, ref, fmt.Sprintf("$ref segment %q is not a valid array index", tok))
			}
			cur = v[idx]
		default:
			return nil, kinderr.New(kinderr.InvalidInput, ref, fmt.Sprintf("cannot descend into %T at %q", cur, tok))
		}
	}
	return cur, nil
}

func isRefRecursionLimit(err error) bool {
	ke, ok := err.(*kinderr.Error)
	return ok && ke.Kind == kinderr.RefRecursionLimit
}

// escapeRegexLiteral is regexp.QuoteMeta, aliased for readability at call sites.
func escapeRegexLiteral(s string) string { return regexp.QuoteMeta(s) }
