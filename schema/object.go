package schema

import (
	"fmt"

	"github.com/screenager/constrain/kinderr"
	"github.com/screenager/constrain/regexconst"
)

// compileObjectProperties compiles an object schema carrying a "properties"
// keyword (spec §4.B). Declaration order is taken from OMap.Keys(), which is
// exactly why schemas are decoded through decodeOrdered rather than
// map[string]any.
//
// required properties are glued to their neighbours with a mandatory comma;
// optional properties are wrapped whole (including their glue comma) in an
// optional group, so a run of adjacent optional properties can each be
// included or skipped independently. When no property is required, the
// whole properties list degrades to a nested optional prefix chain: either
// the empty object, or any non-empty prefix of the declared properties in
// order (spec §9 Open Question, matching the source compiler's behaviour).
func (c *compiler) compileObjectProperties(o *OMap, depth int) (string, error) {
	ws := c.opts.ws()
	propsVal, _ := o.Get("properties")
	props, ok := asOMap(propsVal)
	if !ok {
		return "", kinderr.New(kinderr.UnsupportedSchema, "properties", "must be an object")
	}

	required := map[string]bool{}
	if rv, ok := o.Get("required"); ok {
		arr, ok := asArray(rv)
		if !ok {
			return "", kinderr.New(kinderr.UnsupportedSchema, "required", "must be an array of strings")
		}
		for _, el := range arr {
			name, _ := asString(el)
			required[name] = true
		}
	}

	keys := props.Keys()
	lastRequired := -1
	for i, k := range keys {
		if required[k] {
			lastRequired = i
		}
	}

	rawEntries := make([]string, len(keys))
	for i, k := range keys {
		val, _ := props.Get(k)
		sub, err := c.compile(val, depth+1)
		if err != nil {
			if isRefRecursionLimit(err) && !required[k] {
				// An optional property whose sub-schema can't be expanded is
				// simply dropped from the compiled object (spec §7).
				rawEntries[i] = ""
				continue
			}
			return "", err
		}
		rawEntries[i] = ws + `"` + escapeRegexLiteral(k) + `"` + ws + ":" + ws + sub
	}

	var body string
	if lastRequired == -1 {
		body = buildOptionalChain(rawEntries, ws)
	} else {
		var entries []string
		for i, raw := range rawEntries {
			if raw == "" {
				continue
			}
			entry := raw
			switch {
			case i < lastRequired:
				entry = entry + ws + "," + ws
			case i > lastRequired:
				entry = ws + "," + ws + entry
			}
			if !required[keys[i]] {
				entry = "(" + entry + ")?"
			}
			entries = append(entries, entry)
		}
		for _, e := range entries {
			body += e
		}
	}

	additional, err := c.compileAdditionalSuffix(o, depth, len(keys) > 0)
	if err != nil {
		return "", err
	}
	return `\{` + ws + body + additional + ws + `\}`, nil
}

// buildOptionalChain builds the nested-optional prefix chain used when no
// declared property is required: "(p0(,p1(,p2)?)?)?".
func buildOptionalChain(rawEntries []string, ws string) string {
	// Drop dropped (ref-recursion-limited) entries entirely; they can never
	// be required here since lastRequired == -1.
	var kept []string
	for _, raw := range rawEntries {
		if raw != "" {
			kept = append(kept, raw)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	tail := ""
	for i := len(kept) - 1; i >= 1; i-- {
		tail = "(" + ws + "," + ws + kept[i] + tail + ")?"
	}
	return "(" + kept[0] + tail + ")?"
}

// compileAdditionalSuffix appends the additionalProperties expansion (if
// any) after the declared "properties" body. additionalProperties: false or
// absent (and no schema) yields no suffix; a schema or bare `true` yields a
// repeated "ws,ws key: value" group, wrapped optional since additional
// entries are by definition not required.
func (c *compiler) compileAdditionalSuffix(o *OMap, depth int, hasPreceding bool) (string, error) {
	ws := c.opts.ws()
	apVal, hasAP := o.Get("additionalProperties")
	if !hasAP {
		return "", nil
	}
	if b, ok := apVal.(bool); ok {
		if !b {
			return "", nil
		}
		valPattern, err := c.compileAny(depth + 1)
		if err != nil {
			return "", err
		}
		return c.additionalEntriesPattern(valPattern, ws, hasPreceding), nil
	}
	valPattern, err := c.compile(apVal, depth+1)
	if err != nil {
		return "", err
	}
	return c.additionalEntriesPattern(valPattern, ws, hasPreceding), nil
}

func (c *compiler) additionalEntriesPattern(valPattern, ws string, hasPreceding bool) string {
	entry := regexconst.STRING + ws + ":" + ws + valPattern
	group := "(?:" + ws + "," + ws + entry + ")*"
	if !hasPreceding {
		// No declared properties preceded this: the first additional entry
		// needs no leading comma, and the whole group (including that first
		// entry) is optional.
		group = "(?:" + entry + group + ")?"
	}
	return group
}

// compileObjectAdditional compiles a bare `{"type": "object", ...}` schema
// with no "properties" keyword: an arbitrary-key map, bounded by
// minProperties/maxProperties, whose values follow additionalProperties (or
// "any JSON value" when additionalProperties is absent/true).
func (c *compiler) compileObjectAdditional(o *OMap, depth int) (string, error) {
	ws := c.opts.ws()

	apVal, hasAP := o.Get("additionalProperties")
	if hasAP {
		if b, ok := apVal.(bool); ok && !b {
			return `\{` + ws + `\}`, nil
		}
	}

	var valPattern string
	var err error
	if _, isBool := apVal.(bool); hasAP && !isBool {
		valPattern, err = c.compile(apVal, depth+1)
	} else {
		valPattern, err = c.compileAny(depth + 1)
	}
	if err != nil {
		return "", err
	}

	entry := regexconst.STRING + ws + ":" + ws + valPattern

	minProps, hasMin := 0, false
	maxProps, hasMax := -1, false
	if v, ok := o.Get("minProperties"); ok {
		minProps, _ = asInt(v)
		hasMin = true
	}
	if v, ok := o.Get("maxProperties"); ok {
		maxProps, _ = asInt(v)
		hasMax = true
	}

	repeat, err := repeatQuantifier(minProps, hasMin, maxProps, hasMax)
	if err != nil {
		return "", err
	}
	body := ws + entry + "(?:" + ws + "," + ws + entry + ")" + repeat + ws
	if !hasMin || minProps == 0 {
		body = "(?:" + body + ")?"
	}
	return `\{` + body + `\}`, nil
}

// compileArrayItems compiles "items"/minItems/maxItems on an array schema
// with no "prefixItems" (spec §4.B): a repeated item group, count bounded by
// `{minItems-1,maxItems-1}`, wrapped optional whenever minItems is zero or
// unset.
func (c *compiler) compileArrayItems(o *OMap, depth int) (string, error) {
	ws := c.opts.ws()

	var itemPattern string
	var err error
	if itemsVal, ok := o.Get("items"); ok {
		if b, isBool := itemsVal.(bool); isBool {
			if !b {
				return `\[` + ws + `\]`, nil
			}
			itemPattern, err = c.compileAny(depth + 1)
		} else {
			itemPattern, err = c.compile(itemsVal, depth+1)
		}
	} else {
		itemPattern, err = c.compileAny(depth + 1)
	}
	if err != nil {
		return "", err
	}

	minItems, hasMin := 0, false
	maxItems, hasMax := -1, false
	if v, ok := o.Get("minItems"); ok {
		minItems, _ = asInt(v)
		hasMin = true
	}
	if v, ok := o.Get("maxItems"); ok {
		maxItems, _ = asInt(v)
		hasMax = true
	}

	repeat, err := repeatQuantifier(minItems, hasMin, maxItems, hasMax)
	if err != nil {
		return "", err
	}
	body := ws + itemPattern + "(?:" + ws + "," + ws + itemPattern + ")" + repeat + ws
	if !hasMin || minItems == 0 {
		body = "(?:" + body + ")?"
	}
	return `\[` + body + `\]`, nil
}

// compileTuple compiles "prefixItems": a fixed-length tuple, each position
// carrying its own sub-schema, joined by "ws,ws" (spec §4.B).
func (c *compiler) compileTuple(o *OMap, depth int) (string, error) {
	ws := c.opts.ws()
	v, _ := o.Get("prefixItems")
	arr, ok := asArray(v)
	if !ok {
		return "", kinderr.New(kinderr.UnsupportedSchema, "prefixItems", "must be an array of schemas")
	}

	parts := make([]string, len(arr))
	for i, sub := range arr {
		p, err := c.compile(sub, depth+1)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}

	body := ws
	for i, p := range parts {
		if i > 0 {
			body += ws + "," + ws
		}
		body += p
	}
	body += ws

	// A missing or false "items" alongside prefixItems forbids any trailing
	// elements beyond the tuple; a schema (or true) permits zero or more
	// additional elements matching it, appended with the same separator.
	if itemsVal, ok := o.Get("items"); ok {
		if b, isBool := itemsVal.(bool); !isBool || b {
			restPattern, err := c.compile(itemsVal, depth+1)
			if err != nil {
				return "", err
			}
			if len(parts) > 0 {
				body += "(?:" + ws + "," + ws + restPattern + ")*"
			} else {
				body += restPattern + "(?:" + ws + "," + ws + restPattern + ")*"
			}
		}
	}

	return `\[` + body + `\]`, nil
}

// repeatQuantifier renders the "{minItems-1,maxItems-1}"-style bound used by
// array/object repeated-group expansion (spec §4.B). Missing bounds degrade
// to "*"; a present max with no min assumes min 0.
func repeatQuantifier(min int, hasMin bool, max int, hasMax bool) (string, error) {
	if !hasMin && !hasMax {
		return "*", nil
	}
	lo := min - 1
	if lo < 0 {
		lo = 0
	}
	if hasMax {
		hi := max - 1
		if hi < 0 {
			hi = 0
		}
		if hi < lo {
			return "", kinderr.New(kinderr.MaxBound, "maxItems", fmt.Sprintf("max (%d) < min (%d)", max, min))
		}
		return fmt.Sprintf("{%d,%d}", lo, hi), nil
	}
	return fmt.Sprintf("{%d,}", lo), nil
}
