package schema

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func compileMust(t *testing.T, schemaJSON string) *regexp.Regexp {
	t.Helper()
	pattern, err := FromSchema([]byte(schemaJSON), DefaultOptions())
	if err != nil {
		t.Fatalf("FromSchema(%s): %v", schemaJSON, err)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		t.Fatalf("regexp.Compile(%q): %v", pattern, err)
	}
	return re
}

func TestCompileScalarTypes(t *testing.T) {
	cases := []struct {
		schema string
		match  []string
		reject []string
	}{
		{`{"type":"string"}`, []string{`"hello"`}, []string{`hello`, `42`}},
		{`{"type":"integer"}`, []string{`0`, `-12`, `345`}, []string{`01`, `1.5`}},
		{`{"type":"number"}`, []string{`1.5`, `-3`, `2e10`}, []string{`abc`}},
		{`{"type":"boolean"}`, []string{`true`, `false`}, []string{`True`, `1`}},
		{`{"type":"null"}`, []string{`null`}, []string{`nil`, ``}},
	}
	for _, c := range cases {
		re := compileMust(t, c.schema)
		for _, m := range c.match {
			if !re.MatchString(m) {
				t.Errorf("%s: expected %q to match", c.schema, m)
			}
		}
		for _, r := range c.reject {
			if re.MatchString(r) {
				t.Errorf("%s: expected %q to be rejected", c.schema, r)
			}
		}
	}
}

func TestCompileStringLengthBounds(t *testing.T) {
	re := compileMust(t, `{"type":"string","minLength":2,"maxLength":4}`)
	if !re.MatchString(`"ab"`) || !re.MatchString(`"abcd"`) {
		t.Error("expected lengths within bounds to match")
	}
	if re.MatchString(`"a"`) || re.MatchString(`"abcde"`) {
		t.Error("expected lengths outside bounds to be rejected")
	}
}

func TestCompileStringFormat(t *testing.T) {
	re := compileMust(t, `{"type":"string","format":"uuid"}`)
	if !re.MatchString(`"550e8400-e29b-41d4-a716-446655440000"`) {
		t.Error("expected valid uuid to match")
	}
	if re.MatchString(`"not-a-uuid"`) {
		t.Error("expected invalid uuid to be rejected")
	}
}

func TestCompileUnknownFormatErrors(t *testing.T) {
	_, err := FromSchema([]byte(`{"type":"string","format":"nope-not-real"}`), DefaultOptions())
	if err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestCompileEnumAndConst(t *testing.T) {
	re := compileMust(t, `{"enum":["a","b",1]}`)
	for _, m := range []string{`"a"`, `"b"`, `1`} {
		if !re.MatchString(m) {
			t.Errorf("expected %q to match enum", m)
		}
	}
	if re.MatchString(`"c"`) {
		t.Error("expected non-member to be rejected")
	}

	reConst := compileMust(t, `{"const":"exact"}`)
	if !reConst.MatchString(`"exact"`) {
		t.Error("expected const match")
	}
	if reConst.MatchString(`"other"`) {
		t.Error("expected const mismatch rejected")
	}
}

func TestCompileObjectRequiredAndOptional(t *testing.T) {
	re := compileMust(t, `{
		"properties": {"name": {"type":"string"}, "age": {"type":"integer"}},
		"required": ["name"]
	}`)
	if !re.MatchString(`{"name":"joe"}`) {
		t.Error(`expected {"name":"joe"} to match (age omitted)`)
	}
	if !re.MatchString(`{"name":"joe", "age":1}`) {
		t.Error(`expected {"name":"joe", "age":1} to match`)
	}
	if re.MatchString(`{"age":1}`) {
		t.Error("expected missing required property to be rejected")
	}
}

func TestCompileObjectAllOptionalChain(t *testing.T) {
	re := compileMust(t, `{
		"properties": {"a": {"type":"integer"}, "b": {"type":"integer"}}
	}`)
	if !re.MatchString(`{}`) {
		t.Error("expected empty object to match when nothing is required")
	}
	if !re.MatchString(`{"a":1}`) {
		t.Error(`expected {"a":1} to match`)
	}
	if !re.MatchString(`{"a":1, "b":2}`) {
		t.Error(`expected {"a":1, "b":2} to match`)
	}
	if re.MatchString(`{"b":2}`) {
		t.Error("expected skipping a prefix property without the rest to be rejected (declaration-order prefix chain)")
	}
}

func TestCompileArrayItemsAndBounds(t *testing.T) {
	re := compileMust(t, `{"type":"array","items":{"type":"integer"},"minItems":1,"maxItems":2}`)
	if re.MatchString(`[]`) {
		t.Error("expected empty array to violate minItems")
	}
	if !re.MatchString(`[1]`) || !re.MatchString(`[1, 2]`) {
		t.Error("expected arrays within bounds to match")
	}
	if re.MatchString(`[1, 2, 3]`) {
		t.Error("expected array exceeding maxItems to be rejected")
	}
}

func TestCompilePrefixItemsTuple(t *testing.T) {
	re := compileMust(t, `{"prefixItems":[{"type":"string"},{"type":"integer"}],"items":false}`)
	if !re.MatchString(`["a", 1]`) {
		t.Error(`expected ["a", 1] to match the tuple`)
	}
	if re.MatchString(`["a", 1, 2]`) {
		t.Error("expected trailing element beyond tuple (items:false) to be rejected")
	}
}

func TestCompileRefResolvesLocalPointer(t *testing.T) {
	re := compileMust(t, `{
		"$defs": {"Pos": {"type":"integer","minimum":0}},
		"properties": {"x": {"$ref": "#/$defs/Pos"}},
		"required": ["x"]
	}`)
	if !re.MatchString(`{"x":5}`) {
		t.Error("expected $ref-resolved schema to match")
	}
}

func TestCompileRefRejectsExternal(t *testing.T) {
	_, err := FromSchema([]byte(`{"$ref":"http://example.com/schema.json"}`), DefaultOptions())
	if err == nil {
		t.Fatal("expected an error for an external $ref")
	}
}

func TestCompileAnyOfAlternation(t *testing.T) {
	re := compileMust(t, `{"anyOf":[{"type":"string"},{"type":"integer"}]}`)
	if !re.MatchString(`"x"`) || !re.MatchString(`5`) {
		t.Error("expected both anyOf branches to match")
	}
	if re.MatchString(`true`) {
		t.Error("expected a non-member type to be rejected")
	}
}

func TestCompileAllOfConcatenates(t *testing.T) {
	// allOf on a single branch degenerates to that branch's pattern.
	re := compileMust(t, `{"allOf":[{"type":"integer"}]}`)
	if !re.MatchString(`42`) {
		t.Error("expected allOf single-branch pattern to match")
	}
}

func TestCompileEmptySchemaMatchesAnyValue(t *testing.T) {
	re := compileMust(t, `{}`)
	for _, v := range []string{`"str"`, `5`, `true`, `null`, `[]`, `{}`} {
		if !re.MatchString(v) {
			t.Errorf("expected empty schema to match %q", v)
		}
	}
}

func TestFromValueSortsUnorderedMapKeys(t *testing.T) {
	schemaVal := map[string]any{
		"properties": map[string]any{
			"b": map[string]any{"type": "integer"},
			"a": map[string]any{"type": "integer"},
		},
		"required": []any{"a", "b"},
	}
	pattern, err := FromValue(schemaVal, DefaultOptions())
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	// FromValue sorts keys lexically, so "a" must precede "b" regardless of
	// the input map's (unordered) iteration.
	if !re.MatchString(`{"a":1, "b":2}`) {
		t.Error(`expected {"a":1, "b":2} (lexically-sorted key order) to match`)
	}
}

func TestMaxLengthLessThanMinLengthErrors(t *testing.T) {
	_, err := FromSchema([]byte(`{"type":"string","minLength":5,"maxLength":2}`), DefaultOptions())
	if err == nil {
		t.Fatal("expected an error when maxLength < minLength")
	}
}

func TestDecodeOrderedPreservesKeyOrder(t *testing.T) {
	v, err := decodeOrdered([]byte(`{"z":1,"a":2,"m":3}`))
	if err != nil {
		t.Fatalf("decodeOrdered: %v", err)
	}
	o, ok := asOMap(v)
	if !ok {
		t.Fatal("expected decodeOrdered to return an *OMap for a JSON object")
	}
	want := []string{"z", "a", "m"}
	if diff := cmp.Diff(want, o.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomWhitespacePattern(t *testing.T) {
	opts := DefaultOptions()
	opts.WhitespacePattern = `[\n ]*`
	pattern, err := FromSchema([]byte(`{"properties":{"a":{"type":"integer"}},"required":["a"]}`), opts)
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !re.MatchString("{\n  \"a\":1\n}") {
		t.Error("expected custom whitespace pattern to permit newlines/spaces around structural characters")
	}
}
