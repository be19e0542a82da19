package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OMap is a JSON object value that preserves source key order — the
// property-source-order invariant the compiler relies on (spec §4.B,
// §9 Open Question: "the source compiler enforces declaration order; this
// spec inherits that choice"). encoding/json's map[string]any decoding
// loses order, so schemas are decoded through decodeOrdered instead.
type OMap struct {
	keys   []string
	values map[string]any
}

// Keys returns the object's keys in source declaration order.
func (o *OMap) Keys() []string { return o.keys }

// Get returns the value stored at key and whether it was present.
func (o *OMap) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *OMap) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// decodeOrdered parses data as a single JSON value, preserving object key
// order via *OMap instead of Go's unordered map[string]any.
func decodeOrdered(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := &OMap{values: map[string]any{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("schema: expected object key, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				if !o.Has(key) {
					o.keys = append(o.keys, key)
				}
				o.values[key] = val
			}
			// consume '}'
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return o, nil
		case '[':
			var arr []any
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
	}
	return tok, nil
}

// asString returns v as a string if it is one.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asArray returns v as a []any if it is one.
func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// asOMap returns v as an *OMap if it is one.
func asOMap(v any) (*OMap, bool) {
	o, ok := v.(*OMap)
	return o, ok
}

// asInt returns v (expected json.Number) as an int.
func asInt(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(i), true
}
