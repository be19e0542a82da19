package dslterm

import (
	"encoding/json"
	"fmt"

	"github.com/screenager/constrain/kinderr"
	"github.com/screenager/constrain/regexconst"
)

// maxNativeDepth is the recursion cap for NativeType ingestion (spec §4.C).
const maxNativeDepth = 10

// NativeType is a host-language type descriptor that FromNative lowers into
// a Term. It stands in for reflecting over Go types directly — Go has no
// general sum-type reflection, so callers build a small descriptor tree
// instead (mirroring how the DSL ingests "strings, integers, arrays-of-T,
// dict-of-K,V, union, literal" per spec §4.C).
type NativeType interface {
	isNativeType()
}

type StringType struct{}
type IntegerType struct{}
type NumberType struct{}
type BooleanType struct{}
type ArrayType struct{ Elem NativeType }
type DictType struct{ Key, Value NativeType }
type UnionType struct{ Options []NativeType }
type LiteralType struct{ Value any }

func (StringType) isNativeType()  {}
func (IntegerType) isNativeType() {}
func (NumberType) isNativeType()  {}
func (BooleanType) isNativeType() {}
func (ArrayType) isNativeType()   {}
func (DictType) isNativeType()    {}
func (UnionType) isNativeType()   {}
func (LiteralType) isNativeType() {}

// FromNative lowers a NativeType descriptor into a Term, failing with
// RecursionLimit past a depth of 10.
func FromNative(nt NativeType) (*Term, error) {
	return fromNative(nt, 0)
}

func fromNative(nt NativeType, depth int) (*Term, error) {
	if depth > maxNativeDepth {
		return nil, kinderr.New(kinderr.RecursionLimit, "", "native type nesting exceeds depth 10")
	}
	switch v := nt.(type) {
	case StringType:
		return Regex(regexconst.STRING), nil
	case IntegerType:
		return Regex(regexconst.INTEGER), nil
	case NumberType:
		return Regex(regexconst.NUMBER), nil
	case BooleanType:
		return Regex(regexconst.BOOLEAN), nil
	case ArrayType:
		elem, err := fromNative(v.Elem, depth+1)
		if err != nil {
			return nil, err
		}
		comma := Literal(",")
		rep := ZeroOrMore(Concat(comma, elem))
		body, err := Sequence(elem, rep)
		if err != nil {
			return nil, err
		}
		opt := Optional(body)
		return Sequence(Literal("["), opt, Literal("]"))
	case DictType:
		key, err := fromNative(v.Key, depth+1)
		if err != nil {
			return nil, err
		}
		val, err := fromNative(v.Value, depth+1)
		if err != nil {
			return nil, err
		}
		entry, err := Sequence(key, Literal(":"), val)
		if err != nil {
			return nil, err
		}
		rep := ZeroOrMore(Concat(Literal(","), entry))
		body, err := Sequence(entry, rep)
		if err != nil {
			return nil, err
		}
		opt := Optional(body)
		return Sequence(Literal("{"), opt, Literal("}"))
	case UnionType:
		terms := make([]*Term, len(v.Options))
		for i, o := range v.Options {
			t, err := fromNative(o, depth+1)
			if err != nil {
				return nil, err
			}
			terms[i] = t
		}
		return Either(terms...)
	case LiteralType:
		b, err := json.Marshal(v.Value)
		if err != nil {
			return nil, kinderr.Wrap(kinderr.InvalidInput, "", "literal value is not JSON-encodable", err)
		}
		return Literal(string(b)), nil
	default:
		return nil, fmt.Errorf("dslterm: unsupported native type %T", nt)
	}
}
