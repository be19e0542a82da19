package schema

import (
	"fmt"
	"strings"

	"github.com/screenager/constrain/kinderr"
	"github.com/screenager/constrain/regexconst"
)

func (c *compiler) compileType(o *OMap, depth int) (string, error) {
	typeVal, _ := o.Get("type")
	switch t := typeVal.(type) {
	case string:
		return c.compileTypeName(t, o, depth)
	case []any:
		var names []string
		for _, el := range t {
			s, ok := asString(el)
			if !ok {
				return "", kinderr.New(kinderr.UnsupportedSchema, "type", "array elements must be strings")
			}
			names = append(names, s)
		}
		var parts []string
		for _, name := range names {
			p, err := c.compileTypeName(name, o, depth)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return "(?:" + strings.Join(parts, "|") + ")", nil
	default:
		return "", kinderr.New(kinderr.UnsupportedSchema, "type", "must be a string or an array of strings")
	}
}

func (c *compiler) compileTypeName(name string, o *OMap, depth int) (string, error) {
	switch name {
	case "string":
		return c.compileStringType(o)
	case "integer":
		return c.compileIntegerType(o)
	case "number":
		return c.compileNumberType(o)
	case "boolean":
		return regexconst.BOOLEAN, nil
	case "null":
		return regexconst.NULL, nil
	case "object":
		return c.compileObjectAdditional(o, depth)
	case "array":
		return c.compileArrayItems(o, depth)
	default:
		return "", kinderr.New(kinderr.UnsupportedSchema, "type", fmt.Sprintf("unknown type %q", name))
	}
}

func (c *compiler) compileStringType(o *OMap) (string, error) {
	if v, ok := o.Get("pattern"); ok {
		pat, _ := asString(v)
		pat = strings.TrimPrefix(pat, "^")
		pat = strings.TrimSuffix(pat, "$")
		return `"` + pat + `"`, nil
	}
	if v, ok := o.Get("format"); ok {
		name, _ := asString(v)
		body, known := regexconst.Formats[name]
		if !known {
			return "", kinderr.New(kinderr.UnsupportedFormat, "format", fmt.Sprintf("unknown format %q", name))
		}
		return `"` + body + `"`, nil
	}
	minV, hasMin := o.Get("minLength")
	maxV, hasMax := o.Get("maxLength")
	if hasMin || hasMax {
		min, max := 0, -1
		if hasMin {
			min, _ = asInt(minV)
		}
		if hasMax {
			max, _ = asInt(maxV)
			if max < min {
				return "", kinderr.New(kinderr.InvalidInput, "maxLength", fmt.Sprintf("maxLength (%d) < minLength (%d)", max, min))
			}
			return `"` + fmt.Sprintf("%s{%d,%d}", regexconst.STRING_INNER, min, max) + `"`, nil
		}
		return `"` + fmt.Sprintf("%s{%d,}", regexconst.STRING_INNER, min) + `"`, nil
	}
	return regexconst.STRING, nil
}

func (c *compiler) compileIntegerType(o *OMap) (string, error) {
	span, err := digitBounds(o, "Integer")
	if err != nil {
		return "", err
	}
	if !span.Present {
		return regexconst.INTEGER, nil
	}
	return "(-)?" + digitQuantifier(span), nil
}

func (c *compiler) compileNumberType(o *OMap) (string, error) {
	intSpan, err := digitBounds(o, "Integer")
	if err != nil {
		return "", err
	}
	fracSpan, err := digitBounds(o, "Fraction")
	if err != nil {
		return "", err
	}
	expSpan, err := digitBounds(o, "Exponent")
	if err != nil {
		return "", err
	}

	var intPart string
	if intSpan.Present {
		intPart = "(-)?" + digitQuantifier(intSpan)
	} else {
		intPart = `(-)?(0|[1-9][0-9]*)`
	}

	var fracPart string
	if fracSpan.Present {
		fracPart = `(\.` + digitQuantifier(fracSpan) + `)`
	} else {
		fracPart = `(\.[0-9]+)?`
	}

	var expPart string
	if expSpan.Present {
		expPart = `([eE][+-]?` + digitQuantifier(expSpan) + `)`
	} else {
		expPart = `([eE][+-]?[0-9]+)?`
	}

	return intPart + fracPart + expPart, nil
}
