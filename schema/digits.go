package schema

import (
	"fmt"

	"github.com/screenager/constrain/kinderr"
)

// digitSpan describes a minDigits/maxDigits pair read off a number schema
// (spec §4.B). Present is false when neither key appears, signalling the
// caller should fall back to the unbounded base pattern ("without bounds,
// the base constant is used"). HasMax distinguishes an explicit upper bound
// from an open-ended "{min,}" quantifier.
type digitSpan struct {
	Min     int
	Max     int
	HasMax  bool
	Present bool
}

// digitBounds reads "minDigits"+suffix / "maxDigits"+suffix from o.
func digitBounds(o *OMap, suffix string) (digitSpan, error) {
	minV, hasMin := o.Get("minDigits" + suffix)
	maxV, hasMax := o.Get("maxDigits" + suffix)
	if !hasMin && !hasMax {
		return digitSpan{}, nil
	}
	span := digitSpan{Present: true, Min: 1}
	if hasMin {
		span.Min, _ = asInt(minV)
	}
	if hasMax {
		span.Max, _ = asInt(maxV)
		if span.Max < span.Min {
			return digitSpan{}, kinderr.New(kinderr.MaxBound, suffix,
				fmt.Sprintf("maxDigits%s (%d) < minDigits%s (%d)", suffix, span.Max, suffix, span.Min))
		}
		span.HasMax = true
	}
	return span, nil
}

// digitQuantifier renders a {min,max} or {min,} quantifier suffix for a
// [0-9] digit class.
func digitQuantifier(span digitSpan) string {
	if span.HasMax {
		return fmt.Sprintf("[0-9]{%d,%d}", span.Min, span.Max)
	}
	return fmt.Sprintf("[0-9]{%d,}", span.Min)
}
