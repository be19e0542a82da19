package cfg

import (
	"regexp"
	"testing"

	"github.com/screenager/constrain/kinderr"
)

func TestCompileSimpleGrammar(t *testing.T) {
	g := Seq{
		Literal("foo"),
		Opt{Child: Literal("bar")},
		Plus{Child: Alt{Literal("a"), Literal("b")}},
	}
	pattern, err := Compile(g)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		t.Fatalf("compiled pattern does not parse as regexp: %v", err)
	}
	for _, ok := range []string{"fooa", "foobara", "fooab", "foobarabab"} {
		if !re.MatchString(ok) {
			t.Errorf("expected %q to match %s", ok, pattern)
		}
	}
	for _, bad := range []string{"foo", "foobar", "bara"} {
		if re.MatchString(bad) {
			t.Errorf("expected %q not to match %s", bad, pattern)
		}
	}
}

func TestRuleRecursionLimit(t *testing.T) {
	var r Rule
	r = Rule{Name: "loop", Body: recurseWrapper{&r}}
	_, err := Compile(r)
	if err == nil || !kinderr.Is(err, kinderr.RecursionLimit) {
		t.Fatalf("expected RecursionLimit, got %v", err)
	}
}

// recurseWrapper defers to *Rule at call time so a self-referential Rule can
// be built without an initialization cycle.
type recurseWrapper struct{ target *Rule }

func (w recurseWrapper) Regex(depth int) (string, error) {
	return w.target.Regex(depth)
}
