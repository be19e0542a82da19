package dslterm

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/screenager/constrain/cfg"
)

func TestToRegexLiteralEscapes(t *testing.T) {
	re, err := ToRegex(Literal("a.b*"))
	if err != nil {
		t.Fatalf("ToRegex: %v", err)
	}
	if re != `a\.b\*` {
		t.Errorf("got %q, want escaped literal", re)
	}
}

func TestToRegexSequenceAndAlternatives(t *testing.T) {
	alt, err := Either(Literal("a"), Literal("b"))
	if err != nil {
		t.Fatalf("Either: %v", err)
	}
	seq, err := Sequence(Literal("x"), alt, Literal("y"))
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	re, err := ToRegex(seq)
	if err != nil {
		t.Fatalf("ToRegex: %v", err)
	}
	if re != `x(?:a|b)y` {
		t.Errorf("got %q, want x(?:a|b)y", re)
	}
}

func TestQuantifierConstructorsRejectInvalidBounds(t *testing.T) {
	if _, err := Exactly(Literal("a"), -1); err == nil {
		t.Error("Exactly(-1) should error")
	}
	if _, err := AtLeast(Literal("a"), -1); err == nil {
		t.Error("AtLeast(-1) should error")
	}
	if _, err := AtMost(Literal("a"), -1); err == nil {
		t.Error("AtMost(-1) should error")
	}
	if _, err := Between(Literal("a"), 3, 1); err == nil {
		t.Error("Between(3,1) should error on m > n")
	}
	if _, err := Sequence(); err == nil {
		t.Error("Sequence() with no terms should error")
	}
	if _, err := Either(); err == nil {
		t.Error("Either() with no terms should error")
	}
}

func TestQuantifierRegexShapes(t *testing.T) {
	cases := []struct {
		name string
		make func() (*Term, error)
		want string
	}{
		{"exact", func() (*Term, error) { return Exactly(Literal("a"), 3) }, `(?:a){3}`},
		{"atLeast", func() (*Term, error) { return AtLeast(Literal("a"), 2) }, `(?:a){2,}`},
		{"atMost", func() (*Term, error) { return AtMost(Literal("a"), 4) }, `(?:a){0,4}`},
		{"between", func() (*Term, error) { return Between(Literal("a"), 1, 3) }, `(?:a){1,3}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			term, err := c.make()
			if err != nil {
				t.Fatalf("constructor: %v", err)
			}
			re, err := ToRegex(term)
			if err != nil {
				t.Fatalf("ToRegex: %v", err)
			}
			if re != c.want {
				t.Errorf("got %q, want %q", re, c.want)
			}
		})
	}
}

func TestZeroOrMoreOneOrMoreOptional(t *testing.T) {
	if re, _ := ToRegex(ZeroOrMore(Literal("a"))); re != "(?:a)*" {
		t.Errorf("ZeroOrMore: got %q", re)
	}
	if re, _ := ToRegex(OneOrMore(Literal("a"))); re != "(?:a)+" {
		t.Errorf("OneOrMore: got %q", re)
	}
	if re, _ := ToRegex(Optional(Literal("a"))); re != "(?:a)?" {
		t.Errorf("Optional: got %q", re)
	}
}

func TestMatchesAnchorsFully(t *testing.T) {
	term := Literal("ab")
	ok, err := Matches(term, "ab")
	if err != nil || !ok {
		t.Fatalf("Matches(ab, ab) = %v, %v; want true, nil", ok, err)
	}
	ok, err = Matches(term, "xaby")
	if err != nil || ok {
		t.Fatalf("Matches(ab, xaby) = %v, %v; want false, nil", ok, err)
	}
}

func TestValidateReturnsPatternMismatch(t *testing.T) {
	term := Literal("ab")
	if err := Validate(term, "ab"); err != nil {
		t.Fatalf("Validate(ab, ab): %v", err)
	}
	if err := Validate(term, "cd"); err == nil {
		t.Fatal("Validate(ab, cd) should fail")
	}
}

func TestEqualStructural(t *testing.T) {
	a, _ := Sequence(Literal("x"), Literal("y"))
	b, _ := Sequence(Literal("x"), Literal("y"))
	c, _ := Sequence(Literal("x"), Literal("z"))
	if !Equal(a, b) {
		t.Error("expected structurally identical sequences to be Equal")
	}
	if Equal(a, c) {
		t.Error("expected differing sequences to not be Equal")
	}
	if !Equal(nil, nil) {
		t.Error("Equal(nil, nil) should be true")
	}
	if Equal(a, nil) {
		t.Error("Equal(a, nil) should be false")
	}

	// Equal's verdict should agree with a full structural diff over the
	// otherwise-unexported Term fields.
	if diff := cmp.Diff(a, b, cmp.AllowUnexported(Term{})); diff != "" {
		t.Errorf("Equal(a, b) reported true but cmp found a structural diff (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a, c, cmp.AllowUnexported(Term{})); diff == "" {
		t.Error("Equal(a, c) reported false but cmp found no structural diff")
	}
}

func TestFSMLowersOpaquely(t *testing.T) {
	term := FSM("a[bc]d")
	re, err := ToRegex(term)
	if err != nil {
		t.Fatalf("ToRegex: %v", err)
	}
	if re != "a[bc]d" {
		t.Errorf("got %q, want passthrough pattern", re)
	}
}

func TestCFGCompilesAndLowersOpaquely(t *testing.T) {
	g := cfg.Seq{cfg.Literal("a"), cfg.Alt{cfg.Literal("b"), cfg.Literal("c")}}
	term, err := CFG(g)
	if err != nil {
		t.Fatalf("CFG: %v", err)
	}
	ok, err := Matches(term, "ab")
	if err != nil || !ok {
		t.Fatalf("Matches(ab) = %v, %v; want true, nil", ok, err)
	}
	ok, err = Matches(term, "ac")
	if err != nil || !ok {
		t.Fatalf("Matches(ac) = %v, %v; want true, nil", ok, err)
	}
	if ok, _ := Matches(term, "ad"); ok {
		t.Error("expected ad to be rejected")
	}
}

func TestFromNativeArrayType(t *testing.T) {
	term, err := FromNative(ArrayType{Elem: IntegerType{}})
	if err != nil {
		t.Fatalf("FromNative: %v", err)
	}
	ok, err := Matches(term, "[1,2,3]")
	if err != nil || !ok {
		t.Fatalf("Matches([1,2,3]) = %v, %v; want true, nil", ok, err)
	}
	ok, err = Matches(term, "[]")
	if err != nil || !ok {
		t.Fatalf("Matches([]) = %v, %v; want true, nil", ok, err)
	}
}

func TestFromNativeUnionType(t *testing.T) {
	term, err := FromNative(UnionType{Options: []NativeType{StringType{}, IntegerType{}}})
	if err != nil {
		t.Fatalf("FromNative: %v", err)
	}
	if ok, _ := Matches(term, `"hi"`); !ok {
		t.Error("expected string branch to match")
	}
	if ok, _ := Matches(term, "42"); !ok {
		t.Error("expected integer branch to match")
	}
}

func TestFromNativeLiteralType(t *testing.T) {
	term, err := FromNative(LiteralType{Value: "fixed"})
	if err != nil {
		t.Fatalf("FromNative: %v", err)
	}
	ok, err := Matches(term, `"fixed"`)
	if err != nil || !ok {
		t.Fatalf("Matches: %v, %v", ok, err)
	}
}

func TestPrettyPrintIncludesNodeLabels(t *testing.T) {
	seq, _ := Sequence(Literal("a"), ZeroOrMore(Literal("b")))
	out := PrettyPrint(seq)
	if !strings.Contains(out, `Literal("a")`) {
		t.Errorf("expected pretty print to mention Literal(\"a\"), got:\n%s", out)
	}
	if !strings.Contains(out, "KleeneStar") {
		t.Errorf("expected pretty print to mention KleeneStar, got:\n%s", out)
	}
}
