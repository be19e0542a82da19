package tui

import (
	"testing"

	"github.com/screenager/constrain/fsmindex"
	"github.com/screenager/constrain/guide"
	"github.com/screenager/constrain/vocab"
)

func newModel(t *testing.T) Model {
	t.Helper()
	v, err := vocab.New(0, map[string][]uint32{"a": {1}, "b": {2}})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	idx, err := fsmindex.Build("a|b", v)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g := guide.New(idx, guide.Options{MaxRollback: 8})
	return New(g, v)
}

func TestResolveTokenKnown(t *testing.T) {
	m := newModel(t)
	id, ok := m.resolveToken("a")
	if !ok || id != 1 {
		t.Fatalf("resolveToken(a) = %d, %v; want 1, true", id, ok)
	}
}

func TestResolveTokenEOS(t *testing.T) {
	m := newModel(t)
	id, ok := m.resolveToken("<eos>")
	if !ok || id != m.guide.EOSID() {
		t.Fatalf("resolveToken(<eos>) = %d, %v; want %d, true", id, ok, m.guide.EOSID())
	}
}

func TestResolveTokenUnknown(t *testing.T) {
	m := newModel(t)
	if _, ok := m.resolveToken("nope"); ok {
		t.Fatal("expected resolveToken to fail on an unknown display string")
	}
}

func TestDisplayForRoundTrips(t *testing.T) {
	m := newModel(t)
	if got := m.displayFor(1); got != "a" {
		t.Errorf("displayFor(1) = %q, want %q", got, "a")
	}
	if got := m.displayFor(m.guide.EOSID()); got != "<eos>" {
		t.Errorf("displayFor(eos) = %q, want <eos>", got)
	}
}
