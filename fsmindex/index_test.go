package fsmindex

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/screenager/constrain/vocab"
)

func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New(0, map[string][]uint32{
		"a": {1}, "b": {2}, "ab": {3}, "c": {4},
	})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	return v
}

func TestBuildAndWalk(t *testing.T) {
	v := testVocab(t)
	idx, err := Build(`(?:ab)+`, v)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := idx.InitialState()
	allowed := idx.AllowedTokens(s)
	if _, ok := allowed[3]; !ok { // "ab" token id
		t.Errorf("expected token id 3 (ab) allowed at initial state, got %v", allowed)
	}
	if _, ok := allowed[4]; ok { // "c" never matches
		t.Errorf("did not expect token id 4 (c) allowed")
	}

	next, ok := idx.NextState(s, 3)
	if !ok {
		t.Fatal("expected transition on ab")
	}
	if !idx.IsFinal(next) {
		t.Fatal("expected final state after one `ab`")
	}
	term, ok := idx.NextState(next, v.EOSID())
	if !ok || term != Terminal {
		t.Fatalf("expected EOS transition to Terminal, got %v, %v", term, ok)
	}
	if idx.NumStates() == 0 {
		t.Error("expected at least one reachable state")
	}
}

func TestBuildWalksSplitMultiByteToken(t *testing.T) {
	// "café" ends in U+00E9 ("é"), encoded as the two bytes 0xC3 0xA9. A real
	// BPE tokenizer can split that encoding across a token boundary; here
	// "caf\xC3" carries only the lead byte and "\xA9" carries the lone
	// continuation byte. A byte-level Index must still accept the pair.
	v, err := vocab.New(0, map[string][]uint32{
		"caf\xC3": {1},
		"\xA9":    {2},
	})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	idx, err := Build(`café`, v)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := idx.InitialState()
	allowed := idx.AllowedTokens(s)
	if _, ok := allowed[1]; !ok {
		t.Fatalf(`expected token id 1 ("caf\xC3") allowed at initial state, got %v`, allowed)
	}

	mid, ok := idx.NextState(s, 1)
	if !ok {
		t.Fatal(`expected a transition on "caf\xC3"`)
	}
	if idx.IsFinal(mid) {
		t.Fatal("did not expect a final state partway through the split rune")
	}
	allowedMid := idx.AllowedTokens(mid)
	if _, ok := allowedMid[2]; !ok {
		t.Fatalf(`expected token id 2 ("\xA9") allowed after "caf\xC3", got %v`, allowedMid)
	}

	end, ok := idx.NextState(mid, 2)
	if !ok {
		t.Fatal(`expected a transition on "\xA9"`)
	}
	if !idx.IsFinal(end) {
		t.Fatal("expected a final state after both halves of café")
	}
}

func TestBuildRejectsUnsupportedSyntax(t *testing.T) {
	v := testVocab(t)
	if _, err := Build(`(?!)impossible`, v); err == nil {
		t.Fatal("expected an IndexBuildError for unsupported regex syntax")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	v := testVocab(t)
	idx, err := Build(`a|b`, v)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := idx.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	restored, err := Load(&buf, v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.InitialState() != idx.InitialState() {
		t.Errorf("initial state mismatch after round trip")
	}
	if diff := cmp.Diff(idx.Transitions(), restored.Transitions()); diff != "" {
		t.Errorf("transition table mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestBuildMemoizedCaches(t *testing.T) {
	v := testVocab(t)
	idx1, err := BuildMemoized("a|b", v)
	if err != nil {
		t.Fatalf("BuildMemoized: %v", err)
	}
	idx2, err := BuildMemoized("a|b", v)
	if err != nil {
		t.Fatalf("BuildMemoized: %v", err)
	}
	if idx1 != idx2 {
		t.Error("expected the same *Index instance from the memoisation cache")
	}
}
