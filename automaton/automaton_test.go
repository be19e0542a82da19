package automaton

import "testing"

func mustCompile(t *testing.T, pattern string) *DFA {
	t.Helper()
	d, err := Compile(pattern)
	if err != nil {
		t.Fatalf("Compile(%q): %v", pattern, err)
	}
	return d
}

func TestAcceptsLiteral(t *testing.T) {
	d := mustCompile(t, `^(?:hello)$`)
	if !d.Accepts("hello") {
		t.Error("expected match on hello")
	}
	if d.Accepts("hell") || d.Accepts("helloo") || d.Accepts("") {
		t.Error("unexpected match")
	}
}

func TestAcceptsAlternation(t *testing.T) {
	d := mustCompile(t, `^(?:cat|dog|bird)$`)
	for _, s := range []string{"cat", "dog", "bird"} {
		if !d.Accepts(s) {
			t.Errorf("expected match on %q", s)
		}
	}
	if d.Accepts("fish") {
		t.Error("unexpected match on fish")
	}
}

func TestAcceptsDigitRepetition(t *testing.T) {
	d := mustCompile(t, `^(-)?(0|[1-9][0-9]*)$`)
	for _, s := range []string{"0", "42", "-7", "1000"} {
		if !d.Accepts(s) {
			t.Errorf("expected match on %q", s)
		}
	}
	for _, s := range []string{"01", "-", "1.5", "abc"} {
		if d.Accepts(s) {
			t.Errorf("unexpected match on %q", s)
		}
	}
}

func TestIncrementalStep(t *testing.T) {
	d := mustCompile(t, `^(?:ab)+$`)
	input := "ababab"
	state := d.InitialState()
	for i := 0; i < len(input); i++ {
		state = d.Step(state, input[i])
		if state == DeadState {
			t.Fatal("unexpected dead state mid-string")
		}
	}
	if !d.IsFinal(state) {
		t.Error("expected final state after ababab")
	}
	s2 := d.Step(state, 'a')
	if s2 == DeadState {
		t.Fatal("'a' should still be a valid prefix of another repetition")
	}
	if d.IsFinal(s2) {
		t.Error("odd-length prefix should not be final")
	}
}

func TestAcceptsMultiByteUTF8(t *testing.T) {
	d := mustCompile(t, `^(?:caf[eé])$`)
	if !d.Accepts("café") {
		t.Error("expected match on café (é is a 2-byte UTF-8 sequence)")
	}
	if !d.Accepts("cafe") {
		t.Error("expected match on cafe")
	}
	if d.Accepts("caff") {
		t.Error("unexpected match on caff")
	}
}

func TestStepStringWalksSplitMultiByteToken(t *testing.T) {
	// "é" is U+00E9, encoded as the 2 bytes 0xC3 0xA9. A real BPE vocabulary
	// can legally contain a token holding only the first of those two bytes
	// (the rest arriving as a separate token); the byte-level DFA must still
	// walk that partial byte cleanly instead of dead-ending it.
	d := mustCompile(t, `^(?:caf[eé])$`)
	const full = "café"
	split := len("caf") + 1 // one byte into the 2-byte é sequence
	first, second := full[:split], full[split:]

	state, ok := d.StepString(d.InitialState(), first)
	if !ok {
		t.Fatalf("StepString dead-ended on the first half %q of a split multi-byte token", first)
	}
	state, ok = d.StepString(state, second)
	if !ok {
		t.Fatalf("StepString dead-ended on the second half %q of a split multi-byte token", second)
	}
	if !d.IsFinal(state) {
		t.Error("expected a final state after walking both halves of café")
	}
}

func TestAcceptsRejectsIncompleteMultiByteLead(t *testing.T) {
	d := mustCompile(t, `^[\x{00}-\x{FF}]+$`)
	// 0xC3 is the lead byte of the 2-byte encoding of runes U+00C0-U+00FF,
	// which this pattern does match once the sequence is complete. A lone
	// 0xC3 with no continuation byte has walked into a waypoint state with
	// no reachable match, so it must not be accepted on its own.
	if d.Accepts("\xC3") {
		t.Error("a lone UTF-8 lead byte should not be accepted by itself")
	}
	if !d.Accepts("\xC3\xBF") {
		t.Error("expected the completed 2-byte sequence (U+00FF) to be accepted")
	}
}
