package tokenizer

import "testing"

// TestLoadMissingFile ensures Load returns a useful error instead of panicking
// when the tokenizer.json path does not exist.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/tmp/nonexistent-tokenizer-constrain-test.json", "</s>")
	if err == nil {
		t.Fatal("expected error for missing tokenizer file, got nil")
	}
}

// TestLoadRoundTrip exercises a real tokenizer.json if one has been placed at
// ../../models/tokenizer.json; skipped otherwise since fetching one is out of
// scope for unit tests.
func TestLoadRoundTrip(t *testing.T) {
	tok, err := Load("../../models/tokenizer.json", "</s>")
	if err != nil {
		t.Skipf("skipping: tokenizer not found at ../../models/tokenizer.json: %v", err)
	}
	defer tok.Close()

	ids := tok.Encode("hello world", true)
	if len(ids) == 0 {
		t.Fatal("expected at least one token id for non-empty input")
	}
	text := tok.Decode(ids, true)
	if text == "" {
		t.Error("expected non-empty decoded text")
	}
	if tok.Vocabulary().EOSID() != tok.EOSID() {
		t.Error("vocabulary EOSID should match tokenizer EOSID")
	}
}
