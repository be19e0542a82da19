// Package tokenizer loads a HuggingFace tokenizer.json and adapts its
// vocabulary into a vocab.Vocabulary the rest of the engine compiles
// Indexes against, grounded on the teacher's internal/embed/embedder.go
// (daulet/tokenizers.FromFile, EncodeWithOptions) lifecycle.
package tokenizer

import (
	"fmt"

	"github.com/daulet/tokenizers"

	"github.com/screenager/constrain/vocab"
)

// Tokenizer pairs a loaded HuggingFace tokenizer with the Vocabulary built
// from its id↔token table, so a caller can both encode prompt text and
// build an Index/Guide against the same token space.
type Tokenizer struct {
	tk    *tokenizers.Tokenizer
	vocab *vocab.Vocabulary
	eosID uint32
}

// Load reads path (a tokenizer.json) and builds the Vocabulary, treating
// eosToken as the distinguished end-of-sequence token (e.g. "</s>" or
// "<|endoftext|>" depending on the model family).
func Load(path, eosToken string) (*Tokenizer, error) {
	tk, err := tokenizers.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	eosID, ok := tk.TokenToId(eosToken)
	if !ok {
		tk.Close()
		return nil, fmt.Errorf("eos token %q not found in tokenizer vocabulary", eosToken)
	}

	size := tk.VocabSize()
	tokens := make(map[string][]uint32, size)
	for id := uint32(0); id < size; id++ {
		tok, ok := tk.IdToToken(id)
		if !ok {
			continue
		}
		tokens[tok] = append(tokens[tok], id)
	}
	// The eos token itself must not appear among Insert-able tokens
	// (vocab.New/vocab.Insert reject it), so drop it from the seed map —
	// the Vocabulary still knows its id via EOSID().
	delete(tokens, eosToken)

	v, err := vocab.New(eosID, tokens)
	if err != nil {
		tk.Close()
		return nil, fmt.Errorf("build vocabulary: %w", err)
	}

	return &Tokenizer{tk: tk, vocab: v, eosID: eosID}, nil
}

// Close releases the underlying tokenizer.
func (t *Tokenizer) Close() { t.tk.Close() }

// Vocabulary returns the Vocabulary derived from this tokenizer's id↔token
// table, shared read-only across every Index built from it.
func (t *Tokenizer) Vocabulary() *vocab.Vocabulary { return t.vocab }

// EOSID returns the tokenizer's end-of-sequence id.
func (t *Tokenizer) EOSID() uint32 { return t.eosID }

// Encode tokenizes text to ids, optionally adding the tokenizer's special
// tokens (e.g. BOS), matching the teacher's EncodeWithOptions call shape.
func (t *Tokenizer) Encode(text string, addSpecialTokens bool) []uint32 {
	enc := t.tk.EncodeWithOptions(text, addSpecialTokens)
	return enc.IDs
}

// Decode renders ids back to display text.
func (t *Tokenizer) Decode(ids []uint32, skipSpecialTokens bool) string {
	return t.tk.Decode(ids, skipSpecialTokens)
}
