// Package vocab holds the tokenizer vocabulary a fsmindex.Index is built
// against: the bidirectional token-bytes↔id mapping, the distinguished
// end-of-sequence id, and a display-form normaliser for showing token bytes
// as readable text (spec §4.D).
package vocab

import (
	"fmt"
	"sort"
	"sync"

	"github.com/clipperhouse/uax29/v2/graphemes"

	"github.com/screenager/constrain/kinderr"
)

// Vocabulary is a token-bytes↔id map plus an EOS marker. Some tokenizers
// assign more than one id to an identical surface form, so a token maps to a
// *set* of ids; every id maps back to exactly one token. The EOS id has no
// byte form of its own and can never be inserted as an ordinary token.
//
// Immutable after construction in the steady state: Insert/Remove can edit
// it afterwards, but a Vocabulary handed to fsmindex.Build is expected not
// to change underneath a live Index (spec §4.D "Lifecycle").
type Vocabulary struct {
	mu        sync.RWMutex
	eosID     uint32
	tokenToID map[string]map[uint32]struct{}
	idToToken map[uint32]string
}

// New constructs a Vocabulary from an end-of-sequence id and an initial
// token→ids mapping (spec §4.D "construct from (eos-id, map token→ids)").
func New(eosID uint32, tokens map[string][]uint32) (*Vocabulary, error) {
	v := &Vocabulary{
		eosID:     eosID,
		tokenToID: make(map[string]map[uint32]struct{}, len(tokens)),
		idToToken: make(map[uint32]string, len(tokens)),
	}
	for token, ids := range tokens {
		for _, id := range ids {
			if err := v.insertLocked(token, id); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

// EOSID returns the end-of-sequence id.
func (v *Vocabulary) EOSID() uint32 {
	return v.eosID
}

// Insert adds an (token, id) pair. It fails with kinderr.EOSDisallowed if id
// is the vocabulary's EOS id (spec §4.D, §7).
func (v *Vocabulary) Insert(token string, id uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.insertLocked(token, id)
}

func (v *Vocabulary) insertLocked(token string, id uint32) error {
	if id == v.eosID {
		return kinderr.New(kinderr.EOSDisallowed, token, fmt.Sprintf("id %d is the EOS id", id))
	}
	if existing, ok := v.idToToken[id]; ok && existing != token {
		delete(v.tokenToID[existing], id)
		if len(v.tokenToID[existing]) == 0 {
			delete(v.tokenToID, existing)
		}
	}
	v.idToToken[id] = token
	if v.tokenToID[token] == nil {
		v.tokenToID[token] = make(map[uint32]struct{})
	}
	v.tokenToID[token][id] = struct{}{}
	return nil
}

// Remove drops token and every id it maps to.
func (v *Vocabulary) Remove(token string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids := v.tokenToID[token]
	for id := range ids {
		delete(v.idToToken, id)
	}
	delete(v.tokenToID, token)
}

// Get returns the ids registered for token, in ascending order.
func (v *Vocabulary) Get(token string) ([]uint32, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	set, ok := v.tokenToID[token]
	if !ok {
		return nil, false
	}
	ids := make([]uint32, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, true
}

// GetTokenByID returns the token registered for id.
func (v *Vocabulary) GetTokenByID(id uint32) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	tok, ok := v.idToToken[id]
	return tok, ok
}

// Size returns the number of distinct ids in the vocabulary (spec §4.D:
// "Size counts distinct ids", not distinct token strings).
func (v *Vocabulary) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.idToToken)
}

// Tokens returns every distinct token string currently registered, in no
// particular order.
func (v *Vocabulary) Tokens() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.tokenToID))
	for tok := range v.tokenToID {
		out = append(out, tok)
	}
	return out
}

// leadingSpaceMarker is the SentencePiece "▁" (U+2581) glyph Llama-family
// tokenizers use in place of a literal leading space.
const leadingSpaceMarker = "▁"

// rawSpaceByte is the alternate literal-byte-token spelling some
// tokenizer.json vocabularies use for a standalone space (spec §6:
// "equal to `<0x20>`").
const rawSpaceByte = "<0x20>"

// DisplayForm renders token the way the model intends it to read on the
// wire, implementing the tokenizer contract's convert_token_to_string
// Llama-family special case (spec §6): a token opening with the SentencePiece
// "▁" marker denotes a leading space, and the literal token "<0x20>" denotes
// a bare space. Graphemes are walked via uax29/v2 rather than byte-sliced so
// the multi-byte marker is never split mid-rune.
func DisplayForm(token string) string {
	if token == rawSpaceByte {
		return " "
	}
	iter := graphemes.FromString(token)
	if !iter.Next() {
		return token
	}
	first := iter.Value()
	if first != leadingSpaceMarker {
		return token
	}
	return " " + token[len(first):]
}
