package fsmindex

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/screenager/constrain/vocab"
)

// memo is the process-wide Index cache (spec §5: "a process-wide
// memoisation cache keyed by (regex-canonical-form, eos_id, vocab-digest)
// is optional but recommended; it holds only immutable values"). Index
// values are treated as immutable once built, so concurrent readers are
// safe without further locking.
var memo sync.Map // map[string]*Index

// VocabDigest returns a stable content digest of v's token→ids pairs,
// replacing the source's ad-hoc full-vocabulary hash (spec §9) with a
// digest that only depends on content, not map iteration order.
func VocabDigest(v *vocab.Vocabulary) string {
	h := sha256.New()
	tokens := v.Tokens()
	sort.Strings(tokens)
	var buf [4]byte
	for _, tok := range tokens {
		ids, _ := v.Get(tok)
		h.Write([]byte(tok))
		h.Write([]byte{0})
		for _, id := range ids { // v.Get returns ids sorted ascending
			binary.BigEndian.PutUint32(buf[:], id)
			h.Write(buf[:])
		}
		h.Write([]byte{0xff})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func memoKey(regex string, eosID uint32, vocabDigest string) string {
	h := sha256.New()
	h.Write([]byte(regex))
	h.Write([]byte{0})
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], eosID)
	h.Write(buf[:])
	h.Write([]byte(vocabDigest))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// BuildMemoized wraps Build with the process-wide cache.
func BuildMemoized(regex string, v *vocab.Vocabulary) (*Index, error) {
	key := memoKey(regex, v.EOSID(), VocabDigest(v))
	if cached, ok := memo.Load(key); ok {
		return cached.(*Index), nil
	}
	idx, err := Build(regex, v)
	if err != nil {
		return nil, err
	}
	memo.Store(key, idx)
	return idx, nil
}
