package fsmindex

import (
	"encoding/gob"
	"io"

	"github.com/screenager/constrain/kinderr"
	"github.com/screenager/constrain/vocab"
)

// snapshot is the gob-serialisable mirror of Index's unexported fields
// (spec §6: "memoised indexes may be serialised via Index.transitions() and
// restored via a constructor taking that table plus the vocabulary").
type snapshot struct {
	Initial   int
	Final     map[int]bool
	Trans     map[int]map[uint32]int
	EOSID     uint32
	NumStates int
}

// Save writes idx to w using encoding/gob, the same serialisation format
// the teacher's internal/hnsw package uses for its own on-disk index.
func (idx *Index) Save(w io.Writer) error {
	snap := snapshot{Initial: idx.initial, Final: idx.final, Trans: idx.trans, EOSID: idx.eosID, NumStates: idx.numStates}
	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return kinderr.Wrap(kinderr.IndexBuildError, "", "could not serialise index", err)
	}
	return nil
}

// Load restores an Index previously written by Save. v must be the same
// vocabulary the Index was built against; Load checks its EOS id against
// the serialised one so a caller can't silently pair a stale index with a
// different tokenizer's vocabulary.
func Load(r io.Reader, v *vocab.Vocabulary) (*Index, error) {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, kinderr.Wrap(kinderr.IndexBuildError, "", "could not deserialise index", err)
	}
	if v.EOSID() != snap.EOSID {
		return nil, kinderr.New(kinderr.IndexBuildError, "", "serialised index's EOS id does not match the supplied vocabulary")
	}
	return &Index{initial: snap.Initial, final: snap.Final, trans: snap.Trans, eosID: snap.EOSID, numStates: snap.NumStates}, nil
}
